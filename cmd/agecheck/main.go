// Package main provides a CLI for checking the age predicate offline and for
// producing the APDU transcript a client relays during a card read.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"inro/internal/card/reader"
	"inro/internal/card/relay"
	"inro/pkg/domain"
)

type ageOutput struct {
	BirthDate     string `json:"birth_date"`
	ReferenceDate string `json:"reference_date"`
	Age           int    `json:"age"`
	MinimumAge    int    `json:"minimum_age"`
	OverMinimum   bool   `json:"over_minimum"`
	IsBirthday    bool   `json:"is_birthday"`
}

type exchangeOutput struct {
	Step     string `json:"step"`
	Command  string `json:"command"`
	Expected string `json:"expected_response"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	ageCmd := flag.NewFlagSet("age", flag.ContinueOnError)
	ageCmd.SetOutput(stderr)
	ageBirth := ageCmd.String("birth", "", "Birth date (YYYY-MM-DD)")
	ageOn := ageCmd.String("on", "", "Reference date (YYYY-MM-DD). Defaults to today in Asia/Tokyo.")
	ageJSON := ageCmd.Bool("json", false, "Output as JSON")

	parseCmd := flag.NewFlagSet("parse", flag.ContinueOnError)
	parseCmd.SetOutput(stderr)
	parseResponse := parseCmd.String("response", "", "READ BINARY response as hex, status word included")
	parseOn := parseCmd.String("on", "", "Reference date (YYYY-MM-DD). Defaults to today in Asia/Tokyo.")
	parseJSON := parseCmd.Bool("json", false, "Output as JSON")

	apduCmd := flag.NewFlagSet("apdu", flag.ContinueOnError)
	apduCmd.SetOutput(stderr)
	apduJSON := apduCmd.Bool("json", false, "Output as JSON")

	var err error
	switch args[0] {
	case "age":
		if err = ageCmd.Parse(args[1:]); err != nil {
			return 2
		}
		err = checkAge(stdout, *ageBirth, *ageOn, *ageJSON)
	case "parse":
		if err = parseCmd.Parse(args[1:]); err != nil {
			return 2
		}
		err = parseCard(stdout, *parseResponse, *parseOn, *parseJSON)
	case "apdu":
		if err = apduCmd.Parse(args[1:]); err != nil {
			return 2
		}
		err = showAPDUs(stdout, *apduJSON)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `agecheck - Offline age checks for MyNumber card birth dates

Usage:
  agecheck <command> [flags]

Commands:
  age       Evaluate the age predicate for a birth date
  parse     Decode a READ BINARY response and evaluate it
  apdu      Print the command APDUs a client must relay

Examples:
  # Is someone born 2006-04-02 of age on 2026-04-01?
  agecheck age -birth 2006-04-02 -on 2026-04-01

  # Decode a raw card response
  agecheck parse -response "3139393930363135 9000"

  # Output as JSON
  agecheck apdu -json

Use "agecheck <command> -h" for more information about a command.`)
}

func checkAge(w io.Writer, birth, on string, jsonOutput bool) error {
	if birth == "" {
		return errors.New("-birth is required")
	}
	birthDate, err := domain.ParseCalendarDate(birth, reader.Location)
	if err != nil {
		return err
	}
	ref, err := referenceDate(on)
	if err != nil {
		return err
	}
	return printAge(w, evaluate(birthDate, ref), jsonOutput)
}

func parseCard(w io.Writer, response, on string, jsonOutput bool) error {
	if response == "" {
		return errors.New("-response is required")
	}
	raw, err := hex.DecodeString(strings.Join(strings.Fields(response), ""))
	if err != nil {
		return fmt.Errorf("response is not valid hex: %w", err)
	}
	ref, err := referenceDate(on)
	if err != nil {
		return err
	}

	transcript := relay.New(relay.ForReadResponse(raw))
	birthDate, err := reader.New(transcript).ReadBirthDate(context.Background())
	if err != nil {
		return fmt.Errorf("%s: %w", reader.KindOf(err), err)
	}
	return printAge(w, evaluate(birthDate, ref), jsonOutput)
}

func showAPDUs(w io.Writer, jsonOutput bool) error {
	steps := []string{"select", "read_binary"}
	var out []exchangeOutput
	for i, ex := range relay.ForReadResponse(nil) {
		expected := strings.ToUpper(hex.EncodeToString(ex.Response))
		if steps[i] == "read_binary" {
			expected = fmt.Sprintf("%d ASCII digits (YYYYMMDD) followed by 9000", reader.BirthDateLength)
		}
		out = append(out, exchangeOutput{
			Step:     steps[i],
			Command:  strings.ToUpper(hex.EncodeToString(ex.Command)),
			Expected: expected,
		})
	}

	if jsonOutput {
		return printJSON(w, out)
	}
	fmt.Fprintln(w, "Card Read Transcript")
	fmt.Fprintln(w, "====================")
	for _, ex := range out {
		fmt.Fprintf(w, "%-12s %s\n", ex.Step, ex.Command)
		fmt.Fprintf(w, "%-12s expects %s\n", "", ex.Expected)
	}
	return nil
}

func referenceDate(on string) (domain.CalendarDate, error) {
	if on == "" {
		return domain.Today(reader.Location), nil
	}
	return domain.ParseCalendarDate(on, reader.Location)
}

func evaluate(birth, ref domain.CalendarDate) ageOutput {
	return ageOutput{
		BirthDate:     birth.String(),
		ReferenceDate: ref.String(),
		Age:           domain.CalculateAge(birth, ref),
		MinimumAge:    domain.MinimumAge,
		OverMinimum:   domain.IsOverMinimumAge(birth, ref),
		IsBirthday:    domain.IsBirthday(birth, ref),
	}
}

func printAge(w io.Writer, out ageOutput, jsonOutput bool) error {
	if jsonOutput {
		return printJSON(w, out)
	}
	verdict := "FAIL (underage)"
	if out.OverMinimum {
		verdict = "PASS"
	}
	fmt.Fprintln(w, "Age Check")
	fmt.Fprintln(w, "=========")
	fmt.Fprintf(w, "Birth Date:     %s\n", out.BirthDate)
	fmt.Fprintf(w, "Reference Date: %s\n", out.ReferenceDate)
	fmt.Fprintf(w, "Age:            %d\n", out.Age)
	fmt.Fprintf(w, "Minimum Age:    %d\n", out.MinimumAge)
	if out.IsBirthday {
		fmt.Fprintln(w, "Birthday:       yes")
	}
	fmt.Fprintf(w, "Result:         %s\n", verdict)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

