// Package apdu encodes ISO 7816-4 short command APDUs and decodes response
// APDUs. Extended-length APDUs are not supported.
package apdu

import (
	"encoding/hex"
	"fmt"
	"strings"

	dErrors "inro/pkg/domain-errors"
)

// Instruction bytes used by this module.
const (
	ClassInterindustry byte = 0x00

	InsSelect     byte = 0xA4
	InsReadBinary byte = 0xB0

	// SELECT P1/P2: select by DF name (AID), no response data requested.
	P1SelectByName     byte = 0x04
	P2SelectNoResponse byte = 0x0C
)

// Short APDU limits.
const (
	MaxShortDataLength     = 255
	MaxShortResponseLength = 256
)

// Command is a short command APDU. Ne is the maximum number of response bytes
// expected; zero omits the Le field and 256 encodes as Le = 0x00.
type Command struct {
	CLA  byte
	INS  byte
	P1   byte
	P2   byte
	Data []byte
	Ne   int
}

// SelectByAID builds SELECT by DF name: CLA 00, INS A4, P1 04, P2 0C.
func SelectByAID(aid []byte) Command {
	return Command{
		CLA:  ClassInterindustry,
		INS:  InsSelect,
		P1:   P1SelectByName,
		P2:   P2SelectNoResponse,
		Data: append([]byte(nil), aid...),
	}
}

// ReadBinary builds READ BINARY from the current EF at a 15-bit offset.
func ReadBinary(offset uint16, ne int) Command {
	return Command{
		CLA: ClassInterindustry,
		INS: InsReadBinary,
		P1:  byte(offset>>8) & 0x7F,
		P2:  byte(offset),
		Ne:  ne,
	}
}

// Validate checks the command fits the short APDU encoding.
func (c Command) Validate() error {
	if len(c.Data) > MaxShortDataLength {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("command data is %d bytes, short APDU allows %d", len(c.Data), MaxShortDataLength))
	}
	if c.Ne < 0 || c.Ne > MaxShortResponseLength {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("expected length %d outside 0..%d", c.Ne, MaxShortResponseLength))
	}
	return nil
}

// Bytes encodes c as a short APDU (ISO 7816-4 cases 1 to 4).
func (c Command) Bytes() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 4+1+len(c.Data)+1)
	out = append(out, c.CLA, c.INS, c.P1, c.P2)
	if len(c.Data) > 0 {
		out = append(out, byte(len(c.Data)))
		out = append(out, c.Data...)
	}
	if c.Ne > 0 {
		// 256 wraps to 0x00 by definition.
		out = append(out, byte(c.Ne))
	}
	return out, nil
}

// MustBytes is Bytes for commands built from constants.
func (c Command) MustBytes() []byte {
	b, err := c.Bytes()
	if err != nil {
		panic(err)
	}
	return b
}

func (c Command) String() string {
	b, err := c.Bytes()
	if err != nil {
		return "invalid apdu: " + err.Error()
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

// ParseCommand decodes a short command APDU.
//
// Errors: returns CodeInvalidInput for truncated or inconsistent encodings.
func ParseCommand(raw []byte) (Command, error) {
	if len(raw) < 4 {
		return Command{}, dErrors.New(dErrors.CodeInvalidInput, "command APDU shorter than header")
	}
	c := Command{CLA: raw[0], INS: raw[1], P1: raw[2], P2: raw[3]}
	body := raw[4:]
	switch {
	case len(body) == 0:
		// case 1
	case len(body) == 1:
		c.Ne = decodeLe(body[0])
	default:
		lc := int(body[0])
		if lc == 0 {
			return Command{}, dErrors.New(dErrors.CodeInvalidInput, "extended APDUs are not supported")
		}
		switch len(body) {
		case 1 + lc:
			// case 3
		case 1 + lc + 1:
			c.Ne = decodeLe(body[len(body)-1])
		default:
			return Command{}, dErrors.New(dErrors.CodeInvalidInput,
				fmt.Sprintf("Lc %d does not match body length %d", lc, len(body)-1))
		}
		c.Data = append([]byte(nil), body[1:1+lc]...)
	}
	return c, nil
}

func decodeLe(b byte) int {
	if b == 0 {
		return MaxShortResponseLength
	}
	return int(b)
}
