package reader

import (
	"fmt"
	"strconv"
	"time"

	"inro/pkg/domain"
)

// ParseBirthDate reads the YYYYMMDD digits at the start of the read-binary
// payload. Bytes after the first eight are ignored.
func ParseBirthDate(data []byte) (domain.CalendarDate, error) {
	if len(data) < BirthDateLength {
		return domain.CalendarDate{}, NewError(KindParsing, "parse",
			fmt.Errorf("payload has %d bytes, need %d", len(data), BirthDateLength))
	}
	digits := data[:BirthDateLength]
	for i, b := range digits {
		if b < '0' || b > '9' {
			return domain.CalendarDate{}, NewError(KindParsing, "parse",
				fmt.Errorf("byte %d is 0x%02X, not an ASCII digit", i, b))
		}
	}

	// All digits, so Atoi cannot fail.
	year, _ := strconv.Atoi(string(digits[0:4]))
	month, _ := strconv.Atoi(string(digits[4:6]))
	day, _ := strconv.Atoi(string(digits[6:8]))

	date, err := domain.NewCalendarDate(year, time.Month(month), day, Location)
	if err != nil {
		return domain.CalendarDate{}, NewError(KindParsing, "parse", err)
	}
	return date, nil
}
