package validation

import (
	"fmt"

	dErrors "inro/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the default request body cap. A full relay transcript is
	// well under 4 KB of hex.
	MaxBodySize = 64 * 1024
)

// Slice element count limits
const (
	// MaxExchanges bounds a relayed APDU transcript. The read needs two; the
	// slack covers clients that record GET RESPONSE chaining.
	MaxExchanges = 16
)

// String element length limits
const (
	// MaxAPDUHexLength fits a short APDU (4 + 1 + 255 + 1 bytes) or a full
	// 256 byte response plus status word, hex encoded with separators.
	MaxAPDUHexLength = 3 * (256 + 2)

	// MaxTokenLength bounds attestation tokens presented for verification.
	MaxTokenLength = 4096

	// MaxDateLength is the length of YYYY-MM-DD.
	MaxDateLength = 10
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength reports the first element longer than max, by index.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for i, v := range values {
		if len(v) > max {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s[%d] exceeds max length of %d", fieldName, i, max))
		}
	}
	return nil
}
