package apdu

import (
	"fmt"

	dErrors "inro/pkg/domain-errors"
)

// StatusWord is the SW1-SW2 trailer of a response APDU.
type StatusWord uint16

const (
	SWSuccess              StatusWord = 0x9000
	SWWrongLength          StatusWord = 0x6700
	SWSecurityNotSatisfied StatusWord = 0x6982
	SWFileNotFound         StatusWord = 0x6A82
	SWWrongP1P2            StatusWord = 0x6B00
	SWInsNotSupported      StatusWord = 0x6D00
	SWClaNotSupported      StatusWord = 0x6E00
)

var statusNames = map[StatusWord]string{
	SWSuccess:              "success",
	SWWrongLength:          "wrong length",
	SWSecurityNotSatisfied: "security status not satisfied",
	SWFileNotFound:         "file or application not found",
	SWWrongP1P2:            "wrong parameters P1-P2",
	SWInsNotSupported:      "instruction not supported",
	SWClaNotSupported:      "class not supported",
}

func (sw StatusWord) SW1() byte { return byte(sw >> 8) }
func (sw StatusWord) SW2() byte { return byte(sw) }

// Bytes encodes the status word as a bare response APDU.
func (sw StatusWord) Bytes() []byte { return []byte{sw.SW1(), sw.SW2()} }

func (sw StatusWord) String() string {
	if name, ok := statusNames[sw]; ok {
		return fmt.Sprintf("%04X (%s)", uint16(sw), name)
	}
	return fmt.Sprintf("%04X", uint16(sw))
}

// Response is a decoded response APDU.
type Response struct {
	Data []byte
	SW1  byte
	SW2  byte
}

// ParseResponse splits a raw response into data and status word.
//
// Errors: returns CodeInvalidInput when fewer than two bytes are present.
func ParseResponse(raw []byte) (Response, error) {
	if len(raw) < 2 {
		return Response{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("response APDU has %d bytes, status word needs 2", len(raw)))
	}
	n := len(raw) - 2
	return Response{
		Data: append([]byte(nil), raw[:n]...),
		SW1:  raw[n],
		SW2:  raw[n+1],
	}, nil
}

// StatusWord combines SW1 and SW2.
func (r Response) StatusWord() StatusWord {
	return StatusWord(uint16(r.SW1)<<8 | uint16(r.SW2))
}

// OK reports whether the card answered 90 00.
func (r Response) OK() bool {
	return r.StatusWord() == SWSuccess
}

// Bytes re-encodes the response as data followed by SW1 SW2.
func (r Response) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+2)
	out = append(out, r.Data...)
	return append(out, r.SW1, r.SW2)
}
