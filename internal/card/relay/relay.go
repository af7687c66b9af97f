// Package relay replays an APDU exchange a remote client performed against a
// card. The client acts as an NFC pipe; the server re-runs the reader over the
// recorded transcript and rejects any command the reader would not have sent.
package relay

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"inro/internal/card/apdu"
	"inro/internal/card/reader"
	"inro/internal/card/session"
	dErrors "inro/pkg/domain-errors"
)

// Exchange is one recorded command and the card's full response (data + SW).
type Exchange struct {
	Command  []byte
	Response []byte
}

// DecodeHex builds an Exchange from hex strings. Whitespace is ignored so
// clients can send "00 A4 04 0C ..." as well as "00A4040C...".
//
// Errors: returns CodeInvalidInput for bad hex, a malformed command APDU, or
// a response without a status word.
func DecodeHex(command, response string) (Exchange, error) {
	cmd, err := decodeHex(command)
	if err != nil {
		return Exchange{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "command is not valid hex")
	}
	if _, err := apdu.ParseCommand(cmd); err != nil {
		return Exchange{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "command is not a short APDU")
	}
	resp, err := decodeHex(response)
	if err != nil {
		return Exchange{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "response is not valid hex")
	}
	if _, err := apdu.ParseResponse(resp); err != nil {
		return Exchange{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "response has no status word")
	}
	return Exchange{Command: cmd, Response: resp}, nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.Join(strings.Fields(s), ""))
}

// ForReadResponse is the transcript of a card that accepts SELECT and answers
// READ BINARY with readResponse (data + SW).
func ForReadResponse(readResponse []byte) []Exchange {
	return []Exchange{
		{
			Command:  apdu.SelectByAID(reader.JPKIAID).MustBytes(),
			Response: apdu.SWSuccess.Bytes(),
		},
		{
			Command:  apdu.ReadBinary(0, reader.ReadLength).MustBytes(),
			Response: append([]byte(nil), readResponse...),
		},
	}
}

// Transcript is a reader.Transmitter that answers from recorded exchanges in
// order. It is consumed once.
type Transcript struct {
	mu        sync.Mutex
	exchanges []Exchange
	next      int
}

// New copies exchanges into a fresh Transcript.
func New(exchanges []Exchange) *Transcript {
	cp := make([]Exchange, len(exchanges))
	copy(cp, exchanges)
	return &Transcript{exchanges: cp}
}

// Transmit returns the recorded response for the next exchange. A command
// that differs from the recording, or a call past the end, is a
// communication error and leaves the position unchanged.
func (t *Transcript) Transmit(ctx context.Context, command []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, reader.NewError(reader.KindCommunication, "relay", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.next >= len(t.exchanges) {
		return nil, reader.NewError(reader.KindCommunication, "relay",
			fmt.Errorf("transcript exhausted after %d exchanges", len(t.exchanges)))
	}
	ex := t.exchanges[t.next]
	if !bytes.Equal(ex.Command, command) {
		return nil, reader.NewError(reader.KindCommunication, "relay",
			fmt.Errorf("exchange %d: recorded command %X, reader sent %X", t.next, ex.Command, command))
	}
	t.next++
	return append([]byte(nil), ex.Response...), nil
}

// Remaining reports exchanges not yet consumed.
func (t *Transcript) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.exchanges) - t.next
}

// Detector presents the transcript as the single tag the client saw. An
// empty tagType means the client found no tag.
func (t *Transcript) Detector(tagType session.TagType) session.Detector {
	return detector{t: t, tagType: tagType}
}

type detector struct {
	t       *Transcript
	tagType session.TagType
}

func (d detector) Detect(ctx context.Context) ([]session.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.tagType == "" {
		return nil, nil
	}
	return []session.Tag{tag(d)}, nil
}

type tag detector

func (t tag) Type() session.TagType { return t.tagType }

func (t tag) Connect(context.Context) (reader.Transmitter, error) {
	return t.t, nil
}

var (
	_ reader.Transmitter = (*Transcript)(nil)
	_ session.Detector   = detector{}
	_ session.Tag        = tag{}
)
