// Package reader performs the MyNumber card exchange: select the JPKI
// application by AID, read binary, check status words and parse the birth
// date at a fixed offset.
package reader

//go:generate mockgen -source=reader.go -destination=mocks/reader_mock.go -package=mocks Transmitter

import (
	"context"
	"log/slog"
	"time"

	"inro/internal/card/apdu"
	"inro/internal/platform/tracer"
	"inro/pkg/domain"
)

// JPKIAID selects the public key infrastructure application on the card.
var JPKIAID = []byte{0xD3, 0x92, 0xF0, 0x00, 0x26, 0x01, 0x00, 0x00, 0x00, 0x01}

const (
	// BirthDateLength is the width of the YYYYMMDD digit string at offset 0.
	BirthDateLength = 8
	// ReadLength is the Ne requested by READ BINARY.
	ReadLength = apdu.MaxShortResponseLength
)

// Location is the zone card-issued dates are observed in.
var Location = loadTokyo()

func loadTokyo() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		// No tzdata on the host; Japan has no DST so the fixed offset is exact.
		return time.FixedZone("Asia/Tokyo", 9*60*60)
	}
	return loc
}

// Transmitter performs one raw APDU round trip with a connected card.
// The returned bytes are the full response APDU including SW1 SW2.
type Transmitter interface {
	Transmit(ctx context.Context, command []byte) ([]byte, error)
}

// Reader runs the two-step exchange over a Transmitter. It holds no
// per-read state and is safe to reuse sequentially.
type Reader struct {
	tx     Transmitter
	tracer tracer.Tracer
	logger *slog.Logger
}

// Option configures the Reader.
type Option func(*Reader)

func WithTracer(t tracer.Tracer) Option {
	return func(r *Reader) {
		r.tracer = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}

// New creates a Reader. Panics if tx is nil.
func New(tx Transmitter, opts ...Option) *Reader {
	if tx == nil {
		panic("reader.New: transmitter is required")
	}
	r := &Reader{tx: tx, tracer: tracer.NewNoop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadBirthDate selects the application, reads the data and parses the birth
// date. Transport failures and non-9000 status words are communication errors;
// a malformed payload is a parsing error.
func (r *Reader) ReadBirthDate(ctx context.Context) (domain.CalendarDate, error) {
	if _, err := r.exchange(ctx, tracer.SpanCardSelect, "select", apdu.SelectByAID(JPKIAID)); err != nil {
		return domain.CalendarDate{}, err
	}

	resp, err := r.exchange(ctx, tracer.SpanCardRead, "read_binary", apdu.ReadBinary(0, ReadLength))
	if err != nil {
		return domain.CalendarDate{}, err
	}

	birthDate, err := ParseBirthDate(resp.Data)
	if err != nil {
		r.debug(ctx, "card payload rejected", "response_len", len(resp.Data), "error", err)
		return domain.CalendarDate{}, err
	}
	return birthDate, nil
}

func (r *Reader) exchange(ctx context.Context, span, op string, cmd apdu.Command) (resp apdu.Response, err error) {
	ctx, sp := r.tracer.Start(ctx, span)
	defer func() { sp.End(err) }()

	raw, err := cmd.Bytes()
	if err != nil {
		return apdu.Response{}, NewError(KindCommunication, op, err)
	}

	out, err := r.tx.Transmit(ctx, raw)
	if err != nil {
		r.debug(ctx, "apdu transmit failed", "op", op, "error", err)
		return apdu.Response{}, NewError(KindCommunication, op, err)
	}

	resp, err = apdu.ParseResponse(out)
	if err != nil {
		return apdu.Response{}, NewError(KindCommunication, op, err)
	}

	sw := resp.StatusWord()
	sp.SetAttributes(
		tracer.String(tracer.AttrStatusWord, sw.String()),
		tracer.Int(tracer.AttrResponseLen, len(resp.Data)),
	)
	if !resp.OK() {
		r.debug(ctx, "card rejected command", "op", op, "sw", sw.String())
		return apdu.Response{}, &Error{Kind: KindCommunication, Op: op, SW: sw}
	}
	return resp, nil
}

func (r *Reader) debug(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.DebugContext(ctx, msg, args...)
	}
}
