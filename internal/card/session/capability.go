package session

import (
	"context"
	"fmt"

	"inro/internal/card/reader"
	"inro/pkg/domain"
)

// Capability is the platform's contactless support, chosen once at startup.
type Capability interface {
	Available() bool
	// ReadBirthDate runs one detection and read. Every failure is a *reader.Error.
	ReadBirthDate(ctx context.Context, d Detector) (domain.CalendarDate, error)
}

// NewCapability returns Supported when available is true, Unsupported otherwise.
func NewCapability(available bool, opts ...reader.Option) Capability {
	if !available {
		return Unsupported{}
	}
	return NewSupported(opts...)
}

// Supported reads through whatever tag the Detector yields.
type Supported struct {
	readerOpts []reader.Option
}

// NewSupported passes opts to every Reader it builds.
func NewSupported(opts ...reader.Option) *Supported {
	return &Supported{readerOpts: opts}
}

func (*Supported) Available() bool { return true }

func (s *Supported) ReadBirthDate(ctx context.Context, d Detector) (domain.CalendarDate, error) {
	if d == nil {
		return domain.CalendarDate{}, reader.NewError(reader.KindTagNotFound, "detect", nil)
	}
	tags, err := d.Detect(ctx)
	if err != nil {
		return domain.CalendarDate{}, reader.NewError(reader.KindCommunication, "detect", err)
	}
	if len(tags) == 0 {
		return domain.CalendarDate{}, reader.NewError(reader.KindTagNotFound, "detect", nil)
	}

	tag := tags[0]
	if tag.Type() != TagISO7816 {
		return domain.CalendarDate{}, reader.NewError(reader.KindUnsupportedCard, "detect",
			fmt.Errorf("tag type %q", tag.Type()))
	}

	tx, err := tag.Connect(ctx)
	if err != nil {
		return domain.CalendarDate{}, reader.NewError(reader.KindCommunication, "connect", err)
	}
	return reader.New(tx, s.readerOpts...).ReadBirthDate(ctx)
}

// Unsupported resolves every read to not_supported without touching the Detector.
type Unsupported struct{}

func (Unsupported) Available() bool { return false }

func (Unsupported) ReadBirthDate(context.Context, Detector) (domain.CalendarDate, error) {
	return domain.CalendarDate{}, reader.NewError(reader.KindNotSupported, "detect", nil)
}

var (
	_ Capability = (*Supported)(nil)
	_ Capability = Unsupported{}
)
