package session

//go:generate mockgen -source=tag.go -destination=mocks/tag_mock.go -package=mocks Tag,Detector

import (
	"context"

	"inro/internal/card/reader"
)

// TagType is the contactless technology a detected tag reported.
type TagType string

const (
	TagISO7816  TagType = "iso7816"
	TagFeliCa   TagType = "felica"
	TagMiFare   TagType = "mifare"
	TagISO15693 TagType = "iso15693"
)

// Tag is a card in the field. Only ISO 7816 tags carry the JPKI application.
type Tag interface {
	Type() TagType
	// Connect opens the APDU channel. It is called at most once per session.
	Connect(ctx context.Context) (reader.Transmitter, error)
}

// Detector polls for tags. An empty slice with a nil error means the field
// was empty when polling ended.
type Detector interface {
	Detect(ctx context.Context) ([]Tag, error)
}
