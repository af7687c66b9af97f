package handler

import (
	"fmt"
	"strings"

	"inro/internal/card/reader"
	"inro/internal/card/relay"
	"inro/internal/card/session"
	"inro/internal/verification/models"
	"inro/pkg/domain"
	dErrors "inro/pkg/domain-errors"
	"inro/pkg/platform/validation"
	pkgvalidation "inro/pkg/validation"
)

// TagNone is the tag_type a client sends when its poll found nothing.
const TagNone = "none"

// BirthDateRequest asks for a verification of a manually entered birth date.
type BirthDateRequest struct {
	BirthDate string `json:"birth_date" validate:"required,datetime=2006-01-02"`
}

// Sanitize trims surrounding whitespace.
func (r *BirthDateRequest) Sanitize() {
	if r == nil {
		return
	}
	r.BirthDate = strings.TrimSpace(r.BirthDate)
}

// Validate checks that the request is well-formed.
func (r *BirthDateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("birth_date", r.BirthDate, validation.MaxDateLength); err != nil {
		return err
	}
	return pkgvalidation.Validate(r)
}

// ToBirthDate parses the date as an Asia/Tokyo civil date.
func (r *BirthDateRequest) ToBirthDate() (domain.CalendarDate, error) {
	return domain.ParseCalendarDate(r.BirthDate, reader.Location)
}

// ExchangeRequest is one APDU round trip as hex strings.
type ExchangeRequest struct {
	Command  string `json:"command" validate:"required,apduhex"`
	Response string `json:"response" validate:"required,apduhex"`
}

// CardRequest carries the transcript a client recorded while acting as the
// reader's NFC pipe.
type CardRequest struct {
	TagType   string            `json:"tag_type" validate:"required,oneof=iso7816 felica mifare iso15693 none"`
	Exchanges []ExchangeRequest `json:"exchanges" validate:"dive"`
}

// Normalize lowercases the tag type.
func (r *CardRequest) Normalize() {
	if r == nil {
		return
	}
	r.TagType = strings.ToLower(strings.TrimSpace(r.TagType))
}

// Validate enforces size limits before field rules.
func (r *CardRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	// Phase 1: Size validation
	if err := validation.CheckSliceCount("exchanges", len(r.Exchanges), validation.MaxExchanges); err != nil {
		return err
	}
	commands := make([]string, len(r.Exchanges))
	responses := make([]string, len(r.Exchanges))
	for i, ex := range r.Exchanges {
		commands[i], responses[i] = ex.Command, ex.Response
	}
	if err := validation.CheckEachStringLength("command", commands, validation.MaxAPDUHexLength); err != nil {
		return err
	}
	if err := validation.CheckEachStringLength("response", responses, validation.MaxAPDUHexLength); err != nil {
		return err
	}
	// Phase 2: Required fields and syntax
	if r.TagType != TagNone && len(r.Exchanges) == 0 {
		return dErrors.New(dErrors.CodeValidation, "exchanges are required when a tag was detected")
	}
	return pkgvalidation.Validate(r)
}

// ToCardRequest decodes the hex transcript.
func (r *CardRequest) ToCardRequest() (models.CardRequest, error) {
	out := models.CardRequest{Exchanges: make([]relay.Exchange, 0, len(r.Exchanges))}
	if r.TagType != TagNone {
		out.TagType = session.TagType(r.TagType)
	}
	for i, ex := range r.Exchanges {
		decoded, err := relay.DecodeHex(ex.Command, ex.Response)
		if err != nil {
			return models.CardRequest{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("exchanges[%d] is not a valid APDU pair", i))
		}
		out.Exchanges = append(out.Exchanges, decoded)
	}
	return out, nil
}

// AttestationVerifyRequest presents a token for checking.
type AttestationVerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

func (r *AttestationVerifyRequest) Sanitize() {
	if r == nil {
		return
	}
	r.Token = strings.TrimSpace(r.Token)
}

func (r *AttestationVerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validation.CheckStringLength("token", r.Token, validation.MaxTokenLength); err != nil {
		return err
	}
	return pkgvalidation.Validate(r)
}
