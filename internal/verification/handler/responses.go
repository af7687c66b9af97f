package handler

import (
	"time"

	"inro/internal/verification/models"
)

// VerificationResponse never includes the birth date.
type VerificationResponse struct {
	ID              string               `json:"id"`
	Status          string               `json:"status"`
	Reason          string               `json:"reason"`
	Age             int                  `json:"age"`
	IsBirthday      bool                 `json:"is_birthday"`
	MinimumAge      int                  `json:"minimum_age"`
	BirthDateSource string               `json:"birth_date_source"`
	ReferenceDate   string               `json:"reference_date"`
	EvaluatedAt     string               `json:"evaluated_at"`
	Attestation     *AttestationResponse `json:"attestation,omitempty"`
}

type AttestationResponse struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type AttestationClaimsResponse struct {
	Valid          bool   `json:"valid"`
	ID             string `json:"id"`
	VerificationID string `json:"verification_id"`
	AgeOver        int    `json:"age_over"`
	Source         string `json:"source"`
	Issuer         string `json:"issuer"`
	IssuedAt       string `json:"issued_at,omitempty"`
	ExpiresAt      string `json:"expires_at,omitempty"`
}

type CapabilitiesResponse struct {
	NFCAvailable        bool   `json:"nfc_available"`
	MinimumAge          int    `json:"minimum_age"`
	AlertMessage        string `json:"alert_message"`
	AttestationsEnabled bool   `json:"attestations_enabled"`
}

func toVerificationResponse(res *models.Result) *VerificationResponse {
	resp := &VerificationResponse{
		ID:              res.ID.String(),
		Status:          string(res.Status),
		Reason:          string(res.Reason),
		Age:             res.Age,
		IsBirthday:      res.IsBirthday,
		MinimumAge:      res.MinimumAge,
		BirthDateSource: res.BirthDateSource.String(),
		ReferenceDate:   res.ReferenceDate.String(),
		EvaluatedAt:     formatTime(res.EvaluatedAt),
	}
	if res.Attestation != nil {
		resp.Attestation = &AttestationResponse{
			ID:        res.Attestation.ID.String(),
			Token:     res.Attestation.Token,
			ExpiresAt: formatTime(res.Attestation.ExpiresAt),
		}
	}
	return resp
}

func toClaimsResponse(c *models.AttestationClaims) *AttestationClaimsResponse {
	return &AttestationClaimsResponse{
		Valid:          true,
		ID:             c.ID,
		VerificationID: c.VerificationID,
		AgeOver:        c.AgeOver,
		Source:         c.Source.String(),
		Issuer:         c.Issuer,
		IssuedAt:       formatTime(c.IssuedAt),
		ExpiresAt:      formatTime(c.ExpiresAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
