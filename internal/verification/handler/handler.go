package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inro/internal/verification/models"
	"inro/pkg/domain"
	"inro/pkg/platform/httputil"
	"inro/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

// Service defines the interface for verification operations.
type Service interface {
	VerifyBirthDate(ctx context.Context, birth domain.CalendarDate) (*models.Result, error)
	VerifyCard(ctx context.Context, req models.CardRequest) (*models.Result, error)
	VerifyAttestation(ctx context.Context, token string) (*models.AttestationClaims, error)
	Capabilities() models.Capabilities
}

// Handler handles verification endpoints.
type Handler struct {
	logger       *slog.Logger
	verification Service
}

// New creates a new verification Handler.
func New(verification Service, logger *slog.Logger) *Handler {
	if verification == nil {
		panic("handler.New: verification service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:       logger,
		verification: verification,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/capabilities", h.HandleCapabilities)
	r.Post("/v1/verifications/birth-date", h.HandleVerifyBirthDate)
	r.Post("/v1/verifications/card", h.HandleVerifyCard)
	r.Post("/v1/attestations/verify", h.HandleVerifyAttestation)
}

// HandleCapabilities tells clients whether to offer a card read.
func (h *Handler) HandleCapabilities(w http.ResponseWriter, _ *http.Request) {
	caps := h.verification.Capabilities()
	httputil.WriteJSON(w, http.StatusOK, CapabilitiesResponse{
		NFCAvailable:        caps.NFCAvailable,
		MinimumAge:          caps.MinimumAge,
		AlertMessage:        caps.AlertMessage,
		AttestationsEnabled: caps.AttestationsEnabled,
	})
}

func (h *Handler) HandleVerifyBirthDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BirthDateRequest](w, r, h.logger)
	if !ok {
		return
	}
	birth, err := req.ToBirthDate()
	if err != nil {
		h.logger.WarnContext(ctx, "invalid birth date",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.verification.VerifyBirthDate(ctx, birth)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify birth date",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(res))
}

// HandleVerifyCard replays a relayed APDU transcript. Card failures are
// reported with their reader kind in the error field.
func (h *Handler) HandleVerifyCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CardRequest](w, r, h.logger)
	if !ok {
		return
	}
	cardReq, err := req.ToCardRequest()
	if err != nil {
		h.logger.WarnContext(ctx, "invalid card transcript",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.verification.VerifyCard(ctx, cardReq)
	if err != nil {
		h.logger.WarnContext(ctx, "card verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(res))
}

func (h *Handler) HandleVerifyAttestation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[AttestationVerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	claims, err := h.verification.VerifyAttestation(ctx, req.Token)
	if err != nil {
		h.logger.WarnContext(ctx, "attestation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimsResponse(claims))
}
