package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bondline/internal/reputation/models"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/httputil"
	"bondline/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the reputation ledger operations exposed over HTTP.
type Service interface {
	ApplyProof(ctx context.Context, id domain.IdentityID, proofType string, payload []byte, metadata string) (*models.ProofResult, error)
	Get(ctx context.Context, id domain.IdentityID) (*models.Record, error)
	GetTier(score uint64) models.Tier
}

// Handler wires reputation endpoints to the reputation ledger.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts reputation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/identities/{id}/proofs", h.HandleApplyProof)
	r.Get("/v1/identities/{id}/reputation", h.HandleGet)
	r.Get("/v1/tiers/{score}", h.HandleGetTier)
}

// HandleApplyProof handles POST /v1/identities/{id}/proofs.
func (h *Handler) HandleApplyProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if requestcontext.Caller(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApplyProofRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ApplyProof(ctx, id, req.ProofType, []byte(req.Payload), req.Metadata)
	if err != nil {
		h.logger.WarnContext(ctx, "proof rejected",
			"identity_id", id,
			"proof_type", req.ProofType,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleGet handles GET /v1/identities/{id}/reputation.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleGetTier handles GET /v1/tiers/{score}.
func (h *Handler) HandleGetTier(w http.ResponseWriter, r *http.Request) {
	score, err := strconv.ParseUint(chi.URLParam(r, "score"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "score must be a non-negative integer"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &TierResponse{Score: score, Tier: h.service.GetTier(score)})
}
