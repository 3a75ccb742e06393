package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bondline/internal/claims/models"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/httputil"
	"bondline/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the claim resolver operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, target domain.IdentityID, amount domain.Amount, reason string) (*models.Claim, error)
	Challenge(ctx context.Context, id domain.ClaimID) (*models.Claim, error)
	Resolve(ctx context.Context, id domain.ClaimID, approved bool) (*models.Claim, error)
	Get(ctx context.Context, id domain.ClaimID) (*models.Claim, error)
	ListByTarget(ctx context.Context, target domain.IdentityID) ([]*models.Claim, error)
}

// Handler wires claim endpoints to the claim resolver.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts claim endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/claims", h.HandleSubmit)
	r.Get("/v1/claims/{claimID}", h.HandleGet)
	r.Post("/v1/claims/{claimID}/challenge", h.HandleChallenge)
	r.Post("/v1/claims/{claimID}/resolve", h.HandleResolve)
	r.Get("/v1/identities/{id}/claims", h.HandleListByTarget)
}

// HandleSubmit handles POST /v1/claims.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireCaller(w, ctx) {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claim, err := h.service.Submit(ctx, req.TargetIdentity, req.Amount, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "claim submission rejected",
			"target_identity", req.TargetIdentity,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, claim)
}

// HandleGet handles GET /v1/claims/{claimID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claim, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleChallenge handles POST /v1/claims/{claimID}/challenge.
func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireCaller(w, ctx) {
		return
	}
	id, err := domain.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claim, err := h.service.Challenge(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "claim challenge rejected",
			"claim_id", id,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleResolve handles POST /v1/claims/{claimID}/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireCaller(w, ctx) {
		return
	}
	id, err := domain.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claim, err := h.service.Resolve(ctx, id, *req.Approved)
	if err != nil {
		h.logger.WarnContext(ctx, "claim resolution rejected",
			"claim_id", id,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleListByTarget handles GET /v1/identities/{id}/claims.
func (h *Handler) HandleListByTarget(w http.ResponseWriter, r *http.Request) {
	target, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claims, err := h.service.ListByTarget(r.Context(), target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if claims == nil {
		claims = []*models.Claim{}
	}
	httputil.WriteJSON(w, http.StatusOK, &ClaimListResponse{Claims: claims, Total: len(claims)})
}

func (h *Handler) requireCaller(w http.ResponseWriter, ctx context.Context) bool {
	if requestcontext.Caller(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	return true
}
