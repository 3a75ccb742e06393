package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bondline/internal/stake/models"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/httputil"
	"bondline/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the stake ledger operations exposed over HTTP.
type Service interface {
	Stake(ctx context.Context, id domain.IdentityID, amount domain.Amount) (*models.StakeRecord, error)
	RequestUnstake(ctx context.Context, id domain.IdentityID) (*models.StakeRecord, error)
	Unstake(ctx context.Context, id domain.IdentityID, amount domain.Amount) (*models.StakeRecord, error)
	Get(ctx context.Context, id domain.IdentityID) (*models.StakeRecord, error)
}

// Handler wires stake endpoints to the stake ledger.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts stake endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/identities/{id}/stake", h.HandleStake)
	r.Post("/v1/identities/{id}/unstake/request", h.HandleRequestUnstake)
	r.Post("/v1/identities/{id}/unstake", h.HandleUnstake)
	r.Get("/v1/identities/{id}/stake", h.HandleGet)
}

// HandleStake handles POST /v1/identities/{id}/stake.
func (h *Handler) HandleStake(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "stake", func(ctx context.Context, id domain.IdentityID, req *AmountRequest) (*models.StakeRecord, error) {
		return h.service.Stake(ctx, id, req.Amount)
	})
}

// HandleUnstake handles POST /v1/identities/{id}/unstake.
func (h *Handler) HandleUnstake(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "unstake", func(ctx context.Context, id domain.IdentityID, req *AmountRequest) (*models.StakeRecord, error) {
		return h.service.Unstake(ctx, id, req.Amount)
	})
}

// HandleRequestUnstake handles POST /v1/identities/{id}/unstake/request.
func (h *Handler) HandleRequestUnstake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.authorizedIdentity(w, r)
	if !ok {
		return
	}
	rec, err := h.service.RequestUnstake(ctx, id)
	if err != nil {
		h.logFailure(ctx, "request_unstake", id, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleGet handles GET /v1/identities/{id}/stake.
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
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func (h *Handler) mutate(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	call func(context.Context, domain.IdentityID, *AmountRequest) (*models.StakeRecord, error),
) {
	ctx := r.Context()
	id, ok := h.authorizedIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AmountRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := call(ctx, id, req)
	if err != nil {
		h.logFailure(ctx, op, id, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func (h *Handler) authorizedIdentity(w http.ResponseWriter, r *http.Request) (domain.IdentityID, bool) {
	if requestcontext.Caller(r.Context()).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return 0, false
	}
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) logFailure(ctx context.Context, op string, id domain.IdentityID, err error) {
	h.logger.WarnContext(ctx, "stake operation rejected",
		"operation", op,
		"identity_id", id,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
