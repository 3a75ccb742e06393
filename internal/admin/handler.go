// Package admin exposes registry maintenance and ledger reconciliation to
// operators holding the admin role.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	claimsmodels "bondline/internal/claims/models"
	"bondline/internal/identity"
	"bondline/internal/ledger"
	stakemodels "bondline/internal/stake/models"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/httputil"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks IdentityRegistry,StakeReconciler,ClaimTotals

// IdentityRegistry is the writable side of the identity registry.
type IdentityRegistry interface {
	Register(ctx context.Context, owner domain.Address) (*identity.Identity, error)
	Transfer(ctx context.Context, id domain.IdentityID, owner domain.Address) (*identity.Identity, error)
	SetStatus(ctx context.Context, id domain.IdentityID, status identity.Status) (*identity.Identity, error)
}

// StakeReconciler compares stake records with custody.
type StakeReconciler interface {
	Reconcile(ctx context.Context) (*stakemodels.Reconciliation, error)
}

// ClaimTotals reports claim resolution counters.
type ClaimTotals interface {
	Totals(ctx context.Context) (claimsmodels.Totals, error)
}

type Handler struct {
	registry IdentityRegistry
	stake    StakeReconciler
	claims   ClaimTotals
	logger   *slog.Logger
}

func New(registry IdentityRegistry, stake StakeReconciler, claims ClaimTotals, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, stake: stake, claims: claims, logger: logger}
}

// Register mounts admin endpoints. Callers are expected to gate the router
// with the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/identities", h.HandleRegisterIdentity)
	r.Post("/admin/identities/{id}/transfer", h.HandleTransfer)
	r.Post("/admin/identities/{id}/status", h.HandleSetStatus)
	r.Get("/admin/ledger/reconcile", h.HandleReconcile)
}

// HandleRegisterIdentity handles POST /admin/identities.
func (h *Handler) HandleRegisterIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[OwnerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ident, err := h.registry.Register(ctx, req.owner)
	if err != nil {
		h.fail(ctx, w, "register identity", err)
		return
	}
	ledger.LogAudit(ctx, h.logger, "identity_registered",
		"identity_id", ident.ID,
		"owner", ident.Owner,
	)
	httputil.WriteJSON(w, http.StatusCreated, toIdentityResponse(ident))
}

// HandleTransfer handles POST /admin/identities/{id}/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[OwnerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ident, err := h.registry.Transfer(ctx, id, req.owner)
	if err != nil {
		h.fail(ctx, w, "transfer identity", registryError(id, err))
		return
	}
	ledger.LogAudit(ctx, h.logger, "identity_transferred",
		"identity_id", ident.ID,
		"owner", ident.Owner,
	)
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(ident))
}

// HandleSetStatus handles POST /admin/identities/{id}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ident, err := h.registry.SetStatus(ctx, id, req.status)
	if err != nil {
		h.fail(ctx, w, "set identity status", registryError(id, err))
		return
	}
	ledger.LogAudit(ctx, h.logger, "identity_status_changed",
		"identity_id", ident.ID,
		"status", ident.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(ident))
}

// HandleReconcile handles GET /admin/ledger/reconcile.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.stake.Reconcile(ctx)
	if err != nil {
		h.fail(ctx, w, "reconcile stake", err)
		return
	}
	totals, err := h.claims.Totals(ctx)
	if err != nil {
		h.fail(ctx, w, "read claim totals", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ReconcileResponse{Stake: rec, Claims: totals})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.WarnContext(ctx, op+" failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func registryError(id domain.IdentityID, err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return ledger.Reject(ledger.ErrIdentityNotFound, fmt.Sprintf("identity %s", id))
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "identity registry failed")
}
