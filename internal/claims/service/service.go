// Package service implements the claim resolver: submission against a
// verified stake, the challenge window, and one-shot adjudication that
// slashes and routes collateral.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"bondline/internal/authz"
	"bondline/internal/claims/models"
	"bondline/internal/custody"
	"bondline/internal/events"
	"bondline/internal/identity"
	"bondline/internal/ledger"
	"bondline/internal/platform/metrics"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/platform/tx"
	"bondline/pkg/requestcontext"
)

// Store persists claims and the settlement totals.
type Store interface {
	NextSequence(ctx context.Context) (uint64, error)
	Create(ctx context.Context, c *models.Claim) error
	FindByID(ctx context.Context, id domain.ClaimID) (*models.Claim, error)
	Update(ctx context.Context, c *models.Claim) error
	ListByTarget(ctx context.Context, target domain.IdentityID) ([]*models.Claim, error)
	Totals(ctx context.Context) (models.Totals, error)
	UpdateTotals(ctx context.Context, change func(*models.Totals) error) error
}

// StakeLedger is the slice of the stake ledger the resolver may touch.
type StakeLedger interface {
	IsVerified(ctx context.Context, id domain.IdentityID) (bool, error)
	Slash(ctx context.Context, id domain.IdentityID, amount domain.Amount) (domain.Amount, error)
}

// Service is the claim resolver.
type Service struct {
	claims     Store
	stakes     StakeLedger
	registry   identity.Registry
	authorizer authz.Authorizer
	vault      custody.Vault
	runner     tx.Runner
	cfg        ledger.Config
	clock      clock.Clock
	logger     *slog.Logger
	publisher  events.Publisher
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// New constructs the claim resolver.
func New(
	claims Store,
	stakes StakeLedger,
	registry identity.Registry,
	authorizer authz.Authorizer,
	vault custody.Vault,
	runner tx.Runner,
	cfg ledger.Config,
	opts ...Option,
) *Service {
	s := &Service{
		claims:     claims,
		stakes:     stakes,
		registry:   registry,
		authorizer: authorizer,
		vault:      vault,
		runner:     runner,
		cfg:        cfg,
		clock:      clock.New(),
		tracer:     otel.Tracer("bondline/claims"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a claim by the caller against a verified target stake.
func (s *Service) Submit(ctx context.Context, target domain.IdentityID, amount domain.Amount, reason string) (_ *models.Claim, err error) {
	ctx, span := s.tracer.Start(ctx, "claims.Submit", trace.WithAttributes(ledger.IdentityAttr(target), ledger.AmountAttr(amount)))
	defer func(start time.Time) {
		ledger.EndSpan(span, err)
		s.metrics.ObserveOperation("submit_claim", start, err)
	}(time.Now())

	claimant := requestcontext.Caller(ctx)
	if claimant.IsZero() {
		return nil, ledger.Reject(ledger.ErrUnauthorized, "claims require an authenticated claimant")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if utf8.RuneCountInString(reason) > s.cfg.MaxReasonLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("reason exceeds %d characters", s.cfg.MaxReasonLength))
	}

	var claim *models.Claim
	err = s.runner.RunInTx(ctx, ledger.IdentityKey(target), func(ctx context.Context) error {
		ident, err := identity.Resolve(ctx, s.registry, target)
		if err != nil {
			return err
		}
		verified, err := s.stakes.IsVerified(ctx, target)
		if err != nil {
			return err
		}
		if !verified {
			return ledger.Reject(ledger.ErrNotVerified, "target has no verified stake")
		}
		if amount.IsZero() {
			return ledger.Reject(ledger.ErrInvalidAmount, "claim amount must be positive")
		}
		if ident.Owner == claimant {
			return ledger.Reject(ledger.ErrUnauthorized, "an identity cannot file a claim against itself")
		}

		seq, err := s.claims.NextSequence(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate claim sequence")
		}
		now := s.clock.Now().UTC()
		claim = &models.Claim{
			ID:                models.DeriveID(seq, target, claimant, now),
			Sequence:          seq,
			Target:            target,
			Claimant:          claimant,
			AmountRequested:   amount,
			Reason:            reason,
			SubmittedAt:       now,
			Status:            models.StatusPending,
			ChallengeDeadline: now.Add(s.cfg.ChallengePeriod),
		}
		if err := s.claims.Create(ctx, claim); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record claim")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ledger.LogAudit(ctx, s.logger, string(events.ClaimSubmitted),
		"claim_id", claim.ID, "target_identity", target, "claimant", claimant, "amount", amount)
	ev := events.New(events.ClaimSubmitted, target, claim.SubmittedAt)
	ev.ClaimID = claim.ID
	ev.Amount = amount
	ledger.Emit(ctx, s.logger, s.publisher,
		ev.With("challenge_deadline", claim.ChallengeDeadline.Format(time.RFC3339)).With("reason", claim.Reason))
	return claim, nil
}

// Challenge lets the target's current controller contest a pending claim
// while its window is open.
func (s *Service) Challenge(ctx context.Context, id domain.ClaimID) (_ *models.Claim, err error) {
	ctx, span := s.tracer.Start(ctx, "claims.Challenge", trace.WithAttributes(ledger.ClaimAttr(id)))
	defer func(start time.Time) {
		ledger.EndSpan(span, err)
		s.metrics.ObserveOperation("challenge_claim", start, err)
	}(time.Now())

	var claim *models.Claim
	err = s.withClaim(ctx, id, func(ctx context.Context, c *models.Claim) error {
		if c.Status != models.StatusPending {
			return ledger.Reject(ledger.ErrClaimNotPending, fmt.Sprintf("claim is %s", c.Status))
		}
		now := s.clock.Now().UTC()
		if !c.WindowOpen(now) {
			return ledger.Reject(ledger.ErrChallengeWindowClosed, "challenge window has elapsed")
		}
		ident, err := identity.Resolve(ctx, s.registry, c.Target)
		if err != nil {
			return err
		}
		if err := identity.RequireOwner(ident, requestcontext.Caller(ctx)); err != nil {
			return err
		}
		c.Status = models.StatusChallenged
		c.ChallengedAt = &now
		if err := s.claims.Update(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim")
		}
		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	ledger.LogAudit(ctx, s.logger, string(events.ClaimChallenged), "claim_id", id, "target_identity", claim.Target)
	ev := events.New(events.ClaimChallenged, claim.Target, *claim.ChallengedAt)
	ev.ClaimID = id
	ledger.Emit(ctx, s.logger, s.publisher, ev)
	return claim, nil
}

// Resolve records the adjudicator's verdict. An approved claim slashes up to
// the requested amount from the target's current balance and pays the
// claimant net of the protocol fee. A claim resolves exactly once.
func (s *Service) Resolve(ctx context.Context, id domain.ClaimID, approved bool) (_ *models.Claim, err error) {
	ctx, span := s.tracer.Start(ctx, "claims.Resolve", trace.WithAttributes(ledger.ClaimAttr(id)))
	defer func(start time.Time) {
		ledger.EndSpan(span, err)
		s.metrics.ObserveOperation("resolve_claim", start, err)
	}(time.Now())

	if err := authz.Require(ctx, s.authorizer, authz.RoleAdjudicator); err != nil {
		return nil, err
	}
	adjudicator := requestcontext.Caller(ctx)

	var (
		claim      *models.Claim
		settlement models.Settlement
	)
	err = s.withClaim(ctx, id, func(ctx context.Context, c *models.Claim) error {
		if c.Status.IsTerminal() {
			return ledger.Reject(ledger.ErrClaimAlreadyResolved, fmt.Sprintf("claim was %s", c.Status))
		}
		now := s.clock.Now().UTC()
		if c.Status == models.StatusPending && c.WindowOpen(now) && !s.cfg.WaiveChallengeWindow {
			return ledger.Reject(ledger.ErrChallengeWindowOpen,
				fmt.Sprintf("challenge window closes at %s", c.ChallengeDeadline.Format(time.RFC3339)))
		}

		c.ResolvedAt = &now
		c.ResolvedBy = adjudicator
		if !approved {
			c.Status = models.StatusRejected
		} else {
			slashed, err := s.stakes.Slash(ctx, c.Target, c.AmountRequested)
			if err != nil {
				return err
			}
			settlement = models.Settle(slashed, s.cfg.FeeBPS, ledger.MaxFeeBPS)
			c.Status = models.StatusApproved
			c.SlashedAmount = settlement.Slashed
			c.Fee = settlement.Fee
			c.Payout = settlement.Payout
		}
		if err := s.claims.Update(ctx, c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim")
		}
		if err := s.addTotals(ctx, c); err != nil {
			return err
		}
		claim = c
		err := custody.Apply(ctx, s.vault,
			custody.Disburse(c.Claimant, settlement.Payout),
			custody.Disburse(s.cfg.FeeSink, settlement.Fee),
		)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to route slashed collateral")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterResolve(ctx, claim)
	return claim, nil
}

// Get returns one claim.
func (s *Service) Get(ctx context.Context, id domain.ClaimID) (*models.Claim, error) {
	c, err := s.claims.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, ledger.Reject(ledger.ErrClaimNotFound, fmt.Sprintf("claim %s", id))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claim")
	}
	return c, nil
}

// ListByTarget returns every claim filed against target in submission order.
func (s *Service) ListByTarget(ctx context.Context, target domain.IdentityID) ([]*models.Claim, error) {
	if _, err := identity.Resolve(ctx, s.registry, target); err != nil {
		return nil, err
	}
	out, err := s.claims.ListByTarget(ctx, target)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claims")
	}
	return out, nil
}

// Totals returns settlement aggregates.
func (s *Service) Totals(ctx context.Context) (models.Totals, error) {
	t, err := s.claims.Totals(ctx)
	if err != nil {
		return models.Totals{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read claim totals")
	}
	return t, nil
}

// withClaim runs fn on a fresh copy of the claim inside the target's
// transaction so every mutation of a claim is serialized with its stake.
func (s *Service) withClaim(ctx context.Context, id domain.ClaimID, fn func(ctx context.Context, c *models.Claim) error) error {
	peek, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.runner.RunInTx(ctx, ledger.IdentityKey(peek.Target), func(ctx context.Context) error {
		c, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, c)
	})
}

func (s *Service) addTotals(ctx context.Context, c *models.Claim) error {
	var overflow error
	err := s.claims.UpdateTotals(ctx, func(t *models.Totals) error {
		if c.Status == models.StatusRejected {
			t.Rejected++
			return nil
		}
		t.Approved++
		var err error
		if t.TotalSlashed, err = t.TotalSlashed.Add(c.SlashedAmount); err == nil {
			if t.TotalFees, err = t.TotalFees.Add(c.Fee); err == nil {
				t.TotalPayouts, err = t.TotalPayouts.Add(c.Payout)
			}
		}
		overflow = err
		return err
	})
	if overflow != nil {
		return dErrors.Wrap(overflow, dErrors.CodeInvariantViolation, "claim totals overflow")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim totals")
	}
	return nil
}

func (s *Service) afterResolve(ctx context.Context, c *models.Claim) {
	ledger.LogAudit(ctx, s.logger, string(events.ClaimResolved),
		"claim_id", c.ID, "target_identity", c.Target, "status", c.Status,
		"slashed", c.SlashedAmount, "fee", c.Fee, "payout", c.Payout)
	s.metrics.IncrementClaimResolved(string(c.Status))

	var evs []events.Event
	if !c.SlashedAmount.IsZero() {
		s.metrics.RecordSlash(uint64(c.SlashedAmount), uint64(c.Fee))
		slashed := events.New(events.StakeSlashed, c.Target, *c.ResolvedAt)
		slashed.ClaimID = c.ID
		slashed.Amount = c.SlashedAmount
		evs = append(evs, slashed.With("requested", c.AmountRequested.String()))
	}
	resolved := events.New(events.ClaimResolved, c.Target, *c.ResolvedAt)
	resolved.ClaimID = c.ID
	resolved.Amount = c.SlashedAmount
	evs = append(evs, resolved.
		With("status", string(c.Status)).
		With("fee", c.Fee.String()).
		With("payout", c.Payout.String()).
		With("claimant", c.Claimant.String()))
	ledger.Emit(ctx, s.logger, s.publisher, evs...)
}
