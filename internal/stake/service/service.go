// Package service implements the stake ledger: per-identity collateral,
// verification against the minimum stake, unstake cooldown and slashing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"bondline/internal/custody"
	"bondline/internal/events"
	"bondline/internal/identity"
	"bondline/internal/ledger"
	"bondline/internal/platform/metrics"
	"bondline/internal/stake/models"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/platform/tx"
	"bondline/pkg/requestcontext"
)

// Store persists stake records and the aggregate totals.
type Store interface {
	FindByIdentity(ctx context.Context, id domain.IdentityID) (*models.StakeRecord, error)
	Save(ctx context.Context, rec *models.StakeRecord) error
	Totals(ctx context.Context) (models.Totals, error)
	UpdateTotals(ctx context.Context, change func(*models.Totals) error) error
	Sum(ctx context.Context) (domain.Amount, int, error)
}

// Service is the stake ledger.
type Service struct {
	records   Store
	registry  identity.Registry
	vault     custody.Vault
	runner    tx.Runner
	cfg       ledger.Config
	clock     clock.Clock
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
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

// New constructs the stake ledger.
func New(records Store, registry identity.Registry, vault custody.Vault, runner tx.Runner, cfg ledger.Config, opts ...Option) *Service {
	s := &Service{
		records:  records,
		registry: registry,
		vault:    vault,
		runner:   runner,
		cfg:      cfg,
		clock:    clock.New(),
		tracer:   otel.Tracer("bondline/stake"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stake credits amount to the caller's identity and pulls the collateral
// into custody. The first stake opens the record and fixes StakedAt.
func (s *Service) Stake(ctx context.Context, id domain.IdentityID, amount domain.Amount) (_ *models.StakeRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "stake.Stake", trace.WithAttributes(ledger.IdentityAttr(id), ledger.AmountAttr(amount)))
	defer func(start time.Time) {
		ledger.EndSpan(span, err)
		s.metrics.ObserveOperation("stake", start, err)
	}(time.Now())

	var rec *models.StakeRecord
	err = s.runner.RunInTx(ctx, ledger.IdentityKey(id), func(ctx context.Context) error {
		ident, err := s.ownedIdentity(ctx, id)
		if err != nil {
			return err
		}
		if err := identity.RequireActive(ident); err != nil {
			return err
		}
		if amount.IsZero() {
			return ledger.Reject(ledger.ErrInvalidAmount, "stake amount must be positive")
		}

		now := s.clock.Now().UTC()
		rec, err = s.find(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = models.NewStakeRecord(id, now)
		}
		if err := rec.Credit(amount, s.cfg.MinimumStake, now); err != nil {
			return err
		}
		if err := s.records.Save(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save stake record")
		}
		if err := s.adjustTotals(ctx, func(t *models.Totals) error {
			next, err := t.TotalStaked.Add(amount)
			if err != nil {
				return ledger.Reject(ledger.ErrInvalidAmount, "stake would overflow ledger total")
			}
			t.TotalStaked = next
			return nil
		}); err != nil {
			return err
		}
		return transfer(custody.Apply(ctx, s.vault, custody.Collect(ident.Owner, amount)))
	})
	if err != nil {
		return nil, err
	}

	ledger.LogAudit(ctx, s.logger, string(events.StakeCredited),
		"identity_id", id, "amount", amount, "balance", rec.Amount, "verified", rec.Verified)
	s.emit(ctx, events.New(events.StakeCredited, id, rec.UpdatedAt), amount, rec)
	s.recordTotals(ctx)
	return rec, nil
}

// RequestUnstake starts the withdrawal cooldown for a verified identity.
// Repeated requests keep the original timestamp.
func (s *Service) RequestUnstake(ctx context.Context, id domain.IdentityID) (_ *models.StakeRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "stake.RequestUnstake", trace.WithAttributes(ledger.IdentityAttr(id)))
	defer func(start time.Time) {
		ledger.EndSpan(span, err)
		s.metrics.ObserveOperation("request_unstake", start, err)
	}(time.Now())

	var (
		rec     *models.StakeRecord
		created bool
	)
	err = s.runner.RunInTx(ctx, ledger.IdentityKey(id), func(ctx context.Context) error {
		if _, err := s.ownedIdentity(ctx, id); err != nil {
			return err
		}
		var err error
		rec, err = s.find(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil || !rec.Verified {
			return ledger.Reject(ledger.ErrNotVerified, "only verified stakes have a cooldown to request")
		}
		if rec.UnstakeRequestedAt != nil {
			return nil
		}
		now := s.clock.Now().UTC()
		rec.UnstakeRequestedAt = &now
		rec.UpdatedAt = now
		if err := s.records.Save(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save stake record")
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		ledger.LogAudit(ctx, s.logger, string(events.StakeUnstakeRequested),
			"identity_id", id, "requested_at", *rec.UnstakeRequestedAt)
		s.emit(ctx, events.New(events.StakeUnstakeRequested, id, rec.UpdatedAt), 0, rec)
	}
	return rec, nil
}

// Unstake withdraws amount to the identity's current wallet. Verified
// positions must have served the cooldown; unverified ones withdraw freely.
func (s *Service) Unstake(ctx context.Context, id domain.IdentityID, amount domain.Amount) (_ *models.StakeRecord, err error) {
	ctx, span := s.tracer.Start(ctx, "stake.Unstake", trace.WithAttributes(ledger.IdentityAttr(id), ledger.AmountAttr(amount)))
	defer func(start time.Time) {
		ledger.EndSpan(span, err)
		s.metrics.ObserveOperation("unstake", start, err)
	}(time.Now())

	var rec *models.StakeRecord
	err = s.runner.RunInTx(ctx, ledger.IdentityKey(id), func(ctx context.Context) error {
		ident, err := s.ownedIdentity(ctx, id)
		if err != nil {
			return err
		}
		if amount.IsZero() {
			return ledger.Reject(ledger.ErrInvalidAmount, "unstake amount must be positive")
		}
		rec, err = s.find(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil || amount > rec.Amount {
			return ledger.Reject(ledger.ErrInsufficientBalance, "amount exceeds staked balance")
		}

		now := s.clock.Now().UTC()
		if rec.Verified {
			endsAt, ok := rec.CooldownEndsAt(s.cfg.CooldownReference, s.cfg.CooldownPeriod)
			if !ok {
				return ledger.Reject(ledger.ErrCooldownActive, "unstake must be requested before withdrawal")
			}
			if now.Before(endsAt) {
				return ledger.Reject(ledger.ErrCooldownActive, fmt.Sprintf("cooldown ends at %s", endsAt.Format(time.RFC3339)))
			}
		}

		if err := rec.Debit(amount, s.cfg.MinimumStake, now); err != nil {
			return err
		}
		if err := s.records.Save(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save stake record")
		}
		if err := s.adjustTotals(ctx, func(t *models.Totals) error {
			next, err := t.TotalStaked.Sub(amount)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "ledger total below record balance")
			}
			t.TotalStaked = next
			return nil
		}); err != nil {
			return err
		}
		return transfer(custody.Apply(ctx, s.vault, custody.Disburse(ident.Owner, amount)))
	})
	if err != nil {
		return nil, err
	}

	ledger.LogAudit(ctx, s.logger, string(events.StakeDebited),
		"identity_id", id, "amount", amount, "balance", rec.Amount, "verified", rec.Verified)
	s.emit(ctx, events.New(events.StakeDebited, id, rec.UpdatedAt), amount, rec)
	s.recordTotals(ctx)
	return rec, nil
}

// Slash debits up to amount from id and returns what was taken. The
// collateral stays in custody for the caller to route. Callers run Slash
// inside their own transaction on the same identity key and publish the
// resulting events themselves once that transaction commits.
func (s *Service) Slash(ctx context.Context, id domain.IdentityID, amount domain.Amount) (slashed domain.Amount, err error) {
	ctx, span := s.tracer.Start(ctx, "stake.Slash", trace.WithAttributes(ledger.IdentityAttr(id), ledger.AmountAttr(amount)))
	defer func(start time.Time) {
		ledger.EndSpan(span, err)
		s.metrics.ObserveOperation("slash", start, err)
	}(time.Now())

	err = s.runner.RunInTx(ctx, ledger.IdentityKey(id), func(ctx context.Context) error {
		rec, err := s.find(ctx, id)
		if err != nil || rec == nil || amount.IsZero() {
			return err
		}
		slashed = rec.Slash(amount, s.cfg.MinimumStake, s.clock.Now().UTC())
		if slashed.IsZero() {
			return nil
		}
		if err := s.records.Save(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save stake record")
		}
		return s.adjustTotals(ctx, func(t *models.Totals) error {
			staked, err := t.TotalStaked.Sub(slashed)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "ledger total below record balance")
			}
			total, err := t.TotalSlashed.Add(slashed)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "slashed total overflow")
			}
			t.TotalStaked, t.TotalSlashed = staked, total
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return slashed, nil
}

// Get returns the stake record for id. Known identities that never staked
// report an empty, unverified position.
func (s *Service) Get(ctx context.Context, id domain.IdentityID) (*models.StakeRecord, error) {
	if _, err := identity.Resolve(ctx, s.registry, id); err != nil {
		return nil, err
	}
	rec, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &models.StakeRecord{IdentityID: id}, nil
	}
	return rec, nil
}

// IsVerified reports whether id currently meets the minimum stake.
func (s *Service) IsVerified(ctx context.Context, id domain.IdentityID) (bool, error) {
	rec, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.Verified, nil
}

// Totals returns the aggregate counters.
func (s *Service) Totals(ctx context.Context) (models.Totals, error) {
	t, err := s.records.Totals(ctx)
	if err != nil {
		return models.Totals{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger totals")
	}
	return t, nil
}

// Reconcile checks that the sum of all records, the aggregate total and the
// vault's custody balance agree.
func (s *Service) Reconcile(ctx context.Context) (*models.Reconciliation, error) {
	sum, count, err := s.records.Sum(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum stake records")
	}
	totals, err := s.Totals(ctx)
	if err != nil {
		return nil, err
	}
	vaultBalance, err := s.vault.Balance(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read vault balance")
	}

	out := &models.Reconciliation{
		SumOfRecords: sum,
		TotalStaked:  totals.TotalStaked,
		TotalSlashed: totals.TotalSlashed,
		VaultBalance: vaultBalance,
		RecordCount:  count,
	}
	if sum != totals.TotalStaked {
		out.Discrepancies = append(out.Discrepancies,
			fmt.Sprintf("sum of records %s != total staked %s", sum, totals.TotalStaked))
	}
	if vaultBalance != totals.TotalStaked {
		out.Discrepancies = append(out.Discrepancies,
			fmt.Sprintf("vault balance %s != total staked %s", vaultBalance, totals.TotalStaked))
	}
	out.Balanced = len(out.Discrepancies) == 0
	if !out.Balanced && s.logger != nil {
		s.logger.ErrorContext(ctx, "ledger reconciliation failed", "discrepancies", out.Discrepancies)
	}
	return out, nil
}

func (s *Service) ownedIdentity(ctx context.Context, id domain.IdentityID) (*identity.Identity, error) {
	ident, err := identity.Resolve(ctx, s.registry, id)
	if err != nil {
		return nil, err
	}
	if err := identity.RequireOwner(ident, requestcontext.Caller(ctx)); err != nil {
		return nil, err
	}
	return ident, nil
}

// find returns nil without error when id has no record yet.
func (s *Service) find(ctx context.Context, id domain.IdentityID) (*models.StakeRecord, error) {
	rec, err := s.records.FindByIdentity(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load stake record")
	}
	return rec, nil
}

// adjustTotals changes the ledger-wide totals in one store call. The identity
// lock held by the caller does not cover them.
func (s *Service) adjustTotals(ctx context.Context, apply func(*models.Totals) error) error {
	var applyErr error
	err := s.records.UpdateTotals(ctx, func(t *models.Totals) error {
		applyErr = apply(t)
		return applyErr
	})
	if applyErr != nil {
		return applyErr
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update ledger totals")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, ev events.Event, amount domain.Amount, rec *models.StakeRecord) {
	ev.Amount = amount
	ev = ev.With("balance", rec.Amount.String()).With("verified", fmt.Sprint(rec.Verified))
	ledger.Emit(ctx, s.logger, s.publisher, ev)
}

func (s *Service) recordTotals(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if t, err := s.records.Totals(ctx); err == nil {
		s.metrics.SetTotalStaked(uint64(t.TotalStaked))
	}
}

// transfer classifies custody failures. A wallet short of tokens is a
// conflict the caller can fix; anything else is internal.
func transfer(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, custody.ErrInsufficientFunds) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "collateral transfer failed")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "collateral transfer failed")
}
