package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/launderly/launderly/pkg/tenant"
)

// Transition is one status change the sweep wants to apply.
type Transition struct {
	TenantID uuid.UUID
	From     tenant.SubscriptionStatus
	To       tenant.SubscriptionStatus
}

// ComputeTransitions selects the status changes due at now, as a pure
// function over a tenant snapshot:
//
//   - trialing tenants whose trial window elapsed go past_due
//   - active tenants whose billing date elapsed go past_due
//   - with a non-zero grace window, past_due tenants stuck longer than the
//     window go canceled; a zero window disables cancellation entirely
//
// No other tenant is touched. Applying the result happens separately, so the
// selection is testable without a scheduler or a real clock.
func ComputeTransitions(tenants []tenant.Tenant, now time.Time, pastDueGrace time.Duration) []Transition {
	var out []Transition
	for _, t := range tenants {
		switch {
		case t.Status == tenant.StatusTrialing && t.TrialEndsAt != nil && t.TrialEndsAt.Before(now):
			out = append(out, Transition{TenantID: t.ID, From: tenant.StatusTrialing, To: tenant.StatusPastDue})
		case t.Status == tenant.StatusActive && t.NextBillingAt != nil && t.NextBillingAt.Before(now):
			out = append(out, Transition{TenantID: t.ID, From: tenant.StatusActive, To: tenant.StatusPastDue})
		case t.Status == tenant.StatusPastDue && pastDueGrace > 0 && t.UpdatedAt.Add(pastDueGrace).Before(now):
			out = append(out, Transition{TenantID: t.ID, From: tenant.StatusPastDue, To: tenant.StatusCanceled})
		}
	}
	return out
}

// Sweeper finds and applies overdue subscription transitions.
type Sweeper struct {
	store tenant.Store
	log   *slog.Logger
	now   func() time.Time

	// pastDueGrace is how long a tenant may sit in past_due before being
	// canceled. Zero keeps past_due tenants indefinitely, pending a manual
	// decision.
	pastDueGrace time.Duration
}

// NewSweeper creates a Sweeper.
func NewSweeper(store tenant.Store, log *slog.Logger, opts ...SweeperOption) (*Sweeper, error) {
	if store == nil {
		return nil, errors.New("lifecycle: sweeper store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Sweeper{
		store: store,
		log:   log.With(slog.String("component", "sweep")),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SweeperOption customizes a Sweeper.
type SweeperOption func(*Sweeper)

// WithPastDueGrace enables cancellation of tenants stuck in past_due longer
// than the window.
func WithPastDueGrace(window time.Duration) SweeperOption {
	return func(s *Sweeper) { s.pastDueGrace = window }
}

// WithSweeperClock overrides the clock, for tests.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

// Sweep applies every overdue transition and returns how many were applied.
//
// Each transition is a conditional update keyed on the tenant's expected
// current status, so concurrent sweeps from multiple nodes converge: the
// second node's attempt matches nothing and is skipped, never re-applied.
// Every applied transition is logged individually, since moving a paying
// customer to past_due silently removes their access.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()

	candidates, err := s.store.FindLapsed(ctx, now)
	if err != nil {
		return 0, err
	}
	if s.pastDueGrace > 0 {
		stuck, err := s.store.FindPastDueSince(ctx, now.Add(-s.pastDueGrace))
		if err != nil {
			return 0, err
		}
		candidates = append(candidates, stuck...)
	}

	applied := 0
	var errs []error
	for _, tr := range ComputeTransitions(candidates, now, s.pastDueGrace) {
		err := s.store.TransitionStatus(ctx, tr.TenantID, tr.From, tr.To)
		switch {
		case errors.Is(err, tenant.ErrStaleTransition):
			// someone else moved the tenant first; converged, not an error
			s.log.DebugContext(ctx, "transition already applied elsewhere",
				slog.String("tenant_id", tr.TenantID.String()),
				slog.String("from", string(tr.From)),
				slog.String("to", string(tr.To)))
		case err != nil:
			errs = append(errs, err)
			s.log.ErrorContext(ctx, "transition failed",
				slog.String("tenant_id", tr.TenantID.String()),
				slog.String("from", string(tr.From)),
				slog.String("to", string(tr.To)),
				slog.Any("error", err))
		default:
			applied++
			s.log.InfoContext(ctx, "subscription transitioned",
				slog.String("tenant_id", tr.TenantID.String()),
				slog.String("from", string(tr.From)),
				slog.String("to", string(tr.To)),
				slog.Time("at", now))
		}
	}
	return applied, errors.Join(errs...)
}

// Run sweeps on a fixed interval until the context is canceled. One sweep
// runs immediately on start.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.ErrorContext(ctx, "sweep failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
