// Package lockout tracks failed local-unlock attempts and computes the
// escalating cool-down windows applied to them. State is persisted as
// two scalars so a restart cannot reset the clock.
package lockout

import (
	"context"
	"time"
)

// Store is the persistence the policy needs; *vault.Vault satisfies it.
type Store interface {
	FailedAttempts(ctx context.Context) (int, error)
	SetFailedAttempts(ctx context.Context, n int) error
	LockoutEnd(ctx context.Context) (time.Time, bool, error)
	SetLockoutEnd(ctx context.Context, t time.Time) error
	ClearLockout(ctx context.Context) error
}

// Escalation table over cumulative failures since the last success. The
// highest threshold met wins; below the first threshold only the counter
// moves.
var escalation = []struct {
	attempts int
	window   time.Duration
}{
	{3, 30 * time.Second},
	{4, 60 * time.Second},
	{5, 300 * time.Second},
	{6, 900 * time.Second},
}

// Policy applies the escalation table against persisted lockout state.
type Policy struct {
	store Store
	now   func() time.Time
}

// Option configures a Policy.
type Option func(*Policy)

// WithClock substitutes the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// New returns a Policy over the given store.
func New(store Store, opts ...Option) *Policy {
	p := &Policy{store: store, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WindowFor returns the lockout window for a cumulative failure count,
// or zero when no lockout applies.
func WindowFor(attempts int) time.Duration {
	var window time.Duration
	for _, step := range escalation {
		if attempts >= step.attempts {
			window = step.window
		}
	}
	return window
}

// HandleFailedAttempt records one more failure. It returns the new
// cumulative count and the lockout window now in force (zero when the
// count is still below the first threshold).
func (p *Policy) HandleFailedAttempt(ctx context.Context) (int, time.Duration, error) {
	attempts, err := p.store.FailedAttempts(ctx)
	if err != nil {
		return 0, 0, err
	}
	attempts++

	if err := p.store.SetFailedAttempts(ctx, attempts); err != nil {
		return 0, 0, err
	}

	window := WindowFor(attempts)
	if window > 0 {
		if err := p.store.SetLockoutEnd(ctx, p.now().Add(window)); err != nil {
			return 0, 0, err
		}
	}
	return attempts, window, nil
}

// Remaining returns the time left in the current lockout window, zero
// when none applies.
func (p *Policy) Remaining(ctx context.Context) (time.Duration, error) {
	end, ok, err := p.store.LockoutEnd(ctx)
	if err != nil || !ok {
		return 0, err
	}
	remaining := end.Sub(p.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// IsLockedOut reports whether a lockout end time is persisted and still
// in the future.
func (p *Policy) IsLockedOut(ctx context.Context) (bool, error) {
	remaining, err := p.Remaining(ctx)
	return remaining > 0, err
}

// Clear wipes all lockout state; called on every successful unlock.
func (p *Policy) Clear(ctx context.Context) error {
	return p.store.ClearLockout(ctx)
}
