package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/vault"
)

func newPolicy(t *testing.T) (*Policy, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := New(vault.New(vault.NewMemoryBackend()), WithClock(func() time.Time { return now }))
	return p, &now
}

func TestWindowFor_EscalationTable(t *testing.T) {
	want := map[int]time.Duration{
		0: 0,
		1: 0,
		2: 0,
		3: 30 * time.Second,
		4: 60 * time.Second,
		5: 300 * time.Second,
		6: 900 * time.Second,
		7: 900 * time.Second,
	}
	for attempts, window := range want {
		require.Equal(t, window, WindowFor(attempts), "attempts=%d", attempts)
	}
}

func TestHandleFailedAttempt_Sequence(t *testing.T) {
	p, _ := newPolicy(t)
	ctx := context.Background()

	wantWindows := []time.Duration{
		0, 0,
		30 * time.Second,
		60 * time.Second,
		300 * time.Second,
		900 * time.Second,
		900 * time.Second,
	}
	for i, want := range wantWindows {
		attempts, window, err := p.HandleFailedAttempt(ctx)
		require.NoError(t, err)
		require.Equal(t, i+1, attempts)
		require.Equal(t, want, window, "attempt %d", i+1)
	}
}

func TestIsLockedOut_OnlyWhileWindowOpen(t *testing.T) {
	p, now := newPolicy(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := p.HandleFailedAttempt(ctx)
		require.NoError(t, err)
	}

	locked, err := p.IsLockedOut(ctx)
	require.NoError(t, err)
	require.True(t, locked)

	remaining, err := p.Remaining(ctx)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, remaining)

	// Window elapses.
	*now = now.Add(31 * time.Second)
	locked, err = p.IsLockedOut(ctx)
	require.NoError(t, err)
	require.False(t, locked)

	remaining, err = p.Remaining(ctx)
	require.NoError(t, err)
	require.Zero(t, remaining)
}

func TestClear_ResetsCounterAndWindow(t *testing.T) {
	p, _ := newPolicy(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, err := p.HandleFailedAttempt(ctx)
		require.NoError(t, err)
	}

	require.NoError(t, p.Clear(ctx))

	locked, err := p.IsLockedOut(ctx)
	require.NoError(t, err)
	require.False(t, locked)

	// Counting restarts from scratch after a success.
	attempts, window, err := p.HandleFailedAttempt(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
	require.Zero(t, window)
}

func TestNoLockoutBelowFirstThreshold(t *testing.T) {
	p, _ := newPolicy(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, err := p.HandleFailedAttempt(ctx)
		require.NoError(t, err)
	}

	locked, err := p.IsLockedOut(ctx)
	require.NoError(t, err)
	require.False(t, locked)
}
