package cli

import (
	"context"
	"fmt"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/memx"
)

// Fixed demo credentials. The username carries the testing-mode prefix,
// so demo accounts never touch the network, and the demo vault namespace
// keeps their slots away from real data.
const (
	demoUsername = "uitest-demo@healthvault.local"
	demoPassword = "Demo-Horse-1"
)

// ensureDemoAccount sets up the demo account on first run so the user
// lands in a working sandbox without typing anything.
func (a *App) ensureDemoAccount(ctx context.Context) {
	if a.isSetUp(ctx) {
		return
	}
	pw := memx.NewFromString(demoPassword)
	defer pw.Wipe()

	if err := a.orch.SetUp(ctx, demoUsername, pw.Bytes(), false); err != nil {
		a.log.Error(ctx, "demo setup failed", "err", err)
		return
	}
	fmt.Println("Demo account ready. All demo data is isolated and local.")
}

// unlockDemo unlocks with the fixed demo password, no prompt.
func (a *App) unlockDemo(ctx context.Context) error {
	pw := memx.NewFromString(demoPassword)
	defer pw.Wipe()

	if err := a.orch.UnlockWithPassword(ctx, pw.Bytes()); err != nil {
		a.reportAuthError(err)
		return err
	}
	fmt.Println("Unlocked.")
	return nil
}
