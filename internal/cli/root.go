package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus(ctx context.Context) string {
	s := ""
	if a.config.DemoMode {
		s = "demo "
	}
	if a.isSetUp(ctx) {
		s += "set up"
	} else {
		s += "no account"
	}
	return fmt.Sprintf("(%s)", s)
}

// Root runs the interactive loop until the user exits.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to HealthVault (type 'help' for commands)")
	if a.config.DemoMode {
		a.ensureDemoAccount(ctx)
	}
	scanner := bufio.NewScanner(os.Stdin)

	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, scanner)
}
