package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSetUp(ctx context.Context) bool
	SetUp(ctx context.Context) error
	Login(ctx context.Context) error
	Unlock(ctx context.Context) error
	UnlockBiometric(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the HealthVault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	No account on the device:
//	  - help           — show available commands
//	  - setup          — create a new account
//	  - login          — use an existing account on this device
//	  - status         — show device state
//	  - exit | quit    — leave the program
//
//	Account present:
//	  - help           — show available commands
//	  - unlock         — unlock with the password
//	  - bio            — unlock with biometrics
//	  - status         — show device state
//	  - logout         — wipe local keys
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("hv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isSetUp(ctx) {
				printlnFn("Available commands: unlock, bio, status, logout, exit")
			} else {
				printlnFn("Available commands: setup, login, status, exit")
			}

		case "setup":
			_ = a.SetUp(ctx)

		case "login":
			_ = a.Login(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "bio":
			_ = a.UnlockBiometric(ctx)

		case "status":
			_ = a.Status(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
