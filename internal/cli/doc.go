// Package cli provides the interactive HealthVault command-line client.
//
// It wires configuration, the local sqlite vault, the credential-exchange
// transport, and an interactive REPL for account and unlock operations.
//
// Key features:
//   - SetUp / Login (account creation and new-device login)
//   - Unlock by password or biometrics, with escalating lockout
//   - Logout, which wipes all local key material
//   - Demo mode against an isolated vault namespace
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
