package auth

import "context"

// Biometric is the sensor capability consumed by the orchestrator. The
// actual hardware integration lives outside this module; tests and
// headless builds substitute fakes.
type Biometric interface {
	// Available reports whether a sensor is present and enrolled.
	Available(ctx context.Context) bool

	// Authenticate runs one sensor challenge, blocking until the user
	// responds or ctx is done.
	Authenticate(ctx context.Context, reason string) error
}
