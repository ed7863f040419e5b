// Package vault persists the local credential material: the primary key,
// the wrapped identity private key, and the verification token in a
// secure store, plus non-sensitive scalar flags in a plain store. It is
// a thin façade over named slots; all policy lives in the callers.
package vault

import (
	"context"
	"errors"
)

// ErrNotSet reports a read of a slot that has never been written. It is
// the typed "not set up" condition, not a failure of the store itself.
var ErrNotSet = errors.New("not set")

// IsNotSet reports whether err is the missing-slot condition.
func IsNotSet(err error) bool { return errors.Is(err, ErrNotSet) }

// Secure-store slots. Values here are secrets or ciphertext.
const (
	SlotPrimaryKey         = "primary_key"
	SlotIdentityPrivateKey = "identity_private_key"
	SlotVerificationToken  = "verification_token"
)

// Scalar-store slots. Values here are not sensitive.
const (
	SlotIdentityPublicKey = "identity_public_key"
	SlotUsername          = "username"
	SlotUsesPAKE          = "uses_pake"
	SlotBiometricEnabled  = "biometric_enabled"
	SlotFailedAttempts    = "failed_attempts"
	SlotLockoutEnd        = "lockout_end"
	SlotLegacySalt        = "legacy_salt"
	SlotDeviceID          = "device_id"
)

// Store is a named-slot byte store. Get returns ErrNotSet for a slot that
// was never written; Delete of a missing slot is not an error.
type Store interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Set(ctx context.Context, slot string, value []byte) error
	Delete(ctx context.Context, slot string) error
}

// Backend groups the two stores and provides multi-slot atomicity. The
// fn passed to InTx sees a Backend whose writes all commit or all roll
// back together.
type Backend interface {
	Secure() Store
	Scalars() Store
	InTx(ctx context.Context, fn func(Backend) error) error
}
