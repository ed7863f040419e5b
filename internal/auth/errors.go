package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/exchange"
)

var (
	// ErrWrongPassword is returned for a failed password check. By design
	// it is also what a wrong username produces on the login path; the two
	// are never distinguished.
	ErrWrongPassword = errors.New("wrong password")

	// ErrNotSetUp reports that no local credentials exist on this device.
	ErrNotSetUp = errors.New("not set up")

	// ErrSetupFailed is the deliberately generic registration outcome. It
	// covers a server rejection probed with the wrong password and a server
	// that was unreachable during registration, so a caller (or an
	// attacker) cannot tell the two apart.
	ErrSetupFailed = errors.New("setup failed")

	// ErrVerificationFailed reports a protocol response that produced
	// key material of an invalid shape. No vault write happens after it.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrVault reports a local secure-storage failure, fatal to the
	// current operation but not to the process.
	ErrVault = errors.New("keychain error")

	// ErrBiometricNotAvailable reports that biometric unlock is not
	// enabled, not supported, or has no capability wired in.
	ErrBiometricNotAvailable = errors.New("biometric not available")

	// ErrBiometricFailed reports a failed sensor challenge or a vault
	// sanity check that did not hold afterwards.
	ErrBiometricFailed = errors.New("biometric failed")

	// ErrAccountLocked is the sentinel matched by LockedError.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountExists is the sentinel matched by AccountExistsError.
	ErrAccountExists = errors.New("account exists")
)

// LockedError reports an active lockout window. Callers use Remaining to
// tell the user how long to wait; no key derivation was attempted.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %d seconds", int(e.Remaining.Seconds()))
}

func (e *LockedError) Is(target error) bool { return target == ErrAccountLocked }

// AccountExistsError is raised when a registration collision was probed
// with the correct password. Login holds the already-authenticated result
// so CompleteLoginFromExistingAccount can finish without another network
// round trip.
type AccountExistsError struct {
	Login *exchange.LoginResult
}

func (e *AccountExistsError) Error() string {
	return "account already exists, login result available"
}

func (e *AccountExistsError) Is(target error) bool { return target == ErrAccountExists }
