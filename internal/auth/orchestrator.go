// Package auth implements the top-level authentication state machine:
// setup, login-and-setup, unlock by password or biometric, logout, and
// the account-existence probe run on registration collisions. It owns no
// cryptography and no I/O of its own; everything is composed from the
// injected exchange client, vault, lockout policy, and biometric
// capability.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/cryptox"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/exchange"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/lockout"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/logging"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/memx"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/vault"
)

// verificationPlaintext is the fixed app-known token encrypted under the
// primary key at setup. Unlock decrypts it with a candidate key and
// compares; decryption failure is equivalent to a wrong key.
const verificationPlaintext = "healthvault-verification-v1"

// Orchestrator drives the persisted authentication state of one account
// namespace. Callers are expected to serialize operations per account;
// there is no internal mutual exclusion beyond that assumption.
type Orchestrator struct {
	exchange exchange.Client
	vault    *vault.Vault
	lockout  *lockout.Policy
	bio      Biometric
	log      logging.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBiometric wires in a sensor capability.
func WithBiometric(b Biometric) Option {
	return func(o *Orchestrator) { o.bio = b }
}

// WithLogger substitutes the logger.
func WithLogger(log logging.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithClock substitutes the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New composes an orchestrator from its collaborators.
func New(ex exchange.Client, v *vault.Vault, policy *lockout.Policy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		exchange: ex,
		vault:    v,
		lockout:  policy,
		log:      logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetUp registers a new account and completes local setup. The password
// buffer is wiped before return on every path. A registration collision
// triggers the existence probe: with the correct password the caller gets
// AccountExistsError carrying a pre-authenticated login result, otherwise
// the same generic ErrSetupFailed an unreachable server would produce.
func (o *Orchestrator) SetUp(ctx context.Context, username string, password []byte, enableBiometric bool) error {
	return memx.WithSecret(password, func(password []byte) error {
		exportSecret, err := o.exchange.Register(ctx, username, password)
		if err != nil {
			if errors.Is(err, exchange.ErrRegistrationFailed) {
				return o.probeExistingAccount(ctx, username, password)
			}
			o.log.Warn(ctx, "registration failed", "err", err)
			return ErrSetupFailed
		}

		recoveryBundle, err := o.completeLocalSetup(ctx, username, exportSecret, nil, enableBiometric)
		if err != nil {
			return err
		}

		// Recovery material upload is best-effort; the account works without it.
		if err := o.exchange.UploadBundle(ctx, username, recoveryBundle); err != nil {
			o.log.Warn(ctx, "bundle upload failed", "err", err)
		}
		return nil
	})
}

// LoginAndSetup is the returning-user-new-device path: authenticate
// against the server, then run the same local setup from the login's
// export secret.
func (o *Orchestrator) LoginAndSetup(ctx context.Context, username string, password []byte, enableBiometric bool) error {
	return memx.WithSecret(password, func(password []byte) error {
		login, err := o.exchange.Login(ctx, username, password)
		if err != nil {
			switch {
			case errors.Is(err, exchange.ErrAuthenticationFailed):
				return ErrWrongPassword
			case errors.Is(err, exchange.ErrNetwork), errors.Is(err, exchange.ErrRateLimited):
				return err
			default:
				o.log.Warn(ctx, "login failed", "err", err)
				return ErrSetupFailed
			}
		}

		_, err = o.completeLocalSetup(ctx, username, login.ExportSecret, nil, enableBiometric)
		return err
	})
}

// CompleteLoginFromExistingAccount finishes setup from the
// pre-authenticated login result of an existence probe. No further
// network round trip happens.
func (o *Orchestrator) CompleteLoginFromExistingAccount(ctx context.Context, username string, login *exchange.LoginResult, enableBiometric bool) error {
	if login == nil {
		return ErrSetupFailed
	}
	_, err := o.completeLocalSetup(ctx, username, login.ExportSecret, nil, enableBiometric)
	return err
}

// completeLocalSetup derives the primary key, generates and wraps the
// identity keypair, builds the verification token, and persists the whole
// set atomically. It returns the sealed recovery bundle for optional
// upload. The export secret is wiped before return on every path.
func (o *Orchestrator) completeLocalSetup(ctx context.Context, username string, exportSecret, legacySalt []byte, enableBiometric bool) ([]byte, error) {
	defer memx.Wipe(exportSecret)

	primaryKey, err := cryptox.PrimaryKeyFromExportSecret(exportSecret)
	if err != nil {
		// A corrupted protocol response must never reach the vault.
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	defer memx.Wipe(primaryKey)

	pair, err := cryptox.GenerateIdentityKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}
	defer memx.Wipe(pair.Private)

	wrappedIdentity, err := cryptox.Seal(primaryKey, pair.Private)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}

	token, err := cryptox.Seal(primaryKey, []byte(verificationPlaintext))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}

	useBiometric := false
	if enableBiometric && o.bio != nil && o.bio.Available(ctx) {
		useBiometric = true
	}

	rec := &vault.SetupRecord{
		PrimaryKey:         primaryKey,
		WrappedIdentityKey: wrappedIdentity,
		VerificationToken:  token,
		IdentityPublicKey:  pair.Public,
		Username:           username,
		LegacySalt:         legacySalt,
		UsesPAKE:           legacySalt == nil,
		BiometricEnabled:   useBiometric,
	}
	if err := o.vault.CompleteLocalSetup(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVault, err)
	}

	o.log.Info(ctx, "local setup complete", "biometric", useBiometric)

	return o.sealRecoveryBundle(primaryKey, username, pair.Public)
}

// sealRecoveryBundle wraps the non-secret account material under the
// primary key for server-side storage. The server treats it as opaque.
func (o *Orchestrator) sealRecoveryBundle(primaryKey []byte, username string, publicKey []byte) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{
		"username":  username,
		"publicKey": base64.StdEncoding.EncodeToString(publicKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}
	bundle, err := cryptox.Seal(primaryKey, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSetupFailed, err)
	}
	return bundle, nil
}

// UnlockWithPassword verifies a password against the stored verification
// token. While a lockout window is open it fails immediately without any
// key derivation. A failed check records one more attempt and may open
// the next window.
func (o *Orchestrator) UnlockWithPassword(ctx context.Context, password []byte) error {
	return memx.WithSecret(password, func(password []byte) error {
		remaining, err := o.lockout.Remaining(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrVault, err)
		}
		if remaining > 0 {
			return &LockedError{Remaining: remaining}
		}

		setUp, err := o.vault.IsSetUp(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrVault, err)
		}
		if !setUp {
			return ErrNotSetUp
		}

		candidate, err := o.candidateKey(ctx, password)
		if err != nil {
			return err
		}
		defer memx.Wipe(candidate)

		token, err := o.vault.VerificationToken(ctx)
		if vault.IsNotSet(err) {
			return ErrNotSetUp
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrVault, err)
		}

		plaintext, err := cryptox.Open(candidate, token)
		if err != nil || !memx.Equal(plaintext, []byte(verificationPlaintext)) {
			return o.recordFailedAttempt(ctx)
		}

		if err := o.lockout.Clear(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrVault, err)
		}
		return nil
	})
}

// candidateKey derives the key a password would have produced: through
// the exchange login for PAKE accounts, through the stored salt for
// legacy accounts.
func (o *Orchestrator) candidateKey(ctx context.Context, password []byte) ([]byte, error) {
	usesPAKE, err := o.vault.UsesPAKE(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVault, err)
	}

	if !usesPAKE {
		salt, err := o.vault.LegacySalt(ctx)
		if vault.IsNotSet(err) {
			return nil, ErrNotSetUp
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVault, err)
		}
		return cryptox.PrimaryKeyFromPassword(password, salt), nil
	}

	username, err := o.vault.Username(ctx)
	if vault.IsNotSet(err) {
		return nil, ErrNotSetUp
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVault, err)
	}

	login, err := o.exchange.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, exchange.ErrAuthenticationFailed) {
			// Counts as a failed local attempt like any wrong password.
			return nil, o.recordFailedAttempt(ctx)
		}
		// Transport failures carry no verdict on the password.
		return nil, err
	}
	defer memx.Wipe(login.ExportSecret)

	key, err := cryptox.PrimaryKeyFromExportSecret(login.ExportSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	return key, nil
}

// recordFailedAttempt bumps the counter and reports either a plain wrong
// password or, once a threshold is met, the lockout now in force.
func (o *Orchestrator) recordFailedAttempt(ctx context.Context) error {
	attempts, window, err := o.lockout.HandleFailedAttempt(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVault, err)
	}
	if window > 0 {
		o.log.Warn(ctx, "account locked", "attempts", attempts, "window", window)
		return &LockedError{Remaining: window}
	}
	return ErrWrongPassword
}

// UnlockWithBiometric runs the sensor challenge and then confirms the
// stored material is still intact: the primary key must be retrievable
// and must still open the verification token.
func (o *Orchestrator) UnlockWithBiometric(ctx context.Context) error {
	if o.bio == nil {
		return ErrBiometricNotAvailable
	}

	enabled, err := o.vault.BiometricEnabled(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVault, err)
	}
	if !enabled || !o.bio.Available(ctx) {
		return ErrBiometricNotAvailable
	}

	setUp, err := o.vault.IsSetUp(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVault, err)
	}
	if !setUp {
		return ErrNotSetUp
	}

	if err := o.bio.Authenticate(ctx, "Unlock your health records"); err != nil {
		return fmt.Errorf("%w: %v", ErrBiometricFailed, err)
	}

	key, err := o.vault.PrimaryKey(ctx)
	if vault.IsNotSet(err) {
		return ErrNotSetUp
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVault, err)
	}
	defer memx.Wipe(key)

	token, err := o.vault.VerificationToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVault, err)
	}
	plaintext, err := cryptox.Open(key, token)
	if err != nil || !memx.Equal(plaintext, []byte(verificationPlaintext)) {
		return ErrBiometricFailed
	}

	if err := o.lockout.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrVault, err)
	}
	return nil
}

// Logout deletes all persisted credential material. Individual deletions
// are best-effort and a missing item is not an error; the operation is
// idempotent.
func (o *Orchestrator) Logout(ctx context.Context) error {
	if err := o.vault.Wipe(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrVault, err)
	}
	o.log.Info(ctx, "logged out")
	return nil
}

// Lock is intentionally a no-op: the transient locked UI state belongs to
// the presentation layer. This orchestrator only guards persisted state.
func (o *Orchestrator) Lock() {}

// IsSetUp reports whether local credentials exist.
func (o *Orchestrator) IsSetUp(ctx context.Context) (bool, error) {
	return o.vault.IsSetUp(ctx)
}

// LockoutRemaining returns the time left in the current lockout window,
// zero when none applies.
func (o *Orchestrator) LockoutRemaining(ctx context.Context) (time.Duration, error) {
	return o.lockout.Remaining(ctx)
}
