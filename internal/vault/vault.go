package vault

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Vault is the persistence façade the orchestrator works with. A
// namespace isolates one full set of slots; demo mode runs against a
// separate namespace and can never touch the real account's material.
type Vault struct {
	backend Backend
	ns      string
}

// Option configures a Vault.
type Option func(*Vault)

// WithNamespace prefixes every slot name, fully isolating this vault
// from vaults with other namespaces on the same backend.
func WithNamespace(ns string) Option {
	return func(v *Vault) { v.ns = ns }
}

// New returns a Vault over the given backend.
func New(backend Backend, opts ...Option) *Vault {
	v := &Vault{backend: backend}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Vault) slot(name string) string {
	if v.ns == "" {
		return name
	}
	return v.ns + ":" + name
}

// SetupRecord is the full write set of a completed local setup. It is
// persisted atomically: either every slot is written or none is.
type SetupRecord struct {
	PrimaryKey         []byte
	WrappedIdentityKey []byte
	VerificationToken  []byte // ciphertext of the known plaintext
	IdentityPublicKey  []byte
	Username           string
	LegacySalt         []byte // nil for PAKE accounts
	UsesPAKE           bool
	BiometricEnabled   bool
}

// CompleteLocalSetup writes the whole setup record in one transaction and
// clears any lockout state. A re-setup replaces the previous material
// wholesale.
func (v *Vault) CompleteLocalSetup(ctx context.Context, rec *SetupRecord) error {
	err := v.backend.InTx(ctx, func(b Backend) error {
		sec, sca := b.Secure(), b.Scalars()

		if err := sec.Set(ctx, v.slot(SlotPrimaryKey), rec.PrimaryKey); err != nil {
			return err
		}
		if err := sec.Set(ctx, v.slot(SlotIdentityPrivateKey), rec.WrappedIdentityKey); err != nil {
			return err
		}
		if err := sec.Set(ctx, v.slot(SlotVerificationToken), rec.VerificationToken); err != nil {
			return err
		}
		if err := sca.Set(ctx, v.slot(SlotIdentityPublicKey), rec.IdentityPublicKey); err != nil {
			return err
		}
		if err := sca.Set(ctx, v.slot(SlotUsername), []byte(rec.Username)); err != nil {
			return err
		}
		if err := sca.Set(ctx, v.slot(SlotUsesPAKE), encodeBool(rec.UsesPAKE)); err != nil {
			return err
		}
		if err := sca.Set(ctx, v.slot(SlotBiometricEnabled), encodeBool(rec.BiometricEnabled)); err != nil {
			return err
		}
		if rec.LegacySalt != nil {
			if err := sca.Set(ctx, v.slot(SlotLegacySalt), rec.LegacySalt); err != nil {
				return err
			}
		}
		if err := sca.Delete(ctx, v.slot(SlotFailedAttempts)); err != nil {
			return err
		}
		return sca.Delete(ctx, v.slot(SlotLockoutEnd))
	})
	if err != nil {
		return fmt.Errorf("complete local setup: %w", err)
	}
	return nil
}

// IsSetUp reports whether a primary key is present.
func (v *Vault) IsSetUp(ctx context.Context) (bool, error) {
	_, err := v.PrimaryKey(ctx)
	if err == nil {
		return true, nil
	}
	if IsNotSet(err) {
		return false, nil
	}
	return false, err
}

// Wipe deletes every slot of this namespace. Individual deletions are
// best-effort: a missing slot is not an error and the first real store
// failure is returned after attempting the rest.
func (v *Vault) Wipe(ctx context.Context) error {
	var firstErr error

	for _, slot := range []string{SlotPrimaryKey, SlotIdentityPrivateKey, SlotVerificationToken} {
		if err := v.backend.Secure().Delete(ctx, v.slot(slot)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, slot := range []string{
		SlotIdentityPublicKey, SlotUsername, SlotUsesPAKE, SlotBiometricEnabled,
		SlotFailedAttempts, SlotLockoutEnd, SlotLegacySalt,
	} {
		if err := v.backend.Scalars().Delete(ctx, v.slot(slot)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ---- secure slots ----

func (v *Vault) PrimaryKey(ctx context.Context) ([]byte, error) {
	return v.backend.Secure().Get(ctx, v.slot(SlotPrimaryKey))
}

func (v *Vault) WrappedIdentityKey(ctx context.Context) ([]byte, error) {
	return v.backend.Secure().Get(ctx, v.slot(SlotIdentityPrivateKey))
}

func (v *Vault) VerificationToken(ctx context.Context) ([]byte, error) {
	return v.backend.Secure().Get(ctx, v.slot(SlotVerificationToken))
}

// ---- scalar slots ----

func (v *Vault) Username(ctx context.Context) (string, error) {
	b, err := v.backend.Scalars().Get(ctx, v.slot(SlotUsername))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (v *Vault) IdentityPublicKey(ctx context.Context) ([]byte, error) {
	return v.backend.Scalars().Get(ctx, v.slot(SlotIdentityPublicKey))
}

func (v *Vault) UsesPAKE(ctx context.Context) (bool, error) {
	return v.getBool(ctx, SlotUsesPAKE)
}

func (v *Vault) BiometricEnabled(ctx context.Context) (bool, error) {
	return v.getBool(ctx, SlotBiometricEnabled)
}

func (v *Vault) SetBiometricEnabled(ctx context.Context, enabled bool) error {
	return v.backend.Scalars().Set(ctx, v.slot(SlotBiometricEnabled), encodeBool(enabled))
}

func (v *Vault) LegacySalt(ctx context.Context) ([]byte, error) {
	return v.backend.Scalars().Get(ctx, v.slot(SlotLegacySalt))
}

// DeviceID returns the per-install identifier, or ErrNotSet. The device
// identifier is deliberately outside Wipe: it survives logout.
func (v *Vault) DeviceID(ctx context.Context) (string, error) {
	b, err := v.backend.Scalars().Get(ctx, v.slot(SlotDeviceID))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (v *Vault) SetDeviceID(ctx context.Context, id string) error {
	return v.backend.Scalars().Set(ctx, v.slot(SlotDeviceID), []byte(id))
}

// ---- lockout scalars ----

func (v *Vault) FailedAttempts(ctx context.Context) (int, error) {
	b, err := v.backend.Scalars().Get(ctx, v.slot(SlotFailedAttempts))
	if IsNotSet(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(string(b))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("corrupt failed-attempt counter %q", b)
	}
	return n, nil
}

func (v *Vault) SetFailedAttempts(ctx context.Context, n int) error {
	return v.backend.Scalars().Set(ctx, v.slot(SlotFailedAttempts), []byte(strconv.Itoa(n)))
}

// LockoutEnd returns the persisted lockout end time, if any.
func (v *Vault) LockoutEnd(ctx context.Context) (time.Time, bool, error) {
	b, err := v.backend.Scalars().Get(ctx, v.slot(SlotLockoutEnd))
	if IsNotSet(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt lockout end %q", b)
	}
	return time.Unix(unix, 0), true, nil
}

func (v *Vault) SetLockoutEnd(ctx context.Context, t time.Time) error {
	return v.backend.Scalars().Set(ctx, v.slot(SlotLockoutEnd),
		[]byte(strconv.FormatInt(t.Unix(), 10)))
}

// ClearLockout removes both lockout scalars.
func (v *Vault) ClearLockout(ctx context.Context) error {
	if err := v.backend.Scalars().Delete(ctx, v.slot(SlotFailedAttempts)); err != nil {
		return err
	}
	return v.backend.Scalars().Delete(ctx, v.slot(SlotLockoutEnd))
}

func (v *Vault) getBool(ctx context.Context, name string) (bool, error) {
	b, err := v.backend.Scalars().Get(ctx, v.slot(name))
	if IsNotSet(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(b) == "1", nil
}

func encodeBool(v bool) []byte {
	if v {
		return []byte("1")
	}
	return []byte("0")
}
