package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/cryptox"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/exchange"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/lockout"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/vault"
)

// fakeClient scripts the exchange layer. Secrets are copied on the way
// out because the orchestrator wipes what it is handed.
type fakeClient struct {
	exportSecret []byte
	sessionKey   []byte
	registerErr  error
	loginErr     error

	registerCalls int
	loginCalls    int
	bundleCalls   int
	lastBundle    []byte
}

func (f *fakeClient) Register(_ context.Context, _ string, _ []byte) ([]byte, error) {
	f.registerCalls++
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return bytes.Clone(f.exportSecret), nil
}

func (f *fakeClient) Login(_ context.Context, _ string, _ []byte) (*exchange.LoginResult, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &exchange.LoginResult{
		ExportSecret: bytes.Clone(f.exportSecret),
		SessionKey:   bytes.Clone(f.sessionKey),
	}, nil
}

func (f *fakeClient) UploadBundle(_ context.Context, _ string, bundle []byte) error {
	f.bundleCalls++
	f.lastBundle = bytes.Clone(bundle)
	return nil
}

type fakeBiometric struct {
	available bool
	authErr   error
	calls     int
}

func (f *fakeBiometric) Available(context.Context) bool { return f.available }

func (f *fakeBiometric) Authenticate(context.Context, string) error {
	f.calls++
	return f.authErr
}

func testExportSecret() []byte {
	secret := make([]byte, 64)
	for i := range secret {
		secret[i] = byte(i + 1)
	}
	return secret
}

type fixture struct {
	orch  *Orchestrator
	fake  *fakeClient
	bio   *fakeBiometric
	vault *vault.Vault
	now   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	v := vault.New(vault.NewMemoryBackend())
	fake := &fakeClient{exportSecret: testExportSecret(), sessionKey: []byte("session")}
	bio := &fakeBiometric{available: true}
	orch := New(fake, v, lockout.New(v, lockout.WithClock(clock)),
		WithBiometric(bio), WithClock(clock))
	return &fixture{orch: orch, fake: fake, bio: bio, vault: v, now: &now}
}

func TestSetUpAndUnlockRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.orch.SetUp(ctx, "alice", []byte("correct horse"), false)
	require.NoError(t, err)
	require.Equal(t, 1, f.fake.registerCalls)
	require.Equal(t, 1, f.fake.bundleCalls)
	require.NotEmpty(t, f.fake.lastBundle)

	setUp, err := f.orch.IsSetUp(ctx)
	require.NoError(t, err)
	require.True(t, setUp)

	username, err := f.vault.Username(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", username)

	usesPAKE, err := f.vault.UsesPAKE(ctx)
	require.NoError(t, err)
	require.True(t, usesPAKE)

	// Unlock goes through the exchange for a protocol account.
	err = f.orch.UnlockWithPassword(ctx, []byte("correct horse"))
	require.NoError(t, err)
	require.Equal(t, 1, f.fake.loginCalls)
}

func TestSetUpWipesPassword(t *testing.T) {
	f := newFixture(t)

	password := []byte("secret password")
	require.NoError(t, f.orch.SetUp(context.Background(), "alice", password, false))
	require.Equal(t, make([]byte, len(password)), password)
}

func TestUnlockWipesPasswordOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.orch.SetUp(ctx, "alice", []byte("pw"), false))
	f.fake.loginErr = exchange.ErrAuthenticationFailed

	password := []byte("wrong password")
	err := f.orch.UnlockWithPassword(ctx, password)
	require.ErrorIs(t, err, ErrWrongPassword)
	require.Equal(t, make([]byte, len(password)), password)
}

func TestSetUpInvalidExportSecretWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fake.exportSecret = []byte("short")

	err := f.orch.SetUp(ctx, "alice", []byte("pw"), false)
	require.ErrorIs(t, err, ErrVerificationFailed)

	setUp, err := f.orch.IsSetUp(ctx)
	require.NoError(t, err)
	require.False(t, setUp)
}

func TestSetUpNetworkFailureIsGeneric(t *testing.T) {
	f := newFixture(t)
	f.fake.registerErr = exchange.ErrNetwork

	err := f.orch.SetUp(context.Background(), "alice", []byte("pw"), false)
	require.ErrorIs(t, err, ErrSetupFailed)
}

func TestSetUpCollisionWithCorrectPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fake.registerErr = exchange.ErrRegistrationFailed

	err := f.orch.SetUp(ctx, "alice", []byte("pw"), false)
	require.ErrorIs(t, err, ErrAccountExists)

	var exists *AccountExistsError
	require.ErrorAs(t, err, &exists)
	require.NotNil(t, exists.Login)

	// Finishing from the probe result takes no further network calls.
	loginCalls := f.fake.loginCalls
	err = f.orch.CompleteLoginFromExistingAccount(ctx, "alice", exists.Login, false)
	require.NoError(t, err)
	require.Equal(t, loginCalls, f.fake.loginCalls)
	require.Equal(t, 0, f.fake.bundleCalls)

	setUp, err := f.orch.IsSetUp(ctx)
	require.NoError(t, err)
	require.True(t, setUp)
}

func TestSetUpCollisionWithWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.fake.registerErr = exchange.ErrRegistrationFailed
	f.fake.loginErr = exchange.ErrAuthenticationFailed

	// Indistinguishable from any other registration failure.
	err := f.orch.SetUp(context.Background(), "alice", []byte("wrong"), false)
	require.ErrorIs(t, err, ErrSetupFailed)
	require.NotErrorIs(t, err, ErrAccountExists)
}

func TestSetUpCollisionProbeTransportFailure(t *testing.T) {
	f := newFixture(t)
	f.fake.registerErr = exchange.ErrRegistrationFailed
	f.fake.loginErr = exchange.ErrNetwork

	err := f.orch.SetUp(context.Background(), "alice", []byte("pw"), false)
	require.ErrorIs(t, err, exchange.ErrNetwork)
}

func TestLoginAndSetup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.orch.LoginAndSetup(ctx, "alice", []byte("pw"), false)
	require.NoError(t, err)
	require.Equal(t, 0, f.fake.registerCalls)

	setUp, err := f.orch.IsSetUp(ctx)
	require.NoError(t, err)
	require.True(t, setUp)
}

func TestLoginAndSetupWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.fake.loginErr = exchange.ErrAuthenticationFailed

	err := f.orch.LoginAndSetup(context.Background(), "alice", []byte("wrong"), false)
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestUnlockNotSetUp(t *testing.T) {
	f := newFixture(t)

	err := f.orch.UnlockWithPassword(context.Background(), []byte("pw"))
	require.ErrorIs(t, err, ErrNotSetUp)
}

func TestUnlockEscalatesToLockout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.orch.SetUp(ctx, "alice", []byte("pw"), false))
	f.fake.loginErr = exchange.ErrAuthenticationFailed

	for i := 0; i < 2; i++ {
		err := f.orch.UnlockWithPassword(ctx, []byte("wrong"))
		require.ErrorIs(t, err, ErrWrongPassword)
	}

	err := f.orch.UnlockWithPassword(ctx, []byte("wrong"))
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	require.Equal(t, 30*time.Second, locked.Remaining)

	// While the window is open the check short-circuits without touching
	// the exchange at all.
	loginCalls := f.fake.loginCalls
	err = f.orch.UnlockWithPassword(ctx, []byte("wrong"))
	require.ErrorIs(t, err, ErrAccountLocked)
	require.Equal(t, loginCalls, f.fake.loginCalls)

	remaining, err := f.orch.LockoutRemaining(ctx)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, remaining)

	// Once the window lapses a correct password clears all state.
	*f.now = f.now.Add(31 * time.Second)
	f.fake.loginErr = nil
	require.NoError(t, f.orch.UnlockWithPassword(ctx, []byte("pw")))

	remaining, err = f.orch.LockoutRemaining(ctx)
	require.NoError(t, err)
	require.Zero(t, remaining)

	attempts, err := f.vault.FailedAttempts(ctx)
	require.NoError(t, err)
	require.Zero(t, attempts)
}

func TestUnlockTransportFailureRecordsNoAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.orch.SetUp(ctx, "alice", []byte("pw"), false))
	f.fake.loginErr = exchange.ErrNetwork

	err := f.orch.UnlockWithPassword(ctx, []byte("pw"))
	require.ErrorIs(t, err, exchange.ErrNetwork)

	attempts, err := f.vault.FailedAttempts(ctx)
	require.NoError(t, err)
	require.Zero(t, attempts)
}

func TestUnlockLegacyAccountOffline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// A pre-protocol account: key derived from the password and a stored
	// salt, no export secret involved.
	salt := []byte("0123456789abcdef")
	key := cryptox.PrimaryKeyFromPassword([]byte("legacy pw"), salt)
	token, err := cryptox.Seal(key, []byte(verificationPlaintext))
	require.NoError(t, err)

	require.NoError(t, f.vault.CompleteLocalSetup(ctx, &vault.SetupRecord{
		PrimaryKey:         key,
		WrappedIdentityKey: []byte("wrapped"),
		VerificationToken:  token,
		IdentityPublicKey:  []byte("public"),
		Username:           "alice",
		LegacySalt:         salt,
		UsesPAKE:           false,
	}))

	require.NoError(t, f.orch.UnlockWithPassword(ctx, []byte("legacy pw")))
	require.Zero(t, f.fake.loginCalls)

	err = f.orch.UnlockWithPassword(ctx, []byte("wrong"))
	require.ErrorIs(t, err, ErrWrongPassword)
	require.Zero(t, f.fake.loginCalls)
}

func TestUnlockWithBiometric(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.orch.SetUp(ctx, "alice", []byte("pw"), true))

	require.NoError(t, f.orch.UnlockWithBiometric(ctx))
	require.Equal(t, 1, f.bio.calls)
}

func TestUnlockWithBiometricSensorFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.orch.SetUp(ctx, "alice", []byte("pw"), true))
	f.bio.authErr = errors.New("no match")

	err := f.orch.UnlockWithBiometric(ctx)
	require.ErrorIs(t, err, ErrBiometricFailed)
}

func TestUnlockWithBiometricNotEnrolled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.orch.SetUp(ctx, "alice", []byte("pw"), false))

	err := f.orch.UnlockWithBiometric(ctx)
	require.ErrorIs(t, err, ErrBiometricNotAvailable)
	require.Zero(t, f.bio.calls)
}

func TestBiometricEnrollmentRequiresCapability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bio.available = false

	// Asking for biometric with no sensor silently falls back.
	require.NoError(t, f.orch.SetUp(ctx, "alice", []byte("pw"), true))

	enabled, err := f.vault.BiometricEnabled(ctx)
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.orch.SetUp(ctx, "alice", []byte("pw"), false))

	require.NoError(t, f.orch.Logout(ctx))
	require.NoError(t, f.orch.Logout(ctx))

	setUp, err := f.orch.IsSetUp(ctx)
	require.NoError(t, err)
	require.False(t, setUp)

	err = f.orch.UnlockWithPassword(ctx, []byte("pw"))
	require.ErrorIs(t, err, ErrNotSetUp)
}
