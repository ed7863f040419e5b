package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/auth"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/exchange"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/memx"
)

// SetUp creates a new account and finishes local setup. On a collision
// probed with the correct password the user can adopt the existing
// account on this device instead.
func (a *App) SetUp(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username (email)", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	pw := memx.New(password)
	defer pw.Wipe()

	enableBio, err := GetConfirmation(a.reader, "Enable biometric unlock?", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	err = a.orch.SetUp(ctx, username, pw.Bytes(), enableBio)

	var exists *auth.AccountExistsError
	if errors.As(err, &exists) {
		adopt, cerr := GetConfirmation(a.reader,
			"This account already exists and your password matches. Use it on this device?", os.Stdout)
		if cerr != nil {
			return cerr
		}
		if !adopt {
			fmt.Println("Cancelled.")
			return nil
		}
		err = a.orch.CompleteLoginFromExistingAccount(ctx, username, exists.Login, enableBio)
	}

	if err != nil {
		a.reportAuthError(err)
		return err
	}

	fmt.Println("Account ready. Your records stay encrypted on this device.")
	return nil
}

// Login authenticates an existing account on a new device.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username (email)", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	pw := memx.New(password)
	defer pw.Wipe()

	if err := a.orch.LoginAndSetup(ctx, username, pw.Bytes(), false); err != nil {
		a.reportAuthError(err)
		return err
	}

	fmt.Println("Logged in. This device now holds your keys.")
	return nil
}

// Unlock verifies the password against the local vault. In demo mode the
// fixed demo password is used without prompting.
func (a *App) Unlock(ctx context.Context) error {
	if a.config.DemoMode {
		return a.unlockDemo(ctx)
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}
	pw := memx.New(password)
	defer pw.Wipe()

	if err := a.orch.UnlockWithPassword(ctx, pw.Bytes()); err != nil {
		a.reportAuthError(err)
		return err
	}

	fmt.Println("Unlocked.")
	return nil
}

// UnlockBiometric runs the sensor challenge where one is available.
func (a *App) UnlockBiometric(ctx context.Context) error {
	if err := a.orch.UnlockWithBiometric(ctx); err != nil {
		a.reportAuthError(err)
		return err
	}
	fmt.Println("Unlocked.")
	return nil
}

// Logout wipes all local credential material after confirmation.
func (a *App) Logout(ctx context.Context) error {
	confirmed, err := GetConfirmation(a.reader,
		"Logging out deletes your keys from this device. Continue?", os.Stdout)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := a.orch.Logout(ctx); err != nil {
		a.reportAuthError(err)
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

// Status prints the device state: setup, lockout, demo mode.
func (a *App) Status(ctx context.Context) error {
	if a.config.DemoMode {
		fmt.Println("Running in demo mode.")
	}
	if !a.isSetUp(ctx) {
		fmt.Println("No account on this device. Use 'setup' or 'login'.")
		return nil
	}
	fmt.Println("Account set up on this device.")

	remaining, err := a.orch.LockoutRemaining(ctx)
	if err != nil {
		return err
	}
	if remaining > 0 {
		fmt.Printf("Locked out, retry in %d seconds.\n", int(remaining.Seconds()))
	}
	return nil
}

// reportAuthError translates taxonomy errors into user-facing lines.
func (a *App) reportAuthError(err error) {
	var locked *auth.LockedError
	var rateLimited *exchange.RateLimitedError

	switch {
	case errors.As(err, &locked):
		fmt.Printf("Too many attempts. Try again in %d seconds.\n", int(locked.Remaining.Seconds()))
	case errors.As(err, &rateLimited):
		fmt.Println("The server is busy. Please try again shortly.")
	case errors.Is(err, auth.ErrWrongPassword):
		fmt.Println("Wrong username or password.")
	case errors.Is(err, auth.ErrNotSetUp):
		fmt.Println("No account on this device yet.")
	case errors.Is(err, auth.ErrSetupFailed):
		fmt.Println("Could not create the account. Check your connection and try again.")
	case errors.Is(err, auth.ErrBiometricNotAvailable):
		fmt.Println("Biometric unlock is not available on this device.")
	case errors.Is(err, auth.ErrBiometricFailed):
		fmt.Println("Biometric check failed. Use your password instead.")
	case errors.Is(err, exchange.ErrNetwork):
		fmt.Println("Could not reach the server. Check your connection.")
	default:
		fmt.Println("Something went wrong:", err.Error())
	}
}
