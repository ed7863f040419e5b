package auth

import (
	"context"
	"errors"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/exchange"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/memx"
)

// probeExistingAccount runs after a registration collision. A login
// attempt with the offered password decides the outcome:
//
//   - the password is correct: the account belongs to this user, return
//     AccountExistsError carrying the login result so setup can finish
//     without another round trip;
//   - the server rejects the password: return the same generic
//     ErrSetupFailed any other registration failure produces, so an
//     attacker cannot distinguish "taken, wrong password" from "taken";
//   - the transport fails or the server throttles: surface it verbatim,
//     those outcomes carry no information about the account.
func (o *Orchestrator) probeExistingAccount(ctx context.Context, username string, password []byte) error {
	login, err := o.exchange.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, exchange.ErrNetwork) || errors.Is(err, exchange.ErrRateLimited) {
			return err
		}
		o.log.Debug(ctx, "existence probe rejected")
		return ErrSetupFailed
	}
	if len(login.ExportSecret) == 0 {
		memx.Wipe(login.SessionKey)
		return ErrSetupFailed
	}
	return &AccountExistsError{Login: login}
}
