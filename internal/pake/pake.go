// Package pake defines the narrow interface through which the credential
// core consumes a password-authenticated key exchange, plus the concrete
// OPAQUE-backed engine. The password never leaves the client in any form;
// a successful run yields an export secret used only as key-derivation
// input and, for login, a transport session key.
//
// Orchestration code depends on Engine so tests can substitute a fake
// that returns canned protocol artifacts.
package pake

import "errors"

// ErrProtocol reports a local cryptographic failure: a malformed server
// response, an envelope that does not open (wrong password), or misuse of
// a one-shot flow. Callers must not surface more detail than this.
var ErrProtocol = errors.New("pake protocol failure")

// Engine creates one-shot protocol flows. Implementations hold no state
// across flows.
type Engine interface {
	// NewRegistration starts a registration flow for the given password and
	// returns the flow together with the serialized registration request to
	// send to the server.
	NewRegistration(password []byte) (Registration, error)

	// NewLogin starts a login flow for the given password and returns the
	// flow together with the serialized first login message.
	NewLogin(password []byte) (Login, error)
}

// Registration is the client half of one registration run. Request is the
// first-round message; Finalize consumes the server's response and may be
// called at most once.
type Registration interface {
	Request() []byte

	// Finalize produces the registration record to upload and the export
	// secret. The export secret must be consumed immediately and wiped.
	Finalize(serverResponse []byte) (record, exportSecret []byte, err error)
}

// Login is the client half of one login run. Request is the first-round
// message; Finalize consumes the server's credential response and may be
// called at most once.
type Login interface {
	Request() []byte

	// Finalize produces the final protocol message, the transport session
	// key, and the export secret. A wrong password surfaces as ErrProtocol,
	// indistinguishable from a malformed response.
	Finalize(serverResponse []byte) (finish, sessionKey, exportSecret []byte, err error)
}
