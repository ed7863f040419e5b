package exchange

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// appSalt domain-separates the identifier digest from any other SHA-256
// use of the username. It must match the value the server was deployed
// with and never change, or every account would lose its identity.
const appSalt = "family-medical-app-opaque-v1"

// DeriveClientIdentifier turns a username into the one-way digest sent
// over the wire in its place: SHA-256 over the normalized username and
// the app salt, hex-encoded (64 characters). Usernames are trimmed and
// lowercased first so "Alice" and "alice " map to the same account.
//
// The normalization is this client's policy, not part of the digest
// contract: a client that hashes the raw bytes would derive a different
// identifier for a mixed-case username, so all clients of one server
// must agree on it.
func DeriveClientIdentifier(username string) string {
	normalized := strings.ToLower(strings.TrimSpace(username))

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte(appSalt))

	return hex.EncodeToString(h.Sum(nil))
}

// idPrefix returns a short, log-safe prefix of a client identifier.
func idPrefix(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
