package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"strings"
)

// Reserved username prefix for automated UI tests. When testing mode is
// enabled, both registration and login for these accounts short-circuit
// to a deterministic keyed hash of the password instead of performing
// network I/O, so a wrong password still fails deterministically at the
// verification-token check.
const testUsernamePrefix = "uitest-"

var (
	bypassExportKey  = []byte("healthvault-uitest-export-v1")
	bypassSessionTag = []byte("session")
)

func (c *HTTPClient) bypasses(username string) bool {
	return c.testingMode && strings.HasPrefix(strings.ToLower(strings.TrimSpace(username)), testUsernamePrefix)
}

// bypassExportSecret derives a 32-byte stand-in export secret from the
// password alone.
func bypassExportSecret(password []byte) []byte {
	mac := hmac.New(sha256.New, bypassExportKey)
	mac.Write(password)
	return mac.Sum(nil)
}

func bypassSessionKey(password []byte) []byte {
	mac := hmac.New(sha256.New, bypassExportKey)
	mac.Write(bypassSessionTag)
	mac.Write(password)
	return mac.Sum(nil)
}
