// Package cryptox implements the local key hierarchy of the credential
// core: expansion of a PAKE export secret into the primary symmetric key,
// the legacy password-based derivation kept for pre-existing accounts,
// generation of the key-agreement identity pair, and AES-GCM wrapping of
// stored secrets.
package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// PrimaryKeySize is the size of the derived symmetric key (AES-256).
const PrimaryKeySize = 32

// Export secrets are produced by the PAKE finalization and depend on the
// configured cipher suite; only these two lengths are valid.
const (
	exportSecretSizeShort = 32
	exportSecretSizeLong  = 64
)

// primaryKeyInfo domain-separates the HKDF expansion from any other use of
// the export secret.
var primaryKeyInfo = []byte("healthvault-primary-key-v1")

// ErrInvalidExportSecret reports an export secret whose length is neither
// 32 nor 64 bytes. A corrupted or malicious protocol response must never
// silently produce a weak key, so derivation refuses anything else.
var ErrInvalidExportSecret = errors.New("invalid export secret length")

// PrimaryKeyFromExportSecret deterministically expands a PAKE export
// secret into the primary symmetric key via HKDF-SHA256.
func PrimaryKeyFromExportSecret(exportSecret []byte) ([]byte, error) {
	if len(exportSecret) != exportSecretSizeShort && len(exportSecret) != exportSecretSizeLong {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidExportSecret, len(exportSecret))
	}

	key := make([]byte, PrimaryKeySize)
	r := hkdf.New(sha256.New, exportSecret, nil, primaryKeyInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return key, nil
}

// PrimaryKeyFromPassword is the legacy derivation used by accounts created
// before the PAKE protocol: Argon2id over the password with a stored
// random salt.
func PrimaryKeyFromPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, PrimaryKeySize)
}
