// Package common provides small shared helpers for random material
// used across the credential core.
package common

import "crypto/rand"

// GenerateRandByteArray returns a slice of n cryptographically random bytes.
// It panics if the system random source fails, since no secret material can
// be produced safely without it.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
