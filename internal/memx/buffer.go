// Package memx provides byte containers for secret material with an
// explicit zero-on-release discipline. Passwords and derived keys move
// through the credential core as SecureBuffer values or via WithSecret,
// never as strings, so every holder has a single owner responsible for
// wiping.
package memx

import "crypto/subtle"

// SecureBuffer owns a byte slice holding secret material. The zero value
// is an empty, already-wiped buffer. A SecureBuffer must be wiped exactly
// once by its final owner; Wipe is idempotent so double-wiping is harmless.
type SecureBuffer struct {
	b     []byte
	wiped bool
}

// New takes ownership of b. The caller must not retain or reuse b after
// the call.
func New(b []byte) *SecureBuffer {
	return &SecureBuffer{b: b}
}

// NewFromString copies s into a fresh buffer. Prefer New with byte input;
// this exists for call sites that receive secrets from APIs that only
// produce strings (the string copy itself cannot be wiped).
func NewFromString(s string) *SecureBuffer {
	return &SecureBuffer{b: []byte(s)}
}

// Bytes exposes the underlying slice. The slice is only valid until Wipe
// is called; callers must not keep references past that point.
func (s *SecureBuffer) Bytes() []byte {
	return s.b
}

// Len returns the current length of the buffer.
func (s *SecureBuffer) Len() int {
	return len(s.b)
}

// Wipe overwrites the buffer with zeros. Safe to call multiple times and
// on the zero value.
func (s *SecureBuffer) Wipe() {
	if s == nil || s.wiped {
		return
	}
	Wipe(s.b)
	s.wiped = true
}

// Wipe overwrites b with zeros. A nil slice is a no-op.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Equal compares two byte slices in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// WithSecret runs fn with the secret bytes and guarantees the buffer is
// wiped on every exit path, including a panic inside fn. It is the
// required wrapper wherever a password crosses an API boundary.
func WithSecret(secret []byte, fn func([]byte) error) error {
	defer Wipe(secret)
	return fn(secret)
}
