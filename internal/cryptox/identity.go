package cryptox

import (
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/common"
)

// IdentityKeyPair is the X25519 key-agreement pair generated once at
// setup. The private half is wrapped under the primary key before it is
// persisted; the public half is stored in the clear.
type IdentityKeyPair struct {
	Private []byte
	Public  []byte
}

// GenerateIdentityKeyPair creates a fresh X25519 keypair.
func GenerateIdentityKeyPair() (*IdentityKeyPair, error) {
	priv := common.GenerateRandByteArray(curve25519.ScalarSize)

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	return &IdentityKeyPair{Private: priv, Public: pub}, nil
}
