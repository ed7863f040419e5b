package exchange

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveClientIdentifier_Shape(t *testing.T) {
	id := DeriveClientIdentifier("alice")
	require.Len(t, id, 64)
	_, err := hex.DecodeString(id)
	require.NoError(t, err)
}

func TestDeriveClientIdentifier_Deterministic(t *testing.T) {
	require.Equal(t, DeriveClientIdentifier("alice"), DeriveClientIdentifier("alice"))
	require.NotEqual(t, DeriveClientIdentifier("alice"), DeriveClientIdentifier("bob"))
}

func TestDeriveClientIdentifier_Normalizes(t *testing.T) {
	want := DeriveClientIdentifier("alice")
	require.Equal(t, want, DeriveClientIdentifier("Alice"))
	require.Equal(t, want, DeriveClientIdentifier("  alice \n"))
}

func TestIDPrefix(t *testing.T) {
	require.Equal(t, "abcd", idPrefix("abcd"))
	require.Equal(t, "12345678", idPrefix("123456789abc"))
}
