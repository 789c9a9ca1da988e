package cryptox

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := HashPassword(tt.password, salt)
			second := HashPassword(tt.password, salt)
			require.Equal(t, first, second, "same password and salt must hash identically")

			// 64-byte digest, hex encoded
			require.Len(t, first, keyLength*2)
			_, err := hex.DecodeString(first)
			require.NoError(t, err, "digest should be valid hex")
		})
	}
}

func TestHashPassword_SaltChangesDigest(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	salt2, err := GenerateSalt()
	require.NoError(t, err)
	require.NotEqual(t, salt1, salt2)

	password := "samepassword"
	require.NotEqual(t, HashPassword(password, salt1), HashPassword(password, salt2),
		"different salts must produce different digests")
}

func TestGenerateSalt(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	require.Len(t, salt, saltLength*2)

	_, err = hex.DecodeString(salt)
	require.NoError(t, err, "salt should be valid hex")
}

func TestCompare(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	digest := HashPassword("correct-password", salt)

	require.True(t, Compare(digest, HashPassword("correct-password", salt)))
	require.False(t, Compare(digest, HashPassword("wrong-password", salt)))
}

func TestCompare_MismatchedLengths(t *testing.T) {
	// Must fail cleanly rather than panic or short-circuit on length.
	require.False(t, Compare("abc", "abcdef"))
	require.False(t, Compare("", "abcdef"))
	require.False(t, Compare("abc", ""))
	require.True(t, Compare("", ""))
}
