package cryptox

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Key-stretching parameters. These are fixed: stored digests are only
// reproducible while the cost factor and output width stay constant, and the
// user file carries no per-record parameter block.
const (
	iterations = 1000
	keyLength  = 64 // digest bytes before hex encoding
	saltLength = 32 // salt bytes before hex encoding
)

// HashPassword derives a hex digest from a password and its hex-encoded salt
// using PBKDF2-SHA512. The same (password, salt) pair always produces the
// same digest.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha512.New)
	return hex.EncodeToString(key)
}

// GenerateSalt returns a fresh hex-encoded random salt. A new salt is
// generated per user and on every password change.
func GenerateSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Compare reports whether two digests are equal without leaking where they
// first differ. Mismatched lengths compare false without panicking.
func Compare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
