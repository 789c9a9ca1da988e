// Package otpx implements the time-based one-time password engine used for
// two-factor authentication: secret generation, provisioning URIs for
// authenticator-app enrolment, and code verification.
//
// Verification runs under a guardrail profile that bounds the accepted secret
// length before any code math happens. Installations that enrolled under the
// older short-format generator still carry 10-byte secrets, so a secret the
// standard profile rejects as too short is retried under a legacy profile and
// the result is tagged so the caller can flag the record.
package otpx

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	period      = 30 // seconds per time step
	secretBytes = 20

	// LegacySecretLength is the encoded length of a secret produced by the
	// old generator: 10 raw bytes, 16 base32 characters.
	LegacySecretLength = 16
)

// Verification failure reasons. Callers branch on these tags, never on error
// text.
const (
	ReasonCodeMismatch   = "code does not match"
	ReasonSecretTooShort = "secret below minimum length"
	ReasonSecretTooLong  = "secret above maximum length"
	ReasonSecretInvalid  = "secret is not valid base32"
)

// profile bounds the accepted encoded secret length.
type profile struct {
	minSecretLen int
	maxSecretLen int
}

var (
	standardProfile = profile{minSecretLen: 32, maxSecretLen: 128}
	legacyProfile   = profile{minSecretLen: LegacySecretLength, maxSecretLen: 128}
)

// Result is the outcome of a code verification.
type Result struct {
	Valid  bool
	Legacy bool   // accepted under the legacy guardrail profile
	Reason string // set when Valid is false
}

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Engine issues and verifies one-time codes for a single provisioning issuer.
type Engine struct {
	Issuer string
}

// GenerateSecret produces a modern-length base32 secret (20 raw bytes).
func (e *Engine) GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate otp secret: %w", err)
	}
	return b32.EncodeToString(buf), nil
}

// ProvisioningURI builds the otpauth:// URI an authenticator app scans during
// enrolment.
func (e *Engine) ProvisioningURI(account, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", e.Issuer)
	return fmt.Sprintf("otpauth://totp/%s:%s?%s",
		url.PathEscape(e.Issuer),
		url.PathEscape(account),
		v.Encode(),
	)
}

// Verify checks a code against a secret, allowing clock drift up to the
// tolerance window. It first applies the standard guardrail profile; when
// that profile rejects the secret specifically as too short and the encoded
// length matches the known legacy format, it retries under the legacy
// profile and tags the result.
//
// A wrong code, excess drift, or a malformed secret is reported through the
// Result, never as an error.
func (e *Engine) Verify(code, secret string, tolerance time.Duration) Result {
	res := verifyWithProfile(code, secret, tolerance, standardProfile)
	if !res.Valid && res.Reason == ReasonSecretTooShort && len(secret) == LegacySecretLength {
		res = verifyWithProfile(code, secret, tolerance, legacyProfile)
		if res.Valid {
			res.Legacy = true
		}
	}
	return res
}

func verifyWithProfile(code, secret string, tolerance time.Duration, p profile) Result {
	if len(secret) < p.minSecretLen {
		return Result{Reason: ReasonSecretTooShort}
	}
	if len(secret) > p.maxSecretLen {
		return Result{Reason: ReasonSecretTooLong}
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      skewFor(tolerance),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// ValidateCustom only errors on undecodable input, which for our
		// purposes is an invalid secret, not a failure of the operation.
		return Result{Reason: ReasonSecretInvalid}
	}
	if !ok {
		return Result{Reason: ReasonCodeMismatch}
	}
	return Result{Valid: true}
}

// skewFor converts a tolerance window into a step count either side of now.
// The window always spans at least two extra steps (±1) to absorb drift.
func skewFor(tolerance time.Duration) uint {
	steps := uint(tolerance.Seconds()) / (2 * period)
	if steps < 1 {
		steps = 1
	}
	return steps
}
