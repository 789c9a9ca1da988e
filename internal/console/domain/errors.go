package domain

import "errors"

// Error taxonomy for the credential and session subsystem. Handlers and
// remote callers branch on these with errors.Is; anything outside the
// taxonomy is treated as a fatal failure of the operation and propagates.
var (
	// ErrAuthenticationFailed deliberately covers both unknown-user and
	// wrong-password so responses cannot be used to enumerate accounts. The
	// distinguishing detail goes to the server log only.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrTwoFactorRequired means the password checked out but the account
	// has OTP active and no code was supplied.
	ErrTwoFactorRequired = errors.New("2fa code required")

	// ErrTwoFactorInvalid covers a wrong, drifted, or already-used code.
	ErrTwoFactorInvalid = errors.New("2fa code invalid")

	// ErrUnauthorized covers session-level refusals: subject no longer
	// exists, privilege changed since issuance, instance mismatch, or
	// no-auth mode not enabled.
	ErrUnauthorized = errors.New("unauthorized")

	ErrConflict       = errors.New("username already exists")
	ErrNotFound       = errors.New("user not found")
	ErrInvalidRequest = errors.New("invalid request")
)
