package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/pkg/idx"
	"github.com/openbridgehq/hubconsole/pkg/jwtx"
)

const (
	// AuthModeForm requires username/password (and OTP when active).
	AuthModeForm = "form"
	// AuthModeNone disables authentication; sessions are minted for the
	// first admin on request.
	AuthModeNone = "none"

	// setupTokenTTL is fixed; the setup wizard is a short bootstrap window,
	// not a session.
	setupTokenTTL = 300 * time.Second

	// setupInstanceSentinel is deliberately not a valid instance id, so a
	// setup-wizard token can never pass the refresh instance check and be
	// promoted into a real session.
	setupInstanceSentinel = "setup-wizard"

	setupUsername = "setup-wizard"
)

// TokenService issues, refreshes, and verifies session tokens. Tokens are
// only ever invalidated client-side (expiry or logout); there is no
// server-side revocation list.
type TokenService struct {
	Signer     *jwtx.Signer
	Users      *UserService
	Setup      *SetupState
	InstanceID string
	AuthMode   string
	SessionTTL time.Duration
}

// Issue mints a session token for an authenticated user with the configured
// session lifetime.
func (s *TokenService) Issue(user domain.User) (string, error) {
	claims := jwtx.NewClaims(
		user.Username, user.Name,
		user.Admin,
		s.InstanceID,
		user.OtpLegacySecret,
		idx.New().String(),
		s.SessionTTL,
		time.Now().UTC(),
	)
	return s.Signer.Sign(claims)
}

// IssueSetupToken mints the short-lived token the setup wizard uses before
// any account exists. Refused once setup is complete.
func (s *TokenService) IssueSetupToken() (string, error) {
	if s.Setup.Complete() {
		return "", fmt.Errorf("%w: setup wizard is not active", domain.ErrUnauthorized)
	}

	claims := jwtx.NewClaims(
		setupUsername, setupUsername,
		true,
		setupInstanceSentinel,
		false,
		idx.New().String(),
		setupTokenTTL,
		time.Now().UTC(),
	)
	return s.Signer.Sign(claims)
}

// IssueNoAuthToken mints a session for the given user without credentials.
// It refuses unless the configured auth mode is "none", so a misconfigured
// secured deployment cannot silently hand out unauthenticated sessions.
func (s *TokenService) IssueNoAuthToken(user domain.User) (string, error) {
	if s.AuthMode != AuthModeNone {
		return "", fmt.Errorf("%w: auth mode is not none", domain.ErrUnauthorized)
	}
	return s.Issue(user)
}

// Refresh re-issues a token with an identical payload and a fresh expiry.
// Unlike Validate, it re-checks the claims against current state: the
// subject must still exist, their admin flag must not have changed since
// issuance, and the token must belong to this installation.
func (s *TokenService) Refresh(ctx context.Context, claims jwtx.Claims) (string, error) {
	user, err := s.Users.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return "", err
	}
	if user.Admin != claims.Admin {
		return "", fmt.Errorf("%w: user privileges have changed", domain.ErrUnauthorized)
	}
	if claims.InstanceID != s.InstanceID {
		return "", fmt.Errorf("%w: token was issued by another instance", domain.ErrUnauthorized)
	}

	next := jwtx.NewClaims(
		claims.Username, claims.Name,
		claims.Admin,
		claims.InstanceID,
		claims.OtpLegacySecret,
		idx.New().String(),
		s.SessionTTL,
		time.Now().UTC(),
	)
	return s.Signer.Sign(next)
}

// Validate is an intentionally minimal passthrough. Contextual re-checks
// (subject existence, privilege drift, instance binding) belong to Refresh;
// guards along the request path rely on Validate staying cheap and
// side-effect-free.
func (s *TokenService) Validate(claims jwtx.Claims) (jwtx.Claims, error) {
	return claims, nil
}

// Verify parses a compact token, checking signature and expiry.
func (s *TokenService) Verify(token string) (jwtx.Claims, error) {
	claims, err := s.Signer.Parse(token)
	if err != nil {
		return jwtx.Claims{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return claims, nil
}

// SessionTTLSeconds is the configured token lifetime in whole seconds, as
// reported to clients in sign-in responses.
func (s *TokenService) SessionTTLSeconds() int {
	return int(s.SessionTTL / time.Second)
}
