package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/pkg/jwtx"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	k := newTestKit(t)

	user := k.seedUser(t, domain.NewUser{Username: "admin", Name: "Administrator", Password: "pw", Admin: true})

	token, err := k.tokens.Issue(user)
	require.NoError(t, err)

	claims, err := k.tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Username)
	require.Equal(t, "Administrator", claims.Name)
	require.True(t, claims.Admin)
	require.Equal(t, testInstanceID, claims.InstanceID)
	require.NotEmpty(t, claims.ID, "every token carries a jti")
}

func TestTokenService_Refresh_Success(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	user := k.seedUser(t, domain.NewUser{Username: "admin", Password: "pw", Admin: true})

	token, err := k.tokens.Issue(user)
	require.NoError(t, err)
	claims, err := k.tokens.Verify(token)
	require.NoError(t, err)

	refreshed, err := k.tokens.Refresh(ctx, claims)
	require.NoError(t, err)

	next, err := k.tokens.Verify(refreshed)
	require.NoError(t, err)
	require.Equal(t, claims.Username, next.Username)
	require.Equal(t, claims.Admin, next.Admin)
	require.Equal(t, claims.InstanceID, next.InstanceID)
	require.NotEqual(t, claims.ID, next.ID, "refresh mints a new jti")
}

func TestTokenService_Refresh_UserGone(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	k.seedUser(t, domain.NewUser{Username: "admin", Password: "pw", Admin: true})
	bob := k.seedUser(t, domain.NewUser{Username: "bob", Password: "pw"})

	token, err := k.tokens.Issue(bob)
	require.NoError(t, err)
	claims, err := k.tokens.Verify(token)
	require.NoError(t, err)

	require.NoError(t, k.users.Delete(ctx, bob.ID))

	_, err = k.tokens.Refresh(ctx, claims)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_Refresh_PrivilegeChanged(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	k.seedUser(t, domain.NewUser{Username: "admin", Password: "pw", Admin: true})
	bob := k.seedUser(t, domain.NewUser{Username: "bob", Password: "pw", Admin: true})

	token, err := k.tokens.Issue(bob)
	require.NoError(t, err)
	claims, err := k.tokens.Verify(token)
	require.NoError(t, err)

	// Demote after issuance; the stale admin claim must not survive refresh.
	_, err = k.users.Update(ctx, bob.ID, domain.UserPatch{Admin: boolPtr(false)})
	require.NoError(t, err)

	_, err = k.tokens.Refresh(ctx, claims)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_Refresh_InstanceMismatch(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	user := k.seedUser(t, domain.NewUser{Username: "admin", Password: "pw", Admin: true})

	token, err := k.tokens.Issue(user)
	require.NoError(t, err)
	claims, err := k.tokens.Verify(token)
	require.NoError(t, err)

	// A token minted by another installation of the same software.
	claims.InstanceID = "b4c00000-dead-beef-0000-000000000000"

	_, err = k.tokens.Refresh(ctx, claims)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_Validate_IsPassthrough(t *testing.T) {
	// Validate must stay cheap and side-effect-free; the contextual checks
	// belong to Refresh alone. This pins the asymmetry.
	k := newTestKit(t)

	claims := jwtx.NewClaims("ghost", "Ghost", true, "not-this-instance", false, "jti", time.Minute, time.Now())

	out, err := k.tokens.Validate(claims)
	require.NoError(t, err)
	require.Equal(t, claims, out)
}

func TestTokenService_IssueSetupToken(t *testing.T) {
	k := newTestKit(t)

	token, err := k.tokens.IssueSetupToken()
	require.NoError(t, err)

	claims, err := k.tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, setupUsername, claims.Username)
	require.True(t, claims.Admin)
	require.Equal(t, setupInstanceSentinel, claims.InstanceID)
	require.NotEqual(t, testInstanceID, claims.InstanceID,
		"the sentinel must never match a real instance id")

	ttl := time.Until(claims.ExpiresAt.Time)
	require.LessOrEqual(t, ttl, 300*time.Second)
	require.Greater(t, ttl, 290*time.Second)

	// A setup token can never be promoted into a real session via refresh.
	_, err = k.tokens.Refresh(context.Background(), claims)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_IssueSetupToken_RefusedAfterSetup(t *testing.T) {
	k := newTestKit(t)
	k.setup.Set(true)

	_, err := k.tokens.IssueSetupToken()
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_IssueNoAuthToken_ModeGuard(t *testing.T) {
	k := newTestKit(t)
	user := k.seedUser(t, domain.NewUser{Username: "admin", Password: "pw", Admin: true})

	// Form mode: refusing here stops a misconfiguration from minting
	// unauthenticated sessions in a secured deployment.
	_, err := k.tokens.IssueNoAuthToken(user)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	k.tokens.AuthMode = AuthModeNone
	token, err := k.tokens.IssueNoAuthToken(user)
	require.NoError(t, err)

	claims, err := k.tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Username)
	require.Equal(t, testInstanceID, claims.InstanceID)
}
