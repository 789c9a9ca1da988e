package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/internal/console/store/file"
	"github.com/openbridgehq/hubconsole/pkg/jwtx"
	"github.com/openbridgehq/hubconsole/pkg/otpx"
)

const testInstanceID = "0b2f6c1e-9a44-4d55-8a2a-7f1c9e3d2b10"

type testKit struct {
	store  *file.Store
	setup  *SetupState
	users  *UserService
	otp    *OtpService
	tokens *TokenService
	auth   *AuthService
}

// newTestKit wires the full service stack over a temp-dir file store, in
// form auth mode unless overridden afterwards.
func newTestKit(t *testing.T) *testKit {
	t.Helper()

	st := file.New(filepath.Join(t.TempDir(), "auth.json"))
	setup := NewSetupState(false)
	users := &UserService{Store: st}
	otp := &OtpService{
		Users:  users,
		Engine: &otpx.Engine{Issuer: "Hub Console"},
		Replay: NewReplayGuard(OtpTolerance),
	}
	tokens := &TokenService{
		Signer:     jwtx.NewSigner([]byte("test-signing-secret")),
		Users:      users,
		Setup:      setup,
		InstanceID: testInstanceID,
		AuthMode:   AuthModeForm,
		SessionTTL: 8 * time.Hour,
	}
	auth := &AuthService{Users: users, Otp: otp, Tokens: tokens, Setup: setup}

	return &testKit{store: st, setup: setup, users: users, otp: otp, tokens: tokens, auth: auth}
}

func (k *testKit) seedUser(t *testing.T, req domain.NewUser) domain.User {
	t.Helper()
	u, err := k.users.Add(context.Background(), req)
	require.NoError(t, err)
	return u
}

// seedOtpUser stores the given secret on a seeded user and activates it.
func (k *testKit) seedOtpUser(t *testing.T, username, password, secret string) domain.User {
	t.Helper()
	ctx := context.Background()

	k.seedUser(t, domain.NewUser{Username: username, Name: username, Password: password})
	require.NoError(t, k.users.SetOtpSecret(ctx, username, secret))
	require.NoError(t, k.users.ActivateOtp(ctx, username))

	u, err := k.users.FindByUsername(ctx, username)
	require.NoError(t, err)
	return u
}
