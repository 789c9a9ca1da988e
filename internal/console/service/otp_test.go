package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
)

const legacyTestSecret = "JBSWY3DPEHPK3PXP" // 10 raw bytes, old generator format

func codeFor(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)
	return code
}

func TestReplayGuard_Consume(t *testing.T) {
	g := NewReplayGuard(90 * time.Second)

	require.True(t, g.Consume("admin", "123456"))
	require.False(t, g.Consume("admin", "123456"), "same user and code is a replay")

	// Different code or different user is a fresh key.
	require.True(t, g.Consume("admin", "654321"))
	require.True(t, g.Consume("bob", "123456"))
}

func TestReplayGuard_ExpiryFreesKey(t *testing.T) {
	g := NewReplayGuard(90 * time.Second)

	now := time.Now()
	g.now = func() time.Time { return now }

	require.True(t, g.Consume("admin", "123456"))
	require.False(t, g.Consume("admin", "123456"))

	now = now.Add(91 * time.Second)
	require.True(t, g.Consume("admin", "123456"), "entries expire after the TTL")
}

func TestOtpService_SetupActivateFlow(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	k.seedUser(t, domain.NewUser{Username: "admin", Password: "pw", Admin: true})

	enroll, err := k.otp.Setup(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, enroll.Secret, 32)
	require.Contains(t, enroll.OtpAuthURL, "otpauth://totp/")

	// Secret stored, but not enforced yet.
	stored, err := k.users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, enroll.Secret, stored.OtpSecret)
	require.False(t, stored.OtpActive)

	// Activation needs a valid code.
	require.ErrorIs(t, k.otp.Activate(ctx, "admin", "000000"), domain.ErrTwoFactorInvalid)
	require.NoError(t, k.otp.Activate(ctx, "admin", codeFor(t, enroll.Secret)))

	stored, err = k.users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	require.True(t, stored.OtpActive)
}

func TestOtpService_Setup_RefusedWhileActive(t *testing.T) {
	k := newTestKit(t)
	k.seedOtpUser(t, "admin", "pw", legacyTestSecret)

	_, err := k.otp.Setup(context.Background(), "admin")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestOtpService_Activate_WithoutSetup(t *testing.T) {
	k := newTestKit(t)
	k.seedUser(t, domain.NewUser{Username: "admin", Password: "pw", Admin: true})

	err := k.otp.Activate(context.Background(), "admin", "123456")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestOtpService_VerifyCode_RejectsReplay(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	secret, err := k.otp.Engine.GenerateSecret()
	require.NoError(t, err)
	user := k.seedOtpUser(t, "admin", "pw", secret)

	code := codeFor(t, secret)
	require.NoError(t, k.otp.VerifyCode(ctx, user, code))
	require.ErrorIs(t, k.otp.VerifyCode(ctx, user, code), domain.ErrTwoFactorInvalid,
		"an accepted code must not be accepted twice within the TTL window")
}

func TestOtpService_VerifyCode_LegacySecretFlagsRecord(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()

	user := k.seedOtpUser(t, "admin", "pw", legacyTestSecret)
	require.False(t, user.OtpLegacySecret)

	require.NoError(t, k.otp.VerifyCode(ctx, user, codeFor(t, legacyTestSecret)))

	flagged, err := k.users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	require.True(t, flagged.OtpLegacySecret,
		"a legacy-profile success must mark the record for re-enrolment")
}

func TestOtpService_Deactivate(t *testing.T) {
	k := newTestKit(t)
	ctx := context.Background()
	k.seedOtpUser(t, "admin", "pw", legacyTestSecret)

	require.ErrorIs(t, k.otp.Deactivate(ctx, "admin", "wrong"), domain.ErrAuthenticationFailed)
	require.NoError(t, k.otp.Deactivate(ctx, "admin", "pw"))

	stored, err := k.users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Empty(t, stored.OtpSecret, "deactivation clears the secret")
	require.False(t, stored.OtpActive)
	require.False(t, stored.OtpLegacySecret)
}
