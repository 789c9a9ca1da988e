package otpx

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testTolerance = 90 * time.Second

func TestGenerateSecret(t *testing.T) {
	e := &Engine{Issuer: "Hub Console"}

	secret, err := e.GenerateSecret()
	require.NoError(t, err)
	require.Len(t, secret, 32, "20 raw bytes encode to 32 base32 characters")

	other, err := e.GenerateSecret()
	require.NoError(t, err)
	require.NotEqual(t, secret, other)
}

func TestProvisioningURI(t *testing.T) {
	e := &Engine{Issuer: "Hub Console"}

	uri := e.ProvisioningURI("admin", "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP")
	require.Contains(t, uri, "otpauth://totp/")
	require.Contains(t, uri, "Hub%20Console:admin")
	require.Contains(t, uri, "secret=JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP")
	require.Contains(t, uri, "issuer=Hub+Console")
}

func TestVerify_StandardSecret(t *testing.T) {
	e := &Engine{Issuer: "Hub Console"}

	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)

	res := e.Verify(code, secret, testTolerance)
	require.True(t, res.Valid)
	require.False(t, res.Legacy, "modern secret must not report the legacy path")
	require.Empty(t, res.Reason)
}

func TestVerify_WrongCode(t *testing.T) {
	e := &Engine{Issuer: "Hub Console"}

	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	res := e.Verify("000000", secret, testTolerance)
	require.False(t, res.Valid)
	require.Equal(t, ReasonCodeMismatch, res.Reason)
}

func TestVerify_LegacySecret(t *testing.T) {
	e := &Engine{Issuer: "Hub Console"}

	// 10 raw bytes / 16 encoded characters: the old generator's format.
	const legacySecret = "JBSWY3DPEHPK3PXP"
	require.Len(t, legacySecret, LegacySecretLength)

	code, err := totp.GenerateCode(legacySecret, time.Now().UTC())
	require.NoError(t, err)

	res := e.Verify(code, legacySecret, testTolerance)
	require.True(t, res.Valid, "legacy secret should verify via the legacy profile")
	require.True(t, res.Legacy, "caller needs to know the legacy path was used")
}

func TestVerify_LegacySecretWrongCode(t *testing.T) {
	e := &Engine{Issuer: "Hub Console"}

	res := e.Verify("000000", "JBSWY3DPEHPK3PXP", testTolerance)
	require.False(t, res.Valid)
	require.False(t, res.Legacy)
	require.Equal(t, ReasonCodeMismatch, res.Reason)
}

func TestVerify_SecretTooShortForAnyProfile(t *testing.T) {
	e := &Engine{Issuer: "Hub Console"}

	// Shorter than even the legacy minimum.
	res := e.Verify("000000", "JBSWY3DP", testTolerance)
	require.False(t, res.Valid)
	require.Equal(t, ReasonSecretTooShort, res.Reason)
}

func TestVerify_MalformedSecret(t *testing.T) {
	e := &Engine{Issuer: "Hub Console"}

	// Right length for the standard profile, but not base32.
	res := e.Verify("000000", "!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!", testTolerance)
	require.False(t, res.Valid)
	require.Equal(t, ReasonSecretInvalid, res.Reason)
}

func TestSkewFor(t *testing.T) {
	require.Equal(t, uint(1), skewFor(0), "tolerance never drops below one step either side")
	require.Equal(t, uint(1), skewFor(90*time.Second))
	require.Equal(t, uint(2), skewFor(120*time.Second))
}
