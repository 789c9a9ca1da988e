package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/pkg/cryptox"
	"github.com/openbridgehq/hubconsole/pkg/otpx"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

// OtpTolerance is the drift window for code verification; the replay guard's
// TTL matches it so a code cannot outlive its own acceptance span.
const OtpTolerance = 90 * time.Second

// OtpService manages second-factor enrolment and verification.
type OtpService struct {
	Users  *UserService
	Engine *otpx.Engine
	Replay *ReplayGuard
}

// EnrollResponse is returned from Setup for authenticator-app enrolment.
type EnrollResponse struct {
	TimestampEpoch int64  `json:"timestamp"`
	OtpAuthURL     string `json:"otpauth"`
	Secret         string `json:"key"`
}

// Setup generates a new secret for the user and stores it inactive. The user
// must prove possession via Activate before the second factor is enforced.
func (s *OtpService) Setup(ctx context.Context, username string) (EnrollResponse, error) {
	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return EnrollResponse{}, err
	}
	if user.OtpActive {
		return EnrollResponse{}, fmt.Errorf("%w: 2fa is already active", domain.ErrInvalidRequest)
	}

	secret, err := s.Engine.GenerateSecret()
	if err != nil {
		return EnrollResponse{}, err
	}
	if err := s.Users.SetOtpSecret(ctx, username, secret); err != nil {
		return EnrollResponse{}, err
	}

	return EnrollResponse{
		TimestampEpoch: time.Now().Unix(),
		OtpAuthURL:     s.Engine.ProvisioningURI(username, secret),
		Secret:         secret,
	}, nil
}

// Activate enables the second factor after the user proves possession of the
// enrolled secret with a valid code.
func (s *OtpService) Activate(ctx context.Context, username, code string) error {
	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.OtpSecret == "" {
		return fmt.Errorf("%w: 2fa has not been set up", domain.ErrInvalidRequest)
	}

	if err := s.VerifyCode(ctx, user, code); err != nil {
		return err
	}
	return s.Users.ActivateOtp(ctx, username)
}

// Deactivate turns the second factor off. It requires the account password
// so a hijacked session cannot silently strip the protection.
func (s *OtpService) Deactivate(ctx context.Context, username, password string) error {
	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	digest := cryptox.HashPassword(password, user.Salt)
	if !cryptox.Compare(digest, user.HashedPassword) {
		return domain.ErrAuthenticationFailed
	}
	return s.Users.DeactivateOtp(ctx, username)
}

// VerifyCode checks a one-time code for a user. The replay guard runs first:
// a code already consumed inside the TTL window is rejected without
// re-running the OTP math. A success via the legacy guardrail profile flags
// the record so the user can be nudged to re-enrol.
func (s *OtpService) VerifyCode(ctx context.Context, user domain.User, code string) error {
	l := slogx.FromContext(ctx)

	if !s.Replay.Consume(user.Username, code) {
		l.Warn("otp code replayed", slog.String("username", user.Username))
		return domain.ErrTwoFactorInvalid
	}

	res := s.Engine.Verify(code, user.OtpSecret, OtpTolerance)
	if !res.Valid {
		l.Warn("otp verification failed",
			slog.String("username", user.Username),
			slog.String("reason", res.Reason),
		)
		return domain.ErrTwoFactorInvalid
	}

	if res.Legacy && !user.OtpLegacySecret {
		if err := s.Users.MarkLegacyOtp(ctx, user.Username); err != nil {
			return err
		}
		l.Warn("otp secret uses deprecated short format, user should re-enrol",
			slog.String("username", user.Username),
		)
	}
	return nil
}
