package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/pkg/cryptox"
	"github.com/openbridgehq/hubconsole/pkg/slogx"
)

// AuthService orchestrates the login flow: user lookup, password
// verification, second factor when active, then token issuance. It also owns
// the first-run setup and no-auth bootstrap paths.
type AuthService struct {
	Users  *UserService
	Otp    *OtpService
	Tokens *TokenService
	Setup  *SetupState
}

// Authenticate runs the credential checks and returns the desensitized
// profile on success.
//
// Unknown user and wrong password both come back as ErrAuthenticationFailed
// so the response cannot be used to probe for account names; the
// distinguishing detail is only written to the server log. A missing code on
// an OTP-active account is the distinct ErrTwoFactorRequired, since at that
// point the password has already been proven correct.
func (s *AuthService) Authenticate(ctx context.Context, username, password, otpCode string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("login failed: unknown username", slog.String("username", username))
			return domain.User{}, domain.ErrAuthenticationFailed
		}
		return domain.User{}, err
	}

	digest := cryptox.HashPassword(password, user.Salt)
	if !cryptox.Compare(digest, user.HashedPassword) {
		l.Warn("login failed: password mismatch", slog.String("username", username))
		return domain.User{}, domain.ErrAuthenticationFailed
	}

	if user.OtpActive {
		if otpCode == "" {
			return domain.User{}, domain.ErrTwoFactorRequired
		}
		if err := s.Otp.VerifyCode(ctx, user, otpCode); err != nil {
			return domain.User{}, err
		}
	}

	return user.Desensitized(), nil
}

// SignIn authenticates and mints a session in one step.
func (s *AuthService) SignIn(ctx context.Context, username, password, otpCode string) (domain.Session, error) {
	user, err := s.Authenticate(ctx, username, password, otpCode)
	if err != nil {
		return domain.Session{}, err
	}

	token, err := s.Tokens.Issue(user)
	if err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.Tokens.SessionTTLSeconds(),
	}, nil
}

// SetupFirstUser creates the initial administrator during first-run setup.
// It replaces the store contents outright and forces admin=true regardless
// of the caller's input, then marks setup complete. Refused once an admin
// exists.
func (s *AuthService) SetupFirstUser(ctx context.Context, req domain.NewUser) (domain.User, error) {
	if s.Setup.Complete() {
		return domain.User{}, fmt.Errorf("%w: setup has already been completed", domain.ErrUnauthorized)
	}
	if req.Password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", domain.ErrInvalidRequest)
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return domain.User{}, err
	}

	admin := domain.User{
		ID:             1,
		Username:       req.Username,
		Name:           req.Name,
		Admin:          true, // first user is always an administrator
		HashedPassword: cryptox.HashPassword(req.Password, salt),
		Salt:           salt,
	}

	_, version, err := s.Users.Store.Load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.Users.Store.Replace(ctx, []domain.User{admin}, version); err != nil {
		return domain.User{}, err
	}

	s.Setup.Set(true)
	slogx.FromContext(ctx).Info("first-run setup complete",
		slog.String("username", admin.Username),
	)
	return admin.Desensitized(), nil
}

// GenerateSetupWizardToken mints the bootstrap token for the setup wizard
// while setup is still incomplete.
func (s *AuthService) GenerateSetupWizardToken(ctx context.Context) (string, error) {
	return s.Tokens.IssueSetupToken()
}

// GenerateNoAuthToken bypasses the login state machine entirely and issues a
// session bound to the first admin found. The token service enforces that
// the configured auth mode is "none".
func (s *AuthService) GenerateNoAuthToken(ctx context.Context) (domain.Session, error) {
	users, _, err := s.Users.Store.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	var admin *domain.User
	for i := range users {
		if users[i].Admin {
			admin = &users[i]
			break
		}
	}
	if admin == nil {
		return domain.Session{}, fmt.Errorf("%w: no admin user exists", domain.ErrUnauthorized)
	}

	token, err := s.Tokens.IssueNoAuthToken(*admin)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		User:        admin.Desensitized(),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.Tokens.SessionTTLSeconds(),
	}, nil
}

// CheckAuthFile re-evaluates the backing store and updates the runtime setup
// flag, e.g. after the auth file was restored or deleted out from under a
// running process.
func (s *AuthService) CheckAuthFile(ctx context.Context) (bool, error) {
	complete, err := s.Users.Store.SetupComplete(ctx)
	if err != nil {
		return false, err
	}
	s.Setup.Set(complete)
	return complete, nil
}
