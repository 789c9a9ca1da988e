package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
	"github.com/openbridgehq/hubconsole/internal/console/store"
	"github.com/openbridgehq/hubconsole/pkg/cryptox"
)

// UserService owns the user records and their invariants: case-insensitive
// username uniqueness, sequential id assignment, and the rule that the store
// never drops to zero administrators by deletion.
type UserService struct {
	Store store.Users
}

// List returns all records. With strip set, secret material is removed from
// every record; this is the only shape that should leave the subsystem.
func (s *UserService) List(ctx context.Context, strip bool) ([]domain.User, error) {
	users, _, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !strip {
		return users, nil
	}

	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.Desensitized()
	}
	return out, nil
}

// FindByUsername returns the full record, secrets included. Callers outside
// the subsystem get the desensitized view instead.
func (s *UserService) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	users, _, err := s.Store.Load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("%w: %s", domain.ErrNotFound, username)
}

// FindByID returns the full record by id.
func (s *UserService) FindByID(ctx context.Context, id int) (domain.User, error) {
	users, _, err := s.Store.Load(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
}

// Add creates a record from the request, deriving a fresh salt and digest
// from the password. Returns the desensitized record.
func (s *UserService) Add(ctx context.Context, req domain.NewUser) (domain.User, error) {
	if req.Password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", domain.ErrInvalidRequest)
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return domain.User{}, err
	}

	var created domain.User
	err = s.mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		maxID := 0
		for _, u := range users {
			if strings.EqualFold(u.Username, req.Username) {
				return nil, fmt.Errorf("%w: %s", domain.ErrConflict, req.Username)
			}
			if u.ID > maxID {
				maxID = u.ID
			}
		}

		created = domain.User{
			ID:             maxID + 1,
			Username:       req.Username,
			Name:           req.Name,
			Admin:          req.Admin,
			HashedPassword: cryptox.HashPassword(req.Password, salt),
			Salt:           salt,
		}
		return append(users, created), nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return created.Desensitized(), nil
}

// Delete removes a record by id. It refuses to remove the last remaining
// administrator: a store with zero admins would lock everyone out.
func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		idx := -1
		admins := 0
		for i, u := range users {
			if u.Admin {
				admins++
			}
			if u.ID == id {
				idx = i
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}
		if users[idx].Admin && admins < 2 {
			return nil, fmt.Errorf("%w: cannot delete the only admin user", domain.ErrInvalidRequest)
		}
		return append(users[:idx], users[idx+1:]...), nil
	})
}

// Update applies a partial patch. A username change is checked for
// case-insensitive collisions against every other record. A nil Admin field
// leaves the flag untouched; an explicit value overwrites it, demotion
// included — unlike Delete, demoting the last admin is not guarded.
func (s *UserService) Update(ctx context.Context, id int, patch domain.UserPatch) (domain.User, error) {
	var updated domain.User
	err := s.mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		idx := -1
		for i, u := range users {
			if u.ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		}

		if patch.Username != nil {
			for i, u := range users {
				if i != idx && strings.EqualFold(u.Username, *patch.Username) {
					return nil, fmt.Errorf("%w: %s", domain.ErrConflict, *patch.Username)
				}
			}
			users[idx].Username = *patch.Username
		}
		if patch.Name != nil {
			users[idx].Name = *patch.Name
		}
		if patch.Admin != nil {
			users[idx].Admin = *patch.Admin
		}
		if patch.Password != nil {
			salt, err := cryptox.GenerateSalt()
			if err != nil {
				return nil, err
			}
			users[idx].Salt = salt
			users[idx].HashedPassword = cryptox.HashPassword(*patch.Password, salt)
		}

		updated = users[idx]
		return users, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated.Desensitized(), nil
}

// ChangePassword rotates a user's own password after proving the current one.
func (s *UserService) ChangePassword(ctx context.Context, username, current, next string) error {
	return s.mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		idx, err := indexOfUsername(users, username)
		if err != nil {
			return nil, err
		}

		digest := cryptox.HashPassword(current, users[idx].Salt)
		if !cryptox.Compare(digest, users[idx].HashedPassword) {
			return nil, domain.ErrAuthenticationFailed
		}

		salt, err := cryptox.GenerateSalt()
		if err != nil {
			return nil, err
		}
		users[idx].Salt = salt
		users[idx].HashedPassword = cryptox.HashPassword(next, salt)
		return users, nil
	})
}

// SetOtpSecret stores a freshly generated OTP secret without activating it.
func (s *UserService) SetOtpSecret(ctx context.Context, username, secret string) error {
	return s.mutateUser(ctx, username, func(u *domain.User) {
		u.OtpSecret = secret
		u.OtpActive = false
		u.OtpLegacySecret = false
	})
}

// ActivateOtp turns on second-factor enforcement for the user.
func (s *UserService) ActivateOtp(ctx context.Context, username string) error {
	return s.mutateUser(ctx, username, func(u *domain.User) {
		u.OtpActive = true
	})
}

// DeactivateOtp clears the secret and both state flags.
func (s *UserService) DeactivateOtp(ctx context.Context, username string) error {
	return s.mutateUser(ctx, username, func(u *domain.User) {
		u.OtpSecret = ""
		u.OtpActive = false
		u.OtpLegacySecret = false
	})
}

// MarkLegacyOtp flags a record whose secret verified via the legacy
// guardrail profile, so the UI can nudge the user to re-enrol.
func (s *UserService) MarkLegacyOtp(ctx context.Context, username string) error {
	return s.mutateUser(ctx, username, func(u *domain.User) {
		u.OtpLegacySecret = true
	})
}

func (s *UserService) mutateUser(ctx context.Context, username string, fn func(*domain.User)) error {
	return s.mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		idx, err := indexOfUsername(users, username)
		if err != nil {
			return nil, err
		}
		fn(&users[idx])
		return users, nil
	})
}

// mutate runs fn against a fresh snapshot and writes the result back through
// the store's compare-and-swap boundary. When another writer lands in
// between, the snapshot is reloaded and fn reapplied once.
func (s *UserService) mutate(ctx context.Context, fn func([]domain.User) ([]domain.User, error)) error {
	for attempt := 0; ; attempt++ {
		users, version, err := s.Store.Load(ctx)
		if err != nil {
			return err
		}

		next, err := fn(users)
		if err != nil {
			return err
		}

		err = s.Store.Replace(ctx, next, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrStaleVersion) || attempt >= 1 {
			return err
		}
	}
}

func indexOfUsername(users []domain.User, username string) (int, error) {
	for i, u := range users {
		if u.Username == username {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", domain.ErrNotFound, username)
}
