package accounts

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/crado00/authkit/internal/users"
	"github.com/crado00/authkit/pkg/db/models"
	"github.com/crado00/authkit/pkg/enums"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
	"github.com/crado00/authkit/pkg/logger"
)

type userStore interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsernameCI(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Service mutates existing accounts: status flags, role membership and the
// last-login timestamp. Every operation is idempotent with respect to its
// arguments.
type Service struct {
	store userStore
	logg  *logger.Logger
}

// NewService constructs an account admin service.
func NewService(store userStore, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user store is required")
	}
	return &Service{store: store, logg: logg}, nil
}

// UpdateStatus sets the enabled and account-non-locked flags.
func (s *Service) UpdateStatus(ctx context.Context, userID int64, enabled, accountNonLocked bool) (*users.UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Enabled = enabled
	user.AccountNonLocked = accountNonLocked

	updated, err := s.store.Update(ctx, user)
	if err != nil {
		return nil, updateFailure(err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"username":           updated.Username,
			"enabled":            enabled,
			"account_non_locked": accountNonLocked,
		}), "account status updated")
	}
	return users.FromModel(updated), nil
}

// AddRole grants a role; granting an already-held role is a no-op.
func (s *Service) AddRole(ctx context.Context, userID int64, role enums.Role) (*users.UserDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role").
			WithDetails(map[string]string{"field": "role"})
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Roles.Contains(role) {
		return users.FromModel(user), nil
	}

	user.Roles = user.Roles.With(role)
	updated, err := s.store.Update(ctx, user)
	if err != nil {
		return nil, updateFailure(err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"username": updated.Username,
			"role":     role,
		}), "role granted")
	}
	return users.FromModel(updated), nil
}

// RemoveRole revokes a role but refuses to leave the role set empty.
func (s *Service) RemoveRole(ctx context.Context, userID int64, role enums.Role) (*users.UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Roles.Contains(role) {
		return users.FromModel(user), nil
	}
	if len(user.Roles) == 1 {
		return nil, pkgerrors.New(pkgerrors.CodeRoleFloor, "cannot remove the last role")
	}

	user.Roles = user.Roles.Without(role)
	updated, err := s.store.Update(ctx, user)
	if err != nil {
		return nil, updateFailure(err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"username": updated.Username,
			"role":     role,
		}), "role revoked")
	}
	return users.FromModel(updated), nil
}

// TouchLastLogin stamps last_login_at for the username. It runs on the login
// happy path and must never raise: an unknown username is a silent no-op.
func (s *Service) TouchLastLogin(ctx context.Context, username string) {
	user, err := s.store.FindByUsernameCI(ctx, username)
	if err != nil {
		if s.logg != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithUsername(ctx, username), "last-login lookup failed")
		}
		return
	}

	now := time.Now().UTC()
	if err := s.store.UpdateLastLogin(ctx, user.ID, now); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUsername(ctx, username), "last-login update failed")
		}
		return
	}
	if s.logg != nil {
		s.logg.Debug(s.logg.WithUsername(ctx, username), "last login updated")
	}
}

func (s *Service) load(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		if pkgerrors.IsCancellation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "lookup cancelled")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func updateFailure(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if pkgerrors.IsCancellation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "update cancelled")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist user")
}
