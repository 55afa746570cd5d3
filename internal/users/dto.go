package users

import (
	"time"

	"github.com/crado00/authkit/pkg/db/models"
	dbtypes "github.com/crado00/authkit/pkg/db/types"
)

// UserDTO is the transport shape that omits the credential hash.
type UserDTO struct {
	ID                    int64            `json:"id"`
	Username              string           `json:"username"`
	Email                 string           `json:"email"`
	FullName              string           `json:"full_name"`
	Roles                 dbtypes.RoleList `json:"roles"`
	Enabled               bool             `json:"enabled"`
	AccountNonExpired     bool             `json:"account_non_expired"`
	AccountNonLocked      bool             `json:"account_non_locked"`
	CredentialsNonExpired bool             `json:"credentials_non_expired"`
	CreatedAt             time.Time        `json:"created_at"`
	LastLoginAt           *time.Time       `json:"last_login_at,omitempty"`
}

// FromModel maps the persisted entity onto the credential-free DTO.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:                    user.ID,
		Username:              user.Username,
		Email:                 user.Email,
		FullName:              user.FullName,
		Roles:                 user.Roles,
		Enabled:               user.Enabled,
		AccountNonExpired:     user.AccountNonExpired,
		AccountNonLocked:      user.AccountNonLocked,
		CredentialsNonExpired: user.CredentialsNonExpired,
		CreatedAt:             user.CreatedAt,
		LastLoginAt:           user.LastLoginAt,
	}
}
