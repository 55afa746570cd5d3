package models

import (
	"time"

	dbtypes "github.com/crado00/authkit/pkg/db/types"
)

// User is the canonical identity entity. Username uniqueness is
// case-insensitive: the repository maintains UsernameLower and the unique
// index lives on that column.
type User struct {
	ID                    int64            `gorm:"primaryKey;autoIncrement"`
	Username              string           `gorm:"type:text;not null"`
	UsernameLower         string           `gorm:"column:username_lower;type:text;not null;uniqueIndex:idx_users_username_lower"`
	Email                 string           `gorm:"type:text;not null;uniqueIndex:idx_users_email"`
	FullName              string           `gorm:"column:full_name;type:text;not null"`
	PasswordHash          string           `gorm:"column:password_hash;not null"`
	Roles                 dbtypes.RoleList `gorm:"type:text;not null"`
	Enabled               bool             `gorm:"not null;default:true"`
	AccountNonExpired     bool             `gorm:"column:account_non_expired;not null;default:true"`
	AccountNonLocked      bool             `gorm:"column:account_non_locked;not null;default:true"`
	CredentialsNonExpired bool             `gorm:"column:credentials_non_expired;not null;default:true"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	LastLoginAt           *time.Time       `gorm:"column:last_login_at"`
}
