package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/crado00/authkit/pkg/db"
	"github.com/crado00/authkit/pkg/db/models"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
)

// Repository exposes user persistence operations over GORM. Lookups are pure;
// each mutation is a single atomic statement and relies on the unique indexes
// for username/email collisions.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// updatableColumns lists the mutable fields persisted by Update. ID, username,
// email and created_at are write-once and deliberately absent.
var updatableColumns = []string{
	"full_name",
	"password_hash",
	"roles",
	"enabled",
	"account_non_expired",
	"account_non_locked",
	"credentials_non_expired",
	"last_login_at",
	"updated_at",
}

// FindByID loads a user by their numeric id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsernameCI retrieves the user whose username matches case-insensitively.
func (r *Repository) FindByUsernameCI(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username_lower = ?", canonicalUsername(username)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email exactly.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(email)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsernameOrEmail resolves a login identifier: username first under
// case-insensitive comparison, then email under exact comparison. The unique
// indexes make a double match impossible.
func (r *Repository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	user, err := r.FindByUsernameCI(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.FindByEmail(ctx, identifier)
}

// ExistsByUsernameCI reports whether a username is already taken, ignoring case.
func (r *Repository) ExistsByUsernameCI(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username_lower = ?", canonicalUsername(username)).
		Count(&count).Error
	return count > 0, err
}

// ExistsByEmail reports whether an email is already registered.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", strings.TrimSpace(email)).
		Count(&count).Error
	return count > 0, err
}

// FindAllEnabled returns every enabled user.
func (r *Repository) FindAllEnabled(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id").
		Find(&out).Error
	return out, err
}

// Insert persists a new user and returns it with the store-assigned id.
// Unique-index collisions surface as typed duplicate errors.
func (r *Repository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	user.UsernameLower = canonicalUsername(user.Username)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, mapDuplicate(err)
	}
	return user, nil
}

// Update persists the mutable fields of an existing user. Fails NOT_FOUND
// when the id does not exist.
func (r *Repository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now().UTC()
	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Select(updatableColumns).
		Updates(map[string]any{
			"full_name":               user.FullName,
			"password_hash":           user.PasswordHash,
			"roles":                   user.Roles,
			"enabled":                 user.Enabled,
			"account_non_expired":     user.AccountNonExpired,
			"account_non_locked":      user.AccountNonLocked,
			"credentials_non_expired": user.CredentialsNonExpired,
			"last_login_at":           user.LastLoginAt,
			"updated_at":              user.UpdatedAt,
		})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// Count returns the total number of users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

func mapDuplicate(err error) error {
	column, ok := db.UniqueViolationColumn(err)
	if !ok {
		return err
	}
	switch column {
	case "username_lower":
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateUsername, err, "username already taken")
	case "email":
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateEmail, err, "email already registered")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unique constraint violated")
	}
}

func canonicalUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
