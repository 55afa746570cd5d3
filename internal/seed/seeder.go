package seed

import (
	"context"
	"time"

	"github.com/crado00/authkit/pkg/config"
	"github.com/crado00/authkit/pkg/db/models"
	dbtypes "github.com/crado00/authkit/pkg/db/types"
	"github.com/crado00/authkit/pkg/enums"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
	"github.com/crado00/authkit/pkg/logger"
	"github.com/crado00/authkit/pkg/metrics"
	"github.com/crado00/authkit/pkg/security"
)

// Account describes one canonical user created on first start.
type Account struct {
	Username              string
	Email                 string
	FullName              string
	Password              string
	Roles                 []enums.Role
	Enabled               bool
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
}

// DefaultAccounts returns the canonical demo set: one account per status
// dimension plus the three role tiers. Passwords come from configuration.
func DefaultAccounts(cfg config.SeederConfig) []Account {
	all := func() (bool, bool, bool, bool) { return true, true, true, true }

	accounts := []Account{
		{
			Username: "admin",
			Email:    "admin@example.com",
			FullName: "Administrator",
			Password: cfg.AdminPassword,
			Roles:    []enums.Role{enums.RoleAdmin, enums.RoleManager, enums.RoleUser},
		},
		{
			Username: "manager",
			Email:    "manager@example.com",
			FullName: "Manager",
			Password: cfg.ManagerPassword,
			Roles:    []enums.Role{enums.RoleManager, enums.RoleUser},
		},
		{
			Username: "user",
			Email:    "user@example.com",
			FullName: "Regular User",
			Password: cfg.UserPassword,
			Roles:    []enums.Role{enums.RoleUser},
		},
		{
			Username: "disabled",
			Email:    "disabled@example.com",
			FullName: "Disabled User",
			Password: cfg.DisabledPassword,
			Roles:    []enums.Role{enums.RoleUser},
		},
		{
			Username: "locked",
			Email:    "locked@example.com",
			FullName: "Locked User",
			Password: cfg.LockedPassword,
			Roles:    []enums.Role{enums.RoleUser},
		},
		{
			Username: "expired",
			Email:    "expired@example.com",
			FullName: "Expired User",
			Password: cfg.ExpiredPassword,
			Roles:    []enums.Role{enums.RoleUser},
		},
		{
			Username: "stalepass",
			Email:    "stalepass@example.com",
			FullName: "Stale Credentials User",
			Password: cfg.StalePassPassword,
			Roles:    []enums.Role{enums.RoleUser},
		},
	}

	for i := range accounts {
		accounts[i].Enabled, accounts[i].AccountNonExpired,
			accounts[i].AccountNonLocked, accounts[i].CredentialsNonExpired = all()
	}

	for i := range accounts {
		switch accounts[i].Username {
		case "disabled":
			accounts[i].Enabled = false
		case "locked":
			accounts[i].AccountNonLocked = false
		case "expired":
			accounts[i].AccountNonExpired = false
		case "stalepass":
			accounts[i].CredentialsNonExpired = false
		}
	}

	return accounts
}

type userStore interface {
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
}

// Seeder inserts the canonical accounts exactly once per empty store.
type Seeder struct {
	store    userStore
	hasher   security.Hasher
	accounts []Account
	metrics  *metrics.AuthMetrics
	logg     *logger.Logger
}

// New builds a seeder for the given account set.
func New(store userStore, hasher security.Hasher, accounts []Account, m *metrics.AuthMetrics, logg *logger.Logger) (*Seeder, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user store is required")
	}
	if hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher is required")
	}
	return &Seeder{
		store:    store,
		hasher:   hasher,
		accounts: accounts,
		metrics:  m,
		logg:     logg,
	}, nil
}

// Run seeds the store when and only when it is empty. A non-empty store is a
// silent skip.
func (s *Seeder) Run(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	if count > 0 {
		if s.logg != nil {
			s.logg.Info(ctx, "user store not empty, skipping seed")
		}
		return nil
	}

	if s.logg != nil {
		s.logg.Warn(ctx, "seeding demo accounts with cleartext passwords from configuration; disable the seeder in production")
	}

	for _, account := range s.accounts {
		hash, err := s.hasher.Hash(account.Password)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash seed password")
		}

		user := &models.User{
			Username:              account.Username,
			Email:                 account.Email,
			FullName:              account.FullName,
			PasswordHash:          hash,
			Roles:                 dbtypes.RoleList(account.Roles),
			Enabled:               account.Enabled,
			AccountNonExpired:     account.AccountNonExpired,
			AccountNonLocked:      account.AccountNonLocked,
			CredentialsNonExpired: account.CredentialsNonExpired,
			CreatedAt:             time.Now().UTC(),
		}

		if _, err := s.store.Insert(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert seed account")
		}
		s.metrics.IncSeeded()
		if s.logg != nil {
			s.logg.Info(s.logg.WithUsername(ctx, account.Username), "seed account created")
		}
	}

	return nil
}
