package register

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crado00/authkit/internal/users"
	"github.com/crado00/authkit/pkg/db/models"
	dbtypes "github.com/crado00/authkit/pkg/db/types"
	"github.com/crado00/authkit/pkg/enums"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
	"github.com/crado00/authkit/pkg/logger"
	"github.com/crado00/authkit/pkg/metrics"
	"github.com/crado00/authkit/pkg/security"
)

// usernameShape restricts usernames to word characters, dots and dashes.
var usernameShape = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Request is the registration payload.
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type userStore interface {
	ExistsByUsernameCI(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
}

// Service creates new accounts: shape validation, uniqueness, password
// hashing, defaulted status flags and the base role.
type Service struct {
	store    userStore
	hasher   security.Hasher
	validate *validator.Validate
	metrics  *metrics.AuthMetrics
	logg     *logger.Logger
}

// ServiceParams bundles the registrar dependencies.
type ServiceParams struct {
	Store   userStore
	Hasher  security.Hasher
	Metrics *metrics.AuthMetrics
	Logger  *logger.Logger
}

// NewService constructs a registrar with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user store is required")
	}
	if params.Hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher is required")
	}
	return &Service{
		store:    params.Store,
		hasher:   params.Hasher,
		validate: validator.New(),
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Register validates the request and persists a new user with the default
// role set {user} and all status flags enabled. Uniqueness is ultimately
// enforced by the store's unique indexes; the exists pre-checks only avoid
// wasted hash work.
func (s *Service) Register(ctx context.Context, req Request) (*users.UserDTO, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if err := s.validateShape(req); err != nil {
		return nil, err
	}

	if taken, err := s.store.ExistsByUsernameCI(ctx, req.Username); err != nil {
		return nil, storeFailure(err, "check username")
	} else if taken {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateUsername, "username already taken")
	}
	if taken, err := s.store.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, storeFailure(err, "check email")
	} else if taken {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateEmail, "email already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Username:              req.Username,
		Email:                 req.Email,
		FullName:              req.FullName,
		PasswordHash:          hash,
		Roles:                 dbtypes.RoleList{enums.RoleUser},
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
		CreatedAt:             time.Now().UTC(),
	}

	created, err := s.store.Insert(ctx, user)
	if err != nil {
		// concurrent registrations surface here as typed duplicates
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, storeFailure(err, "insert user")
	}

	s.metrics.IncRegistration()
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"username": created.Username,
			"user_id":  created.ID,
		}), "user registered")
	}
	return users.FromModel(created), nil
}

func (s *Service) validateShape(req Request) error {
	if err := s.validate.Struct(req); err != nil {
		field := "request"
		var fieldErrs validator.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); ok && len(fieldErrs) > 0 {
			field = strings.ToLower(fieldErrs[0].Field())
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid registration").
			WithDetails(map[string]string{"field": field})
	}
	if !usernameShape.MatchString(req.Username) {
		return pkgerrors.New(pkgerrors.CodeValidation, "username contains invalid characters").
			WithDetails(map[string]string{"field": "username"})
	}
	if !looseEmailShape(req.Email) {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is malformed").
			WithDetails(map[string]string{"field": "email"})
	}
	return nil
}

// looseEmailShape requires exactly one @ with non-empty sides.
func looseEmailShape(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	return at < len(email)-1
}

func storeFailure(err error, message string) error {
	if pkgerrors.IsCancellation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeCancelled, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		*target = verrs
		return true
	}
	return false
}
