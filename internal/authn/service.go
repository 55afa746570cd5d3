package authn

import (
	"context"

	"github.com/crado00/authkit/pkg/db/models"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
	"github.com/crado00/authkit/pkg/logger"
	"github.com/crado00/authkit/pkg/metrics"
	"github.com/crado00/authkit/pkg/security"
)

// Service decides whether to admit a principal. Authenticate performs no
// writes; recording the login timestamp is the caller's follow-up through the
// accounts service.
type Service struct {
	directory *Directory
	hasher    security.Hasher
	metrics   *metrics.AuthMetrics
	logg      *logger.Logger
}

// ServiceParams bundles the authenticator dependencies.
type ServiceParams struct {
	Directory *Directory
	Hasher    security.Hasher
	Metrics   *metrics.AuthMetrics
	Logger    *logger.Logger
}

// NewService constructs an authenticator with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Directory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "directory is required")
	}
	if params.Hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher is required")
	}
	return &Service{
		directory: params.Directory,
		hasher:    params.Hasher,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// Authenticate runs the admission protocol in fixed order: resolve the
// identifier, verify the password, gate on account status, project
// authorities. Password verification runs before the status gates so account
// state is never disclosed for a caller who does not hold the password.
func (s *Service) Authenticate(ctx context.Context, identifier, cleartext string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, identifier, pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "authentication cancelled"))
	}

	user, err := s.directory.Resolve(ctx, identifier)
	if err != nil {
		return nil, s.fail(ctx, identifier, err)
	}

	if !s.hasher.Verify(cleartext, user.PasswordHash) {
		return nil, s.fail(ctx, identifier, pkgerrors.New(pkgerrors.CodeBadCredentials, "password verification failed"))
	}

	if err := statusGate(user); err != nil {
		return nil, s.fail(ctx, identifier, err)
	}

	principal := &Principal{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		FullName:    user.FullName,
		Authorities: ProjectAuthorities(user.Roles),
	}

	s.metrics.IncAttempt("success")
	if s.logg != nil {
		s.logg.Debug(s.logg.WithUsername(ctx, user.Username), "authentication succeeded")
	}
	return principal, nil
}

// statusGate evaluates the four account flags in fixed priority order; each
// failure is distinct and terminal.
func statusGate(user *models.User) error {
	switch {
	case !user.AccountNonExpired:
		return pkgerrors.New(pkgerrors.CodeAccountExpired, "account expired")
	case !user.AccountNonLocked:
		return pkgerrors.New(pkgerrors.CodeAccountLocked, "account locked")
	case !user.CredentialsNonExpired:
		return pkgerrors.New(pkgerrors.CodeCredentialsExpired, "credentials expired")
	case !user.Enabled:
		return pkgerrors.New(pkgerrors.CodeAccountDisabled, "account disabled")
	default:
		return nil
	}
}

func (s *Service) fail(ctx context.Context, identifier string, err error) error {
	code := pkgerrors.CodeOf(err)
	s.metrics.IncAttempt(string(code))
	if s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"identifier": identifier,
			"code":       code,
		}), "authentication failed")
	}
	return err
}
