package authn

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/crado00/authkit/pkg/db/models"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
)

type identifierResolver interface {
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error)
}

// Directory resolves a login identifier to a user record. The identifier is
// treated as a username first (case-insensitive), then as an email (exact).
type Directory struct {
	store identifierResolver
}

// NewDirectory builds a directory over the given user store.
func NewDirectory(store identifierResolver) *Directory {
	return &Directory{store: store}
}

// Resolve returns the user for the identifier or UNKNOWN_PRINCIPAL.
func (d *Directory) Resolve(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnknownPrincipal, "empty identifier")
	}

	user, err := d.store.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnknownPrincipal, err, "identifier did not resolve")
		}
		if pkgerrors.IsCancellation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeCancelled, err, "lookup cancelled")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}
