package register

import (
	"context"
	"testing"

	"github.com/crado00/authkit/internal/authn"
	"github.com/crado00/authkit/internal/users"
	"github.com/crado00/authkit/pkg/config"
	"github.com/crado00/authkit/pkg/db"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
	"github.com/crado00/authkit/pkg/security"
)

// Register then authenticate against the real repository and bcrypt hasher.
func TestRegisterAuthenticateRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{
		DSN:    "file:register_roundtrip?mode=memory&cache=shared",
		Driver: "sqlite",
	}, nil)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.AutoMigrate(ctx); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	repo := users.NewRepository(client.DB())
	hasher := security.NewBcryptHasher(config.PasswordConfig{BcryptCost: 10})

	registrar, err := NewService(ServiceParams{Store: repo, Hasher: hasher})
	if err != nil {
		t.Fatalf("registrar: %v", err)
	}
	authenticator, err := authn.NewService(authn.ServiceParams{
		Directory: authn.NewDirectory(repo),
		Hasher:    hasher,
	})
	if err != nil {
		t.Fatalf("authenticator: %v", err)
	}

	dto, err := registrar.Register(ctx, Request{
		Username: "Wanda",
		Email:    "wanda@example.com",
		FullName: "Wanda Maximoff",
		Password: "hex-vision-1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	principal, err := authenticator.Authenticate(ctx, "wanda", "hex-vision-1")
	if err != nil {
		t.Fatalf("authenticate by username: %v", err)
	}
	if principal.UserID != dto.ID || principal.Username != "Wanda" {
		t.Fatalf("unexpected principal %+v", principal)
	}
	if len(principal.Authorities) != 1 || principal.Authorities[0] != "ROLE_USER" {
		t.Fatalf("unexpected authorities %v", principal.Authorities)
	}

	if _, err := authenticator.Authenticate(ctx, "wanda@example.com", "hex-vision-1"); err != nil {
		t.Fatalf("authenticate by email: %v", err)
	}

	_, err = authenticator.Authenticate(ctx, "wanda", "wrong-password")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeBadCredentials {
		t.Fatalf("expected BAD_CREDENTIALS, got %v", err)
	}
}
