package authn

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/crado00/authkit/pkg/db/models"
	dbtypes "github.com/crado00/authkit/pkg/db/types"
	"github.com/crado00/authkit/pkg/enums"
	pkgerrors "github.com/crado00/authkit/pkg/errors"
)

// stubStore holds users in memory and mirrors the repository's resolution
// order: username (case-insensitive) first, email (exact) second.
type stubStore struct {
	users   []*models.User
	failure error
}

func (s *stubStore) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	if s.failure != nil {
		return nil, s.failure
	}
	lower := strings.ToLower(strings.TrimSpace(identifier))
	for _, user := range s.users {
		if strings.ToLower(user.Username) == lower {
			return user, nil
		}
	}
	for _, user := range s.users {
		if user.Email == identifier {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// stubHasher treats "hash:"+cleartext as the encoded form.
type stubHasher struct{}

func (stubHasher) Hash(cleartext string) (string, error) { return "hash:" + cleartext, nil }

func (stubHasher) Verify(cleartext, encoded string) bool { return encoded == "hash:"+cleartext }

func stubUser(username, email, password string, roles ...enums.Role) *models.User {
	if len(roles) == 0 {
		roles = []enums.Role{enums.RoleUser}
	}
	return &models.User{
		ID:                    1,
		Username:              username,
		Email:                 email,
		FullName:              "Stub User",
		PasswordHash:          "hash:" + password,
		Roles:                 dbtypes.RoleList(roles),
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
}

func newTestService(t *testing.T, store *stubStore) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Directory: NewDirectory(store),
		Hasher:    stubHasher{},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestAuthenticateSuccess(t *testing.T) {
	store := &stubStore{users: []*models.User{
		stubUser("alice", "alice@example.com", "secret", enums.RoleAdmin, enums.RoleManager, enums.RoleUser),
	}}
	svc := newTestService(t, store)

	principal, err := svc.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.Username != "alice" || principal.Email != "alice@example.com" {
		t.Fatalf("unexpected principal %+v", principal)
	}
	want := []string{"ROLE_ADMIN", "ROLE_MANAGER", "ROLE_USER"}
	if !reflect.DeepEqual(principal.Authorities, want) {
		t.Fatalf("authorities %v, want %v", principal.Authorities, want)
	}
}

func TestAuthenticateUsernameCaseInsensitive(t *testing.T) {
	store := &stubStore{users: []*models.User{stubUser("Alice", "alice@example.com", "secret")}}
	svc := newTestService(t, store)

	for _, probe := range []string{"alice", "ALICE", "aLiCe"} {
		principal, err := svc.Authenticate(context.Background(), probe, "secret")
		if err != nil {
			t.Fatalf("probe %q: %v", probe, err)
		}
		if principal.Username != "Alice" {
			t.Fatalf("probe %q resolved %q", probe, principal.Username)
		}
	}
}

func TestAuthenticateByEmail(t *testing.T) {
	store := &stubStore{users: []*models.User{stubUser("alice", "alice@example.com", "secret")}}
	svc := newTestService(t, store)

	principal, err := svc.Authenticate(context.Background(), "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.UserID != 1 {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestAuthenticateUnknownPrincipal(t *testing.T) {
	svc := newTestService(t, &stubStore{})

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnknownPrincipal {
		t.Fatalf("expected UNKNOWN_PRINCIPAL, got %v", err)
	}
}

func TestAuthenticateEmptyIdentifier(t *testing.T) {
	svc := newTestService(t, &stubStore{})

	_, err := svc.Authenticate(context.Background(), "   ", "whatever")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnknownPrincipal {
		t.Fatalf("expected UNKNOWN_PRINCIPAL, got %v", err)
	}
}

func TestAuthenticateBadPassword(t *testing.T) {
	store := &stubStore{users: []*models.User{stubUser("alice", "alice@example.com", "secret")}}
	svc := newTestService(t, store)

	_, err := svc.Authenticate(context.Background(), "alice", "wrong")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeBadCredentials {
		t.Fatalf("expected BAD_CREDENTIALS, got %v", err)
	}
}

func TestAuthenticateStatusGates(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(*models.User)
		want  pkgerrors.Code
	}{
		{"expired", func(u *models.User) { u.AccountNonExpired = false }, pkgerrors.CodeAccountExpired},
		{"locked", func(u *models.User) { u.AccountNonLocked = false }, pkgerrors.CodeAccountLocked},
		{"stale credentials", func(u *models.User) { u.CredentialsNonExpired = false }, pkgerrors.CodeCredentialsExpired},
		{"disabled", func(u *models.User) { u.Enabled = false }, pkgerrors.CodeAccountDisabled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := stubUser("alice", "alice@example.com", "secret")
			tc.tweak(user)
			svc := newTestService(t, &stubStore{users: []*models.User{user}})

			_, err := svc.Authenticate(context.Background(), "alice", "secret")
			if pkgerrors.CodeOf(err) != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
		})
	}
}

func TestStatusGatePriority(t *testing.T) {
	// All four flags tripped at once: expiry is reported first.
	user := stubUser("alice", "alice@example.com", "secret")
	user.AccountNonExpired = false
	user.AccountNonLocked = false
	user.CredentialsNonExpired = false
	user.Enabled = false
	svc := newTestService(t, &stubStore{users: []*models.User{user}})

	_, err := svc.Authenticate(context.Background(), "alice", "secret")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeAccountExpired {
		t.Fatalf("expected ACCOUNT_EXPIRED to win, got %v", err)
	}
}

func TestStatusGateNotDisclosedWithoutPassword(t *testing.T) {
	// Wrong password on a locked account must report bad credentials, not the
	// lock, so account state is never probed without the password.
	user := stubUser("alice", "alice@example.com", "secret")
	user.AccountNonLocked = false
	svc := newTestService(t, &stubStore{users: []*models.User{user}})

	_, err := svc.Authenticate(context.Background(), "alice", "wrong")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeBadCredentials {
		t.Fatalf("expected BAD_CREDENTIALS, got %v", err)
	}
}

func TestAuthenticateCancelledContext(t *testing.T) {
	svc := newTestService(t, &stubStore{users: []*models.User{stubUser("alice", "alice@example.com", "secret")}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Authenticate(ctx, "alice", "secret")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeCancelled {
		t.Fatalf("expected CANCELLED, got %v", err)
	}
}

func TestAuthenticateStoreFailure(t *testing.T) {
	svc := newTestService(t, &stubStore{failure: errors.New("connection refused")})

	_, err := svc.Authenticate(context.Background(), "alice", "secret")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInternal {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestNewServiceValidatesParams(t *testing.T) {
	if _, err := NewService(ServiceParams{Hasher: stubHasher{}}); err == nil {
		t.Fatal("expected error without directory")
	}
	if _, err := NewService(ServiceParams{Directory: NewDirectory(&stubStore{})}); err == nil {
		t.Fatal("expected error without hasher")
	}
}
