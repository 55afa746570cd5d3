package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/crado00/authkit/pkg/config"
	"github.com/crado00/authkit/pkg/db/models"
)

// Each test gets its own named in-memory database so state never leaks
// between tests through the shared cache.
func newTestClient(t *testing.T, name string) *Client {
	t.Helper()
	cfg := config.DBConfig{
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Driver: "sqlite",
	}
	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: "sqlite"}, nil)
	if err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestPingAndAutoMigrate(t *testing.T) {
	client := newTestClient(t, "clienttest_ping")
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := client.AutoMigrate(ctx); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	if !client.DB().Migrator().HasTable(&models.User{}) {
		t.Fatal("expected users table after auto-migrate")
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	client := newTestClient(t, "clienttest_commit")
	ctx := context.Background()
	if err := client.AutoMigrate(ctx); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		user := &models.User{
			Username:      "txuser",
			UsernameLower: "txuser",
			Email:         "txuser@example.com",
			FullName:      "Tx User",
			PasswordHash:  "x",
		}
		return tx.Create(user).Error
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 committed row, got %d", count)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newTestClient(t, "clienttest_rollback")
	ctx := context.Background()
	if err := client.AutoMigrate(ctx); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		user := &models.User{
			Username:      "ghost",
			UsernameLower: "ghost",
			Email:         "ghost@example.com",
			FullName:      "Ghost",
			PasswordHash:  "x",
		}
		if createErr := tx.Create(user).Error; createErr != nil {
			return createErr
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}

func TestUniqueViolationDetection(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_username_lower"}
	if !IsUniqueViolation(pgErr) {
		t.Fatal("pg 23505 must classify as unique violation")
	}
	column, ok := UniqueViolationColumn(fmt.Errorf("insert user: %w", pgErr))
	if !ok || column != "username_lower" {
		t.Fatalf("expected username_lower, got %q ok=%v", column, ok)
	}

	sqliteErr := errors.New("UNIQUE constraint failed: users.email")
	if !IsUniqueViolation(sqliteErr) {
		t.Fatal("sqlite message must classify as unique violation")
	}
	column, ok = UniqueViolationColumn(sqliteErr)
	if !ok || column != "email" {
		t.Fatalf("expected email, got %q ok=%v", column, ok)
	}

	if IsUniqueViolation(errors.New("connection refused")) {
		t.Fatal("unrelated errors must not classify as unique violations")
	}
	if _, ok := UniqueViolationColumn(nil); ok {
		t.Fatal("nil error must not yield a column")
	}
}
