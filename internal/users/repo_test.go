package users

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Pharmacy{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(conn)
}

func seedUser(t *testing.T, repo *Repository, email string) *models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{
		Email:        email,
		PasswordHash: "hash",
		FullName:     "Test User",
		Role:         enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestCreateAndFindByEmail(t *testing.T) {
	repo := newTestRepo(t)
	created := seedUser(t, repo, "staff@pharmacy.test")

	found, err := repo.FindByEmail(context.Background(), "staff@pharmacy.test")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, found.ID)
	}
	if found.TokenVersion != 0 {
		t.Fatalf("new user should start at token_version 0, got %d", found.TokenVersion)
	}
}

func TestGetUserByIDMissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)
	user, err := repo.GetUserByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user for missing row, got %+v", user)
	}
}

func TestBumpTokenVersion(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "bump@pharmacy.test")

	if err := repo.BumpTokenVersion(context.Background(), user.ID); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if err := repo.BumpTokenVersion(context.Background(), user.ID); err != nil {
		t.Fatalf("bump: %v", err)
	}

	reloaded, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.TokenVersion != 2 {
		t.Fatalf("expected token_version 2, got %d", reloaded.TokenVersion)
	}
}

func TestUpdatePasswordBumpsTokenVersion(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "reset@pharmacy.test")

	if err := repo.UpdatePassword(context.Background(), user.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	reloaded, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.PasswordHash != "new-hash" {
		t.Fatalf("expected new hash, got %q", reloaded.PasswordHash)
	}
	if reloaded.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("expected token_version bump, got %d", reloaded.TokenVersion)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	repo := newTestRepo(t)
	user := seedUser(t, repo, "login@pharmacy.test")

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	if err := repo.UpdateLastLogin(context.Background(), user.ID, at); err != nil {
		t.Fatalf("update last login: %v", err)
	}

	reloaded, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.LastLoginAt == nil || !reloaded.LastLoginAt.Equal(at) {
		t.Fatalf("expected last login %v, got %v", at, reloaded.LastLoginAt)
	}
}
