package integration

import (
	"context"
	"testing"

	"github.com/clinichq/clinic-server/internal/platform/auth"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	truncateAll(t, ctx)
	repo := auth.NewUserRepo(globalDB.Pool)

	hash, err := auth.HashPassword("staff-secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	u := &auth.User{Email: "Nurse@Clinic.example", PasswordHash: hash}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected created_at from database")
	}
	if u.Email != "nurse@clinic.example" {
		t.Errorf("expected lowercased email, got %q", u.Email)
	}

	// Lookup is case-insensitive through the same normalization.
	got, err := repo.GetByEmail(ctx, "NURSE@clinic.example")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, got.ID)
	}
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	truncateAll(t, ctx)
	repo := auth.NewUserRepo(globalDB.Pool)

	hash, _ := auth.HashPassword("pw")
	if err := repo.Create(ctx, &auth.User{Email: "dup@clinic.example", PasswordHash: hash}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := repo.Create(ctx, &auth.User{Email: "dup@clinic.example", PasswordHash: hash}); err == nil {
		t.Error("expected unique violation for duplicate email")
	}
}

func TestStaffStrategy_AgainstDatabase(t *testing.T) {
	ctx := context.Background()
	truncateAll(t, ctx)
	repo := auth.NewUserRepo(globalDB.Pool)

	hash, _ := auth.HashPassword("correct-password")
	u := &auth.User{Email: "doctor@clinic.example", PasswordHash: hash}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	strategy := auth.StaffStrategy{Users: repo}

	actor, err := strategy.Authenticate(ctx, "doctor@clinic.example", "correct-password")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if actor.ID != u.ID || actor.Role != auth.RoleStaff {
		t.Errorf("unexpected actor: %+v", actor)
	}

	if _, err := strategy.Authenticate(ctx, "doctor@clinic.example", "wrong"); err != auth.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := strategy.Authenticate(ctx, "nobody@clinic.example", "pw"); err != auth.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
