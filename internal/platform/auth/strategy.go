package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by every strategy on any failure, so
// callers cannot distinguish a wrong password from an unknown account.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Strategy authenticates a credential pair and yields the actor it belongs to.
// Strategies are selected by configuration, not hardcoded into business logic:
// the admin strategy is only wired when the admin account is configured.
type Strategy interface {
	Authenticate(ctx context.Context, email, password string) (Actor, error)
}

// AdminStrategy authenticates the single configured administrator account.
// The credential pair lives in configuration (email + bcrypt hash), and the
// resulting actor carries the distinguished admin identifier.
type AdminStrategy struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
}

func (s AdminStrategy) Authenticate(_ context.Context, email, password string) (Actor, error) {
	if !strings.EqualFold(email, s.Email) {
		return Actor{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)); err != nil {
		return Actor{}, ErrInvalidCredentials
	}
	return Actor{ID: s.UserID, Role: RoleAdmin}, nil
}

// User is a staff account in the users table.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
}

// StaffStrategy authenticates regular staff against the users table.
type StaffStrategy struct {
	Users UserRepository
}

func (s StaffStrategy) Authenticate(ctx context.Context, email, password string) (Actor, error) {
	u, err := s.Users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return Actor{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Actor{}, ErrInvalidCredentials
	}
	return Actor{ID: u.ID, Role: RoleStaff}, nil
}

// Chain tries each strategy in order and returns the first success.
type Chain []Strategy

func (c Chain) Authenticate(ctx context.Context, email, password string) (Actor, error) {
	for _, s := range c {
		actor, err := s.Authenticate(ctx, email, password)
		if err == nil {
			return actor, nil
		}
	}
	return Actor{}, ErrInvalidCredentials
}

// HashPassword produces a bcrypt hash suitable for the users table or the
// ADMIN_PASSWORD_HASH setting.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
