package repository

import (
	"context"
	"errors"

	"phone-otp-auth/internal/user/domain"
)

var (
	// ErrPhoneTaken is returned by Create when a user with the same phone already exists.
	ErrPhoneTaken = errors.New("user: phone already registered")
	// ErrNotFound is returned by updates that match no user.
	ErrNotFound = errors.New("user: not found")
)

// Repository defines persistence for users.
type Repository interface {
	// GetByID returns the user for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByPhone returns the user for a normalized phone, or nil if not found.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	// Create persists u. The caller assigns u.ID.
	Create(ctx context.Context, u *domain.User) error
	SetState(ctx context.Context, userID string, state domain.VerificationState) error
	SetBlocked(ctx context.Context, phone string, blocked bool) error
}
