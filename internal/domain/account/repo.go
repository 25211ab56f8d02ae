package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence interface for accounts.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListDoctors(ctx context.Context, limit, offset int) ([]*Account, int, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) error
}
