package account

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByHandle(ctx context.Context, handle string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Account, int, error)

	// CountPrivileged counts superuser accounts whose handle differs from
	// excludeHandle.
	CountPrivileged(ctx context.Context, excludeHandle string) (int, error)
	// DeleteByHandle removes the account with the given handle, skipping the
	// row identified by excludeID. Removing a nonexistent account is not an
	// error.
	DeleteByHandle(ctx context.Context, handle string, excludeID uuid.UUID) error
}
