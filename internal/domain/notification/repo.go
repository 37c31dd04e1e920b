package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository stores notifications. Every lookup and mutation other than
// Create and SetDelivery takes the owning account ID and must not touch rows
// of other accounts.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, accountID, id uuid.UUID) (*Notification, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, int, error)
	ListUnread(ctx context.Context, accountID uuid.UUID) ([]*Notification, error)
	ListRecent(ctx context.Context, accountID uuid.UUID, n int) ([]*Notification, error)
	MarkRead(ctx context.Context, accountID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) (int, error)
	Delete(ctx context.Context, accountID, id uuid.UUID) error
	SetDelivery(ctx context.Context, id uuid.UUID, state string, sentAt *time.Time) error
}
