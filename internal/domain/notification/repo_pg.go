package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const notificationCols = `id, account_id, type, title, body, read, delivery, related_kind, related_id, created_at, sent_at`

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Delivery == "" {
		n.Delivery = DeliveryPending
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO notification (id, account_id, type, title, body, read, delivery, related_kind, related_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		n.ID, n.AccountID, n.Type, n.Title, n.Body, n.Read, n.Delivery, n.RelatedKind, n.RelatedID,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, accountID, id uuid.UUID) (*Notification, error) {
	return scanNotification(r.conn(ctx).QueryRow(ctx,
		`SELECT `+notificationCols+` FROM notification WHERE id = $1 AND account_id = $2`, id, accountID))
}

func (r *repoPG) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM notification WHERE account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+notificationCols+` FROM notification
		 WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectNotifications(rows)
	return list, total, err
}

func (r *repoPG) ListUnread(ctx context.Context, accountID uuid.UUID) ([]*Notification, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+notificationCols+` FROM notification
		 WHERE account_id = $1 AND NOT read ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

func (r *repoPG) ListRecent(ctx context.Context, accountID uuid.UUID, n int) ([]*Notification, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+notificationCols+` FROM notification
		 WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`, accountID, n)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

func (r *repoPG) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notification SET read = TRUE WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) MarkAllRead(ctx context.Context, accountID uuid.UUID) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notification SET read = TRUE WHERE account_id = $1 AND NOT read`, accountID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repoPG) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM notification WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SetDelivery(ctx context.Context, id uuid.UUID, state string, sentAt *time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE notification SET delivery = $2, sent_at = $3 WHERE id = $1`, id, state, sentAt)
	return err
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.AccountID, &n.Type, &n.Title, &n.Body, &n.Read,
		&n.Delivery, &n.RelatedKind, &n.RelatedID, &n.CreatedAt, &n.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func collectNotifications(rows pgx.Rows) ([]*Notification, error) {
	defer rows.Close()
	var list []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Type, &n.Title, &n.Body, &n.Read,
			&n.Delivery, &n.RelatedKind, &n.RelatedID, &n.CreatedAt, &n.SentAt); err != nil {
			return nil, err
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}
