package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const accountCols = `id, handle, password_hash, role, first_name, last_name, email, phone,
	superuser, active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO account (id, handle, password_hash, role, first_name, last_name, email, phone, superuser, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.Handle, a.PasswordHash, a.Role, a.FirstName, a.LastName, a.Email, a.Phone, a.Superuser, a.Active,
	)
	if isUniqueViolation(err) {
		return ErrHandleTaken
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM account WHERE id = $1`, id))
}

func (r *repoPG) GetByHandle(ctx context.Context, handle string) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM account WHERE handle = $1`, handle))
}

func (r *repoPG) Update(ctx context.Context, a *Account) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE account SET
			handle=$2, password_hash=$3, role=$4, first_name=$5, last_name=$6,
			email=$7, phone=$8, superuser=$9, active=$10, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Handle, a.PasswordHash, a.Role, a.FirstName, a.LastName,
		a.Email, a.Phone, a.Superuser, a.Active,
	)
	if isUniqueViolation(err) {
		return ErrHandleTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM account WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM account`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+accountCols+` FROM account ORDER BY handle LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		a, err := scanAccountRows(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, a)
	}
	return accounts, total, rows.Err()
}

func (r *repoPG) CountPrivileged(ctx context.Context, excludeHandle string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM account WHERE superuser AND handle <> $1`, excludeHandle).Scan(&n)
	return n, err
}

func (r *repoPG) DeleteByHandle(ctx context.Context, handle string, excludeID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM account WHERE handle = $1 AND id <> $2`, handle, excludeID)
	return err
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Handle, &a.PasswordHash, &a.Role, &a.FirstName, &a.LastName,
		&a.Email, &a.Phone, &a.Superuser, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccountRows(rows pgx.Rows) (*Account, error) {
	var a Account
	err := rows.Scan(&a.ID, &a.Handle, &a.PasswordHash, &a.Role, &a.FirstName, &a.LastName,
		&a.Email, &a.Phone, &a.Superuser, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
