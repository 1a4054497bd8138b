package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	FindAdmin(ctx context.Context) (User, error)
	ListByRole(ctx context.Context, role auth.Role) ([]User, error)
	SetApproved(ctx context.Context, id string, approved bool) error
}

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `id, name, email, phone, shop_name, identity, profile, role, approved, password_hash,
	credit_amount, pending_amount, total_orders, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.ShopName, &u.Identity, &u.Profile, &u.Role, &u.Approved,
		&u.PasswordHash, &u.CreditAmount, &u.PendingAmount, &u.TotalOrders, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) Create(ctx context.Context, u *User) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(id, name, email, phone, shop_name, identity, profile, role, approved, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.Phone, u.ShopName, u.Identity, u.Profile, u.Role, u.Approved, u.PasswordHash,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (User, error) {
	if uuid.Validate(id) != nil {
		return User{}, ErrNotFound
	}
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email))
}

func (r *Repo) FindAdmin(ctx context.Context) (User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE role='admin' LIMIT 1`))
}

func (r *Repo) ListByRole(ctx context.Context, role auth.Role) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role=$1 ORDER BY created_at DESC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) SetApproved(ctx context.Context, id string, approved bool) error {
	ct, err := r.DB.Exec(ctx, `UPDATE users SET approved=$2, updated_at=NOW() WHERE id=$1`, id, approved)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
