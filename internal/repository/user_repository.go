package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-directory/internal/domain"
)

// ErrDuplicate is returned when a write violates a uniqueness constraint.
// Uniqueness is enforced by the store, not by a pre-check, so racing
// writers are serialized by the index rather than by application locks.
var ErrDuplicate = errors.New("duplicate value")

const uniqueViolationCode = "23505"

// UserRepository defines persistence access for user records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUserName(ctx context.Context, userName string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateUserName(ctx context.Context, id, userName string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, user_name, email, secret_hash, is_verified)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.UserName,
		user.Email,
		user.SecretHash,
		user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapUnique(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, user_name, email, secret_hash, is_verified,
               verify_otp, verify_otp_expires_at, reset_otp, reset_otp_expires_at,
               created_at, updated_at
        FROM users WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByUserName(ctx context.Context, userName string) (*domain.User, error) {
	const query = `
        SELECT id, user_name, email, secret_hash, is_verified,
               verify_otp, verify_otp_expires_at, reset_otp, reset_otp_expires_at,
               created_at, updated_at
        FROM users WHERE user_name=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, userName))
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	const query = `
        SELECT id, user_name, email, secret_hash, is_verified,
               verify_otp, verify_otp_expires_at, reset_otp, reset_otp_expires_at,
               created_at, updated_at
        FROM users ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUserName touches only the user_name column; challenge and
// credential fields pass through unread.
func (r *userRepository) UpdateUserName(ctx context.Context, id, userName string) error {
	const query = `
        UPDATE users SET user_name=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, userName, id)
	if err != nil {
		return mapUnique(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.UserName,
		&user.Email,
		&user.SecretHash,
		&user.IsVerified,
		&user.VerifyOTP,
		&user.VerifyOTPExpiresAt,
		&user.ResetOTP,
		&user.ResetOTPExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	return err
}
