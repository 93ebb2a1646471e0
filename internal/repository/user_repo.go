package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"specflow/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, profile_picture, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var hash *string
	if user.PasswordHash != "" {
		hash = &user.PasswordHash
	}
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		hash,
		user.ProfilePicture,
		user.CreatedAt,
	)
	return translate(err)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, name, email, password_hash, profile_picture, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, name, email, password_hash, profile_picture, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`
	return r.scanOne(ctx, query, email)
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) scanOne(ctx context.Context, query string, arg string) (domain.User, error) {
	var (
		u    domain.User
		hash *string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&hash,
		&u.ProfilePicture,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, translate(err)
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	return u, nil
}
