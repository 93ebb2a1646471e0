package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"specflow/internal/domain"
)

// SubscriberRepository persiste los suscriptores del newsletter. Create devuelve ErrDuplicate si el email ya existe.
type SubscriberRepository interface {
	Create(ctx context.Context, sub domain.Subscriber) error
	GetByEmail(ctx context.Context, email string) (domain.Subscriber, error)
}

type PgSubscriberRepository struct {
	pool *pgxpool.Pool
}

func NewPgSubscriberRepository(pool *pgxpool.Pool) *PgSubscriberRepository {
	return &PgSubscriberRepository{pool: pool}
}

func (r *PgSubscriberRepository) Create(ctx context.Context, sub domain.Subscriber) error {
	const query = `INSERT INTO subscribers (email, subscribed_at) VALUES ($1, $2)`
	_, err := r.pool.Exec(ctx, query, sub.Email, sub.SubscribedAt)
	return translate(err)
}

func (r *PgSubscriberRepository) GetByEmail(ctx context.Context, email string) (domain.Subscriber, error) {
	const query = `SELECT email, subscribed_at FROM subscribers WHERE email = $1`
	var s domain.Subscriber
	if err := r.pool.QueryRow(ctx, query, email).Scan(&s.Email, &s.SubscribedAt); err != nil {
		return domain.Subscriber{}, translate(err)
	}
	return s, nil
}
