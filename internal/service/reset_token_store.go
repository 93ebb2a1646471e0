package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenStore registra los jti de tokens de reset para que solo se usen una vez.
type ResetTokenStore interface {
	Store(ctx context.Context, jti, userID string, ttl time.Duration) error
	Consume(ctx context.Context, jti string) (bool, error)
}

type memoryResetTokenStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemoryResetTokenStore() ResetTokenStore {
	return &memoryResetTokenStore{
		items: make(map[string]time.Time),
	}
}

func (s *memoryResetTokenStore) Store(_ context.Context, jti, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	s.items[jti] = time.Now().UTC().Add(ttl)
	return nil
}

func (s *memoryResetTokenStore) Consume(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[jti]
	if !ok {
		return false, nil
	}
	delete(s.items, jti)
	return time.Now().UTC().Before(exp), nil
}

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

type redisResetTokenStore struct {
	client redisKV
	prefix string
}

func NewRedisResetTokenStore(client *redis.Client) ResetTokenStore {
	if client == nil {
		return nil
	}
	return &redisResetTokenStore{
		client: client,
		prefix: "auth:reset:",
	}
}

func (s *redisResetTokenStore) Store(ctx context.Context, jti, userID string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, userID, ttl).Err()
}

// Consume usa GETDEL para que dos peticiones concurrentes no consuman el mismo token.
func (s *redisResetTokenStore) Consume(ctx context.Context, jti string) (bool, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	err := s.client.GetDel(ctx, s.prefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
