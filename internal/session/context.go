package session

import (
	"context"

	"specflow/internal/domain"
)

type ctxKey struct{}

// WithStore devuelve un contexto que provee el Store a sus consumidores.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, store)
}

// FromContext falla con ConfigurationError si no hay un Store en el contexto.
func FromContext(ctx context.Context) (*Store, error) {
	store, ok := ctx.Value(ctxKey{}).(*Store)
	if !ok || store == nil {
		return nil, &domain.ConfigurationError{Setting: "session store", Reason: "accessed outside of a session provider"}
	}
	return store, nil
}

// MustFromContext es FromContext para codigo que no puede continuar sin sesion.
func MustFromContext(ctx context.Context) *Store {
	store, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return store
}
