package graph

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnauthenticated is returned by operations that need a signed-in user.
var ErrUnauthenticated = errors.New("authentication required")

type ctxKey int

const userKey ctxKey = iota

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// UserFromContext returns the authenticated user id, if any.
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userKey).(uuid.UUID)
	return id, ok
}

func requireUser(ctx context.Context) (uuid.UUID, error) {
	id, ok := UserFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}
	return id, nil
}
