package db

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/models"
)

const userColumns = `id, email, password_hash, display_name, bio, created_at, updated_at`

// CreateUser inserts a user. Returns ErrAlreadyExists when the email is taken
// (case-insensitive).
func (c *Client) CreateUser(ctx context.Context, email, passwordHash, displayName string) (_ *models.User, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	var u models.User
	err = pgxscan.Get(ctx, c.pool, &u, `
		INSERT INTO users (id, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		uuid.New(), email, passwordHash, displayName)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", wrapQueryError(err))
	}
	return &u, nil
}

// GetUserByEmail looks up a user by email, ignoring case.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (_ *models.User, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	var u models.User
	if err := pgxscan.Get(ctx, c.pool, &u,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email); err != nil {
		return nil, wrapQueryError(err)
	}
	return &u, nil
}

// GetUserByID looks up a user by id.
func (c *Client) GetUserByID(ctx context.Context, id uuid.UUID) (_ *models.User, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	var u models.User
	if err := pgxscan.Get(ctx, c.pool, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, wrapQueryError(err)
	}
	return &u, nil
}

// UpdateUser applies the non-nil fields. passwordHash replaces the stored hash when non-nil.
func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, displayName, bio, passwordHash *string) (_ *models.User, err error) {
	defer c.metrics.Track(metrics.OpDBQuery)(&err)

	var u models.User
	err = pgxscan.Get(ctx, c.pool, &u, `
		UPDATE users SET
			display_name  = COALESCE($2, display_name),
			bio           = COALESCE($3, bio),
			password_hash = COALESCE($4, password_hash),
			updated_at    = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, displayName, bio, passwordHash)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	return &u, nil
}
