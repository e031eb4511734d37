package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/models"
)

// SessionRepo keeps the single currently valid refresh token per user.
// PRIMARY KEY on user_id plus the upsert below enforce last-writer-wins:
// a second login or a rotation silently supersedes the previous session.
type SessionRepo struct {
	DB DBTX
}

const putSession = `-- name: PutSession
INSERT INTO sessions (user_id, refresh_token, created_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET refresh_token = EXCLUDED.refresh_token,
    created_at = EXCLUDED.created_at,
    expires_at = EXCLUDED.expires_at
`

func (r *SessionRepo) Put(ctx context.Context, userID uuid.UUID, refreshToken string, expiresAt time.Time) error {
	_, err := r.DB.Exec(ctx, putSession, userID, refreshToken, time.Now(), expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const getSession = `-- name: GetSession if not expired
SELECT user_id, refresh_token, created_at, expires_at
FROM sessions
WHERE user_id = $1 AND expires_at > $2
`

func (r *SessionRepo) Get(ctx context.Context, userID uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, getSession, userID, time.Now())
	session, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Session, error) {
		var s models.Session
		err := row.Scan(&s.UserID, &s.RefreshToken, &s.CreatedAt, &s.ExpiresAt)
		return s, err
	})

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, pgx.ErrNoRows):
		return session, apperrors.ErrSessionNotFound
	default:
		return session, fmt.Errorf("db error: %w", err)
	}
}

const deleteSession = `-- name: DeleteSession
DELETE FROM sessions
WHERE user_id = $1
`

// Delete is idempotent: removing an absent session is not an error
func (r *SessionRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, deleteSession, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions
DELETE FROM sessions
WHERE expires_at <= $1
`

// DeleteExpired sweeps rows the Get filter already treats as absent.
// Stands in for the TTL eviction a KV backend would do itself
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpiredSessions, time.Now())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}
