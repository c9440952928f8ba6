package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Prasanna018/code-collab-backend/internal/domain"
)

// sessionColumns must match the Scan order in scanSession.
const sessionColumns = `id, code, language, created_at, updated_at`

// SessionRepo implements domain.SessionStore backed by PostgreSQL.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) scanSession(row pgx.Row) (domain.Session, error) {
	var session domain.Session
	err := row.Scan(&session.ID, &session.Code, &session.Language, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	return session, nil
}

func (r *SessionRepo) Create(ctx context.Context, session domain.Session) error {
	query := `INSERT INTO sessions (id, code, language, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.pool.Exec(ctx, query, session.ID, session.Code, session.Language, session.CreatedAt, session.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanSession(r.pool.QueryRow(ctx, query, id))
}

func (r *SessionRepo) UpdateCode(ctx context.Context, id, code string) error {
	query := `UPDATE sessions SET code = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, code)
	if err != nil {
		return fmt.Errorf("failed to update code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) UpdateLanguage(ctx context.Context, id, language string) error {
	query := `UPDATE sessions SET language = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, language)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
