// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"avalon-game-bot/internal/model"
)

// Common errors for session repository operations.
var (
	// ErrSessionNotFound is returned when no session matches the lookup.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAmbiguousCode is returned when more than one session matches a
	// code. The unique index should make this unreachable; the branch is
	// kept so an invariant violation surfaces instead of picking a row.
	ErrAmbiguousCode = errors.New("multiple sessions share the same code")
	// ErrCodeTaken is returned when an insert collides with an existing
	// code. Callers regenerate and retry.
	ErrCodeTaken = errors.New("code already in use")
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const uniqueViolation = "23505"

// SessionRepository handles pending-session persistence.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = "id, code, creator_id, players, created_at"

// Create inserts a new session. A collision on the code unique index is
// reported as ErrCodeTaken so the caller can generate a fresh code.
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	const query = `
		INSERT INTO sessions (id, code, creator_id, players, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err := r.pool.Exec(ctx, query, session.ID, session.Code, session.CreatorID, session.Players)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrCodeTaken
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// FindByCreator retrieves all sessions owned by a creator, oldest first.
// The caller decides how to treat zero or multiple results.
func (r *SessionRepository) FindByCreator(ctx context.Context, creatorID string) ([]*model.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE creator_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions by creator: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// FindByCode retrieves the session matching a join code. Returns
// ErrSessionNotFound on zero matches and ErrAmbiguousCode when more than
// one row matches.
func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*model.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE code = $1
	`

	rows, err := r.pool.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find session by code: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}

	switch len(sessions) {
	case 0:
		return nil, ErrSessionNotFound
	case 1:
		return sessions[0], nil
	default:
		return nil, ErrAmbiguousCode
	}
}

// AppendPlayer appends a participant to the session matching code and
// returns the updated session, all in one round trip so concurrent joins
// on the same code cannot lose updates. Returns ErrSessionNotFound when no
// session matches and ErrAmbiguousCode when more than one row was updated.
func (r *SessionRepository) AppendPlayer(ctx context.Context, code string, p model.Participant) (*model.Session, error) {
	const query = `
		UPDATE sessions
		SET players = players || $2::jsonb
		WHERE code = $1
		RETURNING ` + sessionColumns

	rows, err := r.pool.Query(ctx, query, code, []model.Participant{p})
	if err != nil {
		return nil, fmt.Errorf("failed to append player: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}

	switch len(sessions) {
	case 0:
		return nil, ErrSessionNotFound
	case 1:
		return sessions[0], nil
	default:
		return nil, ErrAmbiguousCode
	}
}

// DeleteByCreator deletes all sessions owned by a creator and returns the
// number deleted. Deleting zero sessions is not an error.
func (r *SessionRepository) DeleteByCreator(ctx context.Context, creatorID string) (int64, error) {
	const query = `DELETE FROM sessions WHERE creator_id = $1`

	result, err := r.pool.Exec(ctx, query, creatorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteByID deletes a single session by id. Returns ErrSessionNotFound
// if the session no longer exists.
func (r *SessionRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM sessions WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// scanSessions drains rows into session models.
func scanSessions(rows pgx.Rows) ([]*model.Session, error) {
	var sessions []*model.Session
	for rows.Next() {
		var s model.Session
		err := rows.Scan(&s.ID, &s.Code, &s.CreatorID, &s.Players, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}
