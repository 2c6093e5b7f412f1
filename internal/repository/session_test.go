// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"avalon-game-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			code VARCHAR(16) NOT NULL,
			creator_id TEXT NOT NULL,
			players JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_code ON sessions(code);
		CREATE INDEX IF NOT EXISTS idx_sessions_creator ON sessions(creator_id)
	`)
	return err
}

func newSession(code, creatorID string) *model.Session {
	return &model.Session{
		ID:        uuid.New(),
		Code:      code,
		CreatorID: creatorID,
		Players:   []model.Participant{{UserID: creatorID, Name: "creator " + creatorID}},
	}
}

func TestSessionRepository_CreateAndFindByCode(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	session := newSession("1234", "alice")
	require.NoError(t, repo.Create(ctx, session))

	found, err := repo.FindByCode(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)
	assert.Equal(t, "alice", found.CreatorID)
	require.Len(t, found.Players, 1)
	assert.Equal(t, "alice", found.Players[0].UserID)
	assert.Equal(t, "creator alice", found.Players[0].Name)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestSessionRepository_Create_CodeTaken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("1234", "alice")))

	err := repo.Create(ctx, newSession("1234", "bob"))
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestSessionRepository_FindByCode_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)

	_, err := repo.FindByCode(context.Background(), "9999")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepository_FindByCreator(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("1111", "alice")))
	require.NoError(t, repo.Create(ctx, newSession("2222", "bob")))

	sessions, err := repo.FindByCreator(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "1111", sessions[0].Code)

	sessions, err = repo.FindByCreator(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionRepository_AppendPlayer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("1234", "alice")))

	updated, err := repo.AppendPlayer(ctx, "1234", model.Participant{UserID: "bob", Name: "Bob"})
	require.NoError(t, err)
	require.Len(t, updated.Players, 2)
	assert.Equal(t, "bob", updated.Players[1].UserID)

	// The same user joining again is appended as-is; the read boundary
	// de-duplicates.
	updated, err = repo.AppendPlayer(ctx, "1234", model.Participant{UserID: "bob", Name: "Bob"})
	require.NoError(t, err)
	assert.Len(t, updated.Players, 3)
	assert.Len(t, updated.UniquePlayers(), 2)
}

func TestSessionRepository_AppendPlayer_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)

	_, err := repo.AppendPlayer(context.Background(), "9999", model.Participant{UserID: "bob", Name: "Bob"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRepository_AppendPlayer_ConcurrentJoins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("1234", "alice")))

	// Two joins racing on the same code must both land: the append is a
	// single conditional round trip, so no update can be lost.
	errs := make(chan error, 2)
	for _, user := range []string{"bob", "carol"} {
		go func(user string) {
			_, err := repo.AppendPlayer(ctx, "1234", model.Participant{UserID: user, Name: user})
			errs <- err
		}(user)
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	found, err := repo.FindByCode(ctx, "1234")
	require.NoError(t, err)
	assert.Len(t, found.Players, 3)
}

func TestSessionRepository_DeleteByCreator(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("1111", "alice")))
	require.NoError(t, repo.Create(ctx, newSession("2222", "bob")))

	deleted, err := repo.DeleteByCreator(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Deleting again is a no-op, never an error.
	deleted, err = repo.DeleteByCreator(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, deleted)

	_, err = repo.FindByCode(ctx, "1111")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = repo.FindByCode(ctx, "2222")
	assert.NoError(t, err)
}

func TestSessionRepository_DeleteByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	session := newSession("1234", "alice")
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.DeleteByID(ctx, session.ID))
	assert.ErrorIs(t, repo.DeleteByID(ctx, session.ID), ErrSessionNotFound)
}
