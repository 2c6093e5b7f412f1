// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"avalon-game-bot/internal/game/avalon"
	"avalon-game-bot/internal/game/code"
	"avalon-game-bot/internal/model"
	"avalon-game-bot/internal/repository"
)

// Common errors for lobby operations.
var (
	// ErrAlreadyActive is returned by Create when the creator already owns
	// a session.
	ErrAlreadyActive = errors.New("creator already has an active session")
	// ErrBadCodeFormat is returned by Join before any store access when
	// the code fails the format contract.
	ErrBadCodeFormat = errors.New("code has the wrong format")
	// ErrNoActiveSession is returned by List and Start when the creator
	// owns no session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrAmbiguousSessions signals the store invariant violation of a
	// creator owning multiple sessions. All of them have been deleted.
	ErrAmbiguousSessions = errors.New("multiple sessions for one creator")
	// ErrIdentityResolution is returned when the display name of the
	// requesting user cannot be resolved.
	ErrIdentityResolution = errors.New("could not resolve identity")
	// ErrCodeExhausted is returned when code generation keeps colliding
	// with active sessions.
	ErrCodeExhausted = errors.New("could not generate an unused code")
)

// Messenger delivers text to a user. Delivery is fire-and-forget; the
// lobby never observes the outcome.
type Messenger interface {
	Send(userID string, text string)
}

// Resolver looks up a user's display name on the messaging platform.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (string, error)
}

// SessionRepository is the session store the lobby mutates. Implemented
// by repository.SessionRepository.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByCreator(ctx context.Context, creatorID string) ([]*model.Session, error)
	FindByCode(ctx context.Context, code string) (*model.Session, error)
	AppendPlayer(ctx context.Context, code string, p model.Participant) (*model.Session, error)
	DeleteByCreator(ctx context.Context, creatorID string) (int64, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Lobby implements the game session lifecycle: create, join, list, start
// and exit. All state lives in the repository; concurrent commands are
// never serialized against each other, so every mutation is a single
// conditional store round trip.
type Lobby struct {
	repo         SessionRepository
	codes        *code.Generator
	messenger    Messenger
	resolver     Resolver
	codeAttempts int
}

// NewLobby creates a new Lobby instance.
func NewLobby(repo SessionRepository, codes *code.Generator, messenger Messenger, resolver Resolver, codeAttempts int) *Lobby {
	if codeAttempts <= 0 {
		codeAttempts = 5
	}
	return &Lobby{
		repo:         repo,
		codes:        codes,
		messenger:    messenger,
		resolver:     resolver,
		codeAttempts: codeAttempts,
	}
}

// CodeLength returns the configured join code width, for user-facing
// syntax messages.
func (l *Lobby) CodeLength() int {
	return l.codes.Length()
}

// Create creates a new session owned by creatorID with the creator as its
// only player and returns the join code. The secret variant uses the fixed
// hidden code so joiners never have to type a visible code.
func (l *Lobby) Create(ctx context.Context, creatorID string, secret bool) (string, error) {
	name, err := l.resolver.Resolve(ctx, creatorID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIdentityResolution, err)
	}

	existing, err := l.repo.FindByCreator(ctx, creatorID)
	if err != nil {
		return "", fmt.Errorf("failed to check active sessions: %w", err)
	}
	if len(existing) > 0 {
		return "", ErrAlreadyActive
	}

	session := &model.Session{
		ID:        uuid.New(),
		CreatorID: creatorID,
		Players:   []model.Participant{{UserID: creatorID, Name: name}},
		CreatedAt: time.Now(),
	}

	if secret {
		// Only one secret session can exist at a time; surface the
		// collision instead of retrying a fixed code.
		if _, err := l.repo.FindByCode(ctx, code.HiddenCode); err == nil {
			return "", fmt.Errorf("%w: quick-join code is in use", ErrCodeExhausted)
		} else if !errors.Is(err, repository.ErrSessionNotFound) {
			return "", fmt.Errorf("failed to check quick-join code: %w", err)
		}
		session.Code = code.HiddenCode
		if err := l.repo.Create(ctx, session); err != nil {
			if errors.Is(err, repository.ErrCodeTaken) {
				return "", fmt.Errorf("%w: quick-join code is in use", ErrCodeExhausted)
			}
			return "", fmt.Errorf("failed to create session: %w", err)
		}
		return session.Code, nil
	}

	for attempt := 0; attempt < l.codeAttempts; attempt++ {
		session.Code = l.codes.Generate()
		err := l.repo.Create(ctx, session)
		if errors.Is(err, repository.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create session: %w", err)
		}
		log.Info().
			Str("session_id", session.ID.String()).
			Str("creator_id", creatorID).
			Str("code", session.Code).
			Msg("Session created")
		return session.Code, nil
	}

	return "", ErrCodeExhausted
}

// Join appends userID to the session matching joinCode. The code format is
// validated before any store access. When the joiner is not the creator,
// the creator is notified.
func (l *Lobby) Join(ctx context.Context, userID, joinCode string) error {
	if !l.codes.Acceptable(joinCode) {
		return ErrBadCodeFormat
	}

	name, err := l.resolver.Resolve(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIdentityResolution, err)
	}

	session, err := l.repo.AppendPlayer(ctx, joinCode, model.Participant{UserID: userID, Name: name})
	if err != nil {
		return err
	}

	if session.CreatorID != userID {
		l.messenger.Send(session.CreatorID, fmt.Sprintf("%s joined your game.", name))
	}

	return nil
}

// List returns the roster of the creator's active session. On the store
// anomaly of multiple sessions for one creator it self-heals by deleting
// all of them and returns ErrAmbiguousSessions.
func (l *Lobby) List(ctx context.Context, creatorID string) (string, error) {
	session, err := l.activeSession(ctx, creatorID)
	if err != nil {
		return "", err
	}

	players := session.UniquePlayers()
	roster := fmt.Sprintf("Game %s has %d player(s):", session.Code, len(players))
	for i, p := range players {
		roster += fmt.Sprintf("\n%d. %s", i+1, p.Name)
	}
	return roster, nil
}

// Start consumes the creator's session: roles are assigned, each player
// receives their private reveal, and the session is deleted. Deletion
// happens only after assignment succeeds; delivery itself carries no
// guarantee.
func (l *Lobby) Start(ctx context.Context, creatorID string) error {
	session, err := l.activeSession(ctx, creatorID)
	if err != nil {
		return err
	}

	reveals, err := avalon.Assign(session.UniquePlayers(), session.Creator().Name)
	if err != nil {
		return err
	}

	for _, r := range reveals {
		l.messenger.Send(r.Player.UserID, r.Message)
	}

	if err := l.repo.DeleteByID(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to clear started session: %w", err)
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("creator_id", creatorID).
		Int("players", len(reveals)).
		Msg("Game started")
	return nil
}

// Exit deletes all sessions owned by creatorID and returns how many were
// deleted. Exiting with no active session is a no-op, never an error.
func (l *Lobby) Exit(ctx context.Context, creatorID string) (int64, error) {
	deleted, err := l.repo.DeleteByCreator(ctx, creatorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return deleted, nil
}

// activeSession loads the creator's single active session. Zero sessions
// yields ErrNoActiveSession. Multiple sessions violate the
// one-session-per-creator invariant; the blunt repair is to delete them
// all and report the anomaly rather than silently picking one.
func (l *Lobby) activeSession(ctx context.Context, creatorID string) (*model.Session, error) {
	sessions, err := l.repo.FindByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}

	switch len(sessions) {
	case 0:
		return nil, ErrNoActiveSession
	case 1:
		return sessions[0], nil
	default:
		log.Warn().
			Str("creator_id", creatorID).
			Int("sessions", len(sessions)).
			Msg("Creator owns multiple sessions, deleting all of them")
		if _, err := l.repo.DeleteByCreator(ctx, creatorID); err != nil {
			return nil, fmt.Errorf("failed to clear ambiguous sessions: %w", err)
		}
		return nil, ErrAmbiguousSessions
	}
}
