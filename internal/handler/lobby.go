// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"avalon-game-bot/internal/command"
	"avalon-game-bot/internal/game/avalon"
	"avalon-game-bot/internal/repository"
	"avalon-game-bot/internal/service"
)

// LobbyHandler routes inbound text to lobby operations and converts every
// failure into a single user-facing reply. No failure crosses this
// boundary or takes down the command path for other users.
type LobbyHandler struct {
	lobby *service.Lobby
}

// NewLobbyHandler creates a new LobbyHandler.
func NewLobbyHandler(lobby *service.Lobby) *LobbyHandler {
	return &LobbyHandler{lobby: lobby}
}

// HandleText handles any inbound text message.
func (h *LobbyHandler) HandleText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	userID := strconv.FormatInt(sender.ID, 10)

	ctx := context.Background()
	cmd := command.Parse(c.Text())

	switch cmd.Kind {
	case command.Help:
		return c.Reply(h.helpText())
	case command.Create:
		return h.handleCreate(ctx, c, userID, cmd.Secret)
	case command.Join:
		return h.handleJoin(ctx, c, userID, cmd.Code)
	case command.List:
		return h.handleList(ctx, c, userID)
	case command.Start:
		return h.handleStart(ctx, c, userID)
	case command.Exit:
		return h.handleExit(ctx, c, userID)
	default:
		return c.Reply("I'm not that smart yet.\n\n" + h.helpText())
	}
}

func (h *LobbyHandler) handleCreate(ctx context.Context, c tele.Context, userID string, secret bool) error {
	joinCode, err := h.lobby.Create(ctx, userID, secret)
	switch {
	case err == nil && secret:
		return c.Reply("Successfully created a secret game. Players can join by sending 'yolo'.")
	case err == nil:
		return c.Reply(fmt.Sprintf("Successfully created the game. Use code %s to join.", joinCode))
	case errors.Is(err, service.ErrAlreadyActive):
		return c.Reply("You already have an active game. Send 'start' to begin it or 'exit' to discard it.")
	case errors.Is(err, service.ErrCodeExhausted):
		return c.Reply("I could not find a free code for your game. Please try again.")
	default:
		return h.replyError(c, userID, "create", err)
	}
}

func (h *LobbyHandler) handleJoin(ctx context.Context, c tele.Context, userID, joinCode string) error {
	if joinCode == "" {
		return c.Reply("Invalid syntax. The correct syntax is 'join <code>'.")
	}

	err := h.lobby.Join(ctx, userID, joinCode)
	switch {
	case err == nil:
		return c.Reply("Successfully joined the game.")
	case errors.Is(err, service.ErrBadCodeFormat):
		return c.Reply(fmt.Sprintf("Invalid code. The code should be a %d digit number.", h.lobby.CodeLength()))
	case errors.Is(err, repository.ErrSessionNotFound):
		return c.Reply(fmt.Sprintf("A game with the code %s was not found. Are you sure you have the right code?", joinCode))
	case errors.Is(err, repository.ErrAmbiguousCode):
		return c.Reply("Something went wrong (multiple games share that code). Please contact the developer.")
	default:
		return h.replyError(c, userID, "join", err)
	}
}

func (h *LobbyHandler) handleList(ctx context.Context, c tele.Context, userID string) error {
	roster, err := h.lobby.List(ctx, userID)
	switch {
	case err == nil:
		return c.Reply(roster)
	case errors.Is(err, service.ErrNoActiveSession):
		return c.Reply("You have no active game. Send 'create' to start one.")
	case errors.Is(err, service.ErrAmbiguousSessions):
		return c.Reply("Something went wrong: you owned multiple games, so I discarded all of them. Send 'create' to start over.")
	default:
		return h.replyError(c, userID, "list", err)
	}
}

func (h *LobbyHandler) handleStart(ctx context.Context, c tele.Context, userID string) error {
	err := h.lobby.Start(ctx, userID)
	var countErr *avalon.PlayerCountError
	switch {
	case err == nil:
		return c.Reply("The game has started. Everyone, check your messages!")
	case errors.Is(err, service.ErrNoActiveSession):
		return c.Reply("Could not find a game to start. Only creators are allowed to start games.")
	case errors.Is(err, service.ErrAmbiguousSessions):
		return c.Reply("Something went wrong: you owned multiple games, so I discarded all of them. Send 'create' to start over.")
	case errors.As(err, &countErr):
		return c.Reply(fmt.Sprintf("Avalon needs %d-%d players. There are currently %d player(s) in this game.",
			avalon.MinPlayers, avalon.MaxPlayers, countErr.Count))
	default:
		return h.replyError(c, userID, "start", err)
	}
}

func (h *LobbyHandler) handleExit(ctx context.Context, c tele.Context, userID string) error {
	deleted, err := h.lobby.Exit(ctx, userID)
	if err != nil {
		return h.replyError(c, userID, "exit", err)
	}
	if deleted == 0 {
		return c.Reply("You had no active game. Nothing to discard.")
	}
	return c.Reply("Your game has been discarded.")
}

// replyError reports a failure to the requesting user only. Resolution
// failures get their own message; everything else is a generic store or
// transport fault.
func (h *LobbyHandler) replyError(c tele.Context, userID, op string, err error) error {
	log.Error().
		Err(err).
		Str("user_id", userID).
		Str("operation", op).
		Msg("Lobby operation failed")

	if errors.Is(err, service.ErrIdentityResolution) {
		return c.Reply("I could not resolve your display name. Please try again.")
	}
	return c.Reply("I encountered an error. Please try again later.")
}

func (h *LobbyHandler) helpText() string {
	return "Supported commands:\n" +
		"create : Create a new game\n" +
		"create secret : Create a game joinable with 'yolo'\n" +
		"join <code> : Join the game with the matching code\n" +
		"yolo : Join the secret game\n" +
		"list : List the players in your game\n" +
		"start : Start your game and hand out roles\n" +
		"exit : Discard your game"
}
