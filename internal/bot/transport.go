// Telegram-backed implementations of the lobby's transport collaborators.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"avalon-game-bot/internal/service"
)

// telegramMessenger sends text to a user. Failures are logged and
// swallowed; the lobby observes no delivery guarantee.
type telegramMessenger struct {
	bot *tele.Bot
}

var _ service.Messenger = (*telegramMessenger)(nil)

func (m *telegramMessenger) Send(userID string, text string) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Invalid recipient id")
		return
	}

	if _, err := m.bot.Send(&tele.User{ID: id}, text); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send message")
	}
}

// telegramResolver looks up a user's display name. The lookup is a network
// call against the Telegram API, so it is bounded by a timeout.
type telegramResolver struct {
	bot     *tele.Bot
	timeout time.Duration
}

var _ service.Resolver = (*telegramResolver)(nil)

func (r *telegramResolver) Resolve(ctx context.Context, userID string) (string, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	timeout := r.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		chat *tele.Chat
		err  error
	}
	done := make(chan result, 1)
	go func() {
		chat, err := r.bot.ChatByID(id)
		done <- result{chat: chat, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("failed to look up user %s: %w", userID, res.err)
		}
		name := res.chat.Username
		if name == "" {
			name = res.chat.FirstName
		}
		if name == "" {
			return "", fmt.Errorf("user %s has no usable display name", userID)
		}
		return name, nil
	case <-ctx.Done():
		return "", fmt.Errorf("name lookup for user %s timed out: %w", userID, ctx.Err())
	}
}
