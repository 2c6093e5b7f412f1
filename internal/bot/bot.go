// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"avalon-game-bot/internal/config"
	"avalon-game-bot/internal/handler"
	"avalon-game-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot          *tele.Bot
	cfg          *config.Config
	lobbyHandler *handler.LobbyHandler
}

// New creates a new Bot instance. The returned bot exposes Messenger and
// Resolver so the lobby service can be wired to the same telebot
// connection.
func New(cfg *config.Config) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{bot: teleBot, cfg: cfg}, nil
}

// Messenger returns a fire-and-forget Messenger backed by this bot.
func (b *Bot) Messenger() service.Messenger {
	return &telegramMessenger{bot: b.bot}
}

// Resolver returns a display-name Resolver backed by this bot, bounded by
// the configured lookup timeout.
func (b *Bot) Resolver() service.Resolver {
	return &telegramResolver{bot: b.bot, timeout: b.cfg.Game.ResolveTimeout}
}

// Register wires the lobby service into the bot. Every text message goes
// through the command router; telebot's per-command routing cannot express
// the free-text synonyms the lobby accepts.
func (b *Bot) Register(lobby *service.Lobby) {
	b.lobbyHandler = handler.NewLobbyHandler(lobby)

	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RecoveryMiddleware())

	b.bot.Handle(tele.OnText, b.lobbyHandler.HandleText)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
