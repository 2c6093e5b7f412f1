// Package main is the entry point for the Avalon matchmaking bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"avalon-game-bot/internal/bot"
	"avalon-game-bot/internal/config"
	"avalon-game-bot/internal/game/code"
	"avalon-game-bot/internal/pkg/db"
	"avalon-game-bot/internal/repository"
	"avalon-game-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize bot first: the lobby needs its transport adapters.
	telegramBot, err := bot.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	sessionRepo := repository.NewSessionRepository(dbPool.Pool)
	codes := code.NewGenerator(cfg.Game.CodeLength)

	lobby := service.NewLobby(
		sessionRepo,
		codes,
		telegramBot.Messenger(),
		telegramBot.Resolver(),
		cfg.Game.CodeAttempts,
	)

	telegramBot.Register(lobby)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create sessions table. The unique index on code backs
	// the lobby's generate-and-retry loop.
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			code VARCHAR(16) NOT NULL,
			creator_id TEXT NOT NULL,
			players JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_code ON sessions(code);
		CREATE INDEX IF NOT EXISTS idx_sessions_creator ON sessions(creator_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: sessions table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
