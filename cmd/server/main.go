package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/advice-chat/internal/config"
	"github.com/zhouzirui/advice-chat/internal/handler"
	"github.com/zhouzirui/advice-chat/internal/logging"
	"github.com/zhouzirui/advice-chat/internal/server"
	"github.com/zhouzirui/advice-chat/internal/service/advice"
	"github.com/zhouzirui/advice-chat/internal/service/conversation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Log)

	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, using system environment only")
	}

	client := advice.NewClient(cfg.Advice.BaseURL,
		advice.WithTimeout(cfg.Advice.Timeout),
		advice.WithBearerToken(cfg.Advice.Token),
	)

	registry := conversation.NewRegistry(client, conversation.Options{
		ConfirmationDelay: cfg.Advice.ConfirmationDelay,
	}, cfg.Gateway.MaxSessions, conversation.WithIdleTimeout(cfg.Gateway.IdleTimeout))
	defer registry.CloseAll()
	go registry.Run(ctx)

	log.Info().
		Str("advice_url", cfg.Advice.BaseURL).
		Int("max_sessions", cfg.Gateway.MaxSessions).
		Dur("session_idle_timeout", cfg.Gateway.IdleTimeout).
		Msg("widget gateway starting")

	srv := server.New(cfg.Server.Addr, handler.NewGatewayRouter(registry))
	if err := server.Run(ctx, srv, nil); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
