package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/advice-chat/internal/config"
	"github.com/zhouzirui/advice-chat/internal/handler"
	"github.com/zhouzirui/advice-chat/internal/logging"
	"github.com/zhouzirui/advice-chat/internal/middleware"
	"github.com/zhouzirui/advice-chat/internal/server"
	"github.com/zhouzirui/advice-chat/internal/service/account"
	"github.com/zhouzirui/advice-chat/internal/service/ai"
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

	fallback := ai.NewFallbackAdvisor()
	var advisor ai.Advisor = fallback
	if cfg.AI.Enabled() {
		svc, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize AI service, using canned advice")
		} else {
			if cfg.AI.Timeout >= cfg.Advice.Timeout {
				log.Warn().
					Dur("ark_timeout", cfg.AI.Timeout).
					Dur("advice_timeout", cfg.Advice.Timeout).
					Msg("ARK_TIMEOUT is not below ADVICE_TIMEOUT, a hung model leaves no time for canned advice")
			}
			advisor = ai.Chain{ai.WithTimeout(svc, cfg.AI.Timeout), fallback}
			log.Info().Str("model", cfg.AI.Model).Msg("AI service initialized")
		}
	} else {
		log.Info().Msg("Ark credentials not configured, using canned advice")
	}

	secret := cfg.Account.JWTSecret
	if secret == "" {
		// tokens will not survive a restart
		secret = uuid.NewString()
		log.Warn().Msg("AUTH_JWT_SECRET not set, using a random signing key")
	}

	opts := handler.AdvisorOptions{
		Accounts: account.NewService(secret, cfg.Account.TokenTTL),
		Timeout:  cfg.Advice.Timeout,
	}
	if cfg.Account.RequireAuth {
		opts.Auth = middleware.NewJWTAuth(secret)
	}
	if cfg.Account.RateLimit > 0 {
		opts.Limiter = middleware.NewRateLimiter(cfg.Account.RateLimit, cfg.Account.RateWindow)
	}

	srv := server.New(cfg.Advisor.Addr, handler.NewAdvisorRouter(advisor, opts))
	if err := server.Run(ctx, srv, nil); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
