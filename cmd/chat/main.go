package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/advice-chat/internal/config"
	"github.com/zhouzirui/advice-chat/internal/logging"
	"github.com/zhouzirui/advice-chat/internal/service/advice"
	"github.com/zhouzirui/advice-chat/internal/service/auth"
	"github.com/zhouzirui/advice-chat/internal/service/conversation"
	"github.com/zhouzirui/advice-chat/internal/tui"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "chat",
		Short: "Travel advice chat widget for the terminal",
		Long: `Opens the travel advisor chat in the terminal.

Enter sends the typed message, ctrl+l clears the conversation and esc quits.
Logs go to a file so they do not disturb the screen.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}
			return runTUI(cfg)
		},
	}

	rootCmd.PersistentFlags().String("advice-url", "", "Advice service base URL (overrides ADVICE_BASE_URL)")
	rootCmd.PersistentFlags().String("auth-url", "", "Auth service base URL (overrides AUTH_BASE_URL)")
	rootCmd.PersistentFlags().String("log-file", "", "Log file (overrides LOG_FILE)")

	rootCmd.AddCommand(newAskCmd(), newLoginCmd(), newRegisterCmd(), newLogoutCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment, applies flag overrides and installs the
// logger. The TUI always logs to a file.
func loadConfig(cmd *cobra.Command, interactive bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if v, _ := cmd.Flags().GetString("advice-url"); v != "" {
		cfg.Advice.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("auth-url"); v != "" {
		cfg.Auth.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		cfg.Log.File = v
	}

	if interactive && cfg.Log.File == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.Log.File = filepath.Join(dir, "advice-chat", "chat.log")
	}
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	logging.Setup(cfg.Log)
	return cfg, nil
}

// newController wires the advice client, attaching a stored token if one
// is still valid.
func newController(cfg *config.Config) *conversation.Controller {
	opts := []advice.Option{advice.WithTimeout(cfg.Advice.Timeout)}

	token := cfg.Advice.Token
	if tok, err := auth.NewFileTokenStore(cfg.Auth.TokenPath).Load(); err == nil {
		if tok.Valid(time.Now()) {
			token = tok.Raw
		} else {
			log.Warn().Time("expired_at", tok.ExpiresAt).Msg("stored token expired, run `chat login` again")
		}
	}
	if token != "" {
		opts = append(opts, advice.WithBearerToken(token))
	}

	client := advice.NewClient(cfg.Advice.BaseURL, opts...)
	return conversation.NewController(client, conversation.Options{
		ConfirmationDelay: cfg.Advice.ConfirmationDelay,
	})
}

func runTUI(cfg *config.Config) error {
	ctrl := newController(cfg)
	defer ctrl.Close()

	log.Info().Str("advice_url", cfg.Advice.BaseURL).Msg("chat started")

	p := tea.NewProgram(tui.New(ctrl), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
