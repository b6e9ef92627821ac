package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting used by the chat binaries.
type Config struct {
	Server  ServerConfig
	Advisor ServerConfig
	Advice  AdviceConfig
	Auth    AuthConfig
	Account AccountConfig
	Gateway GatewayConfig
	AI      AIConfig
	Log     LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig("PORT", "8080")
	if err != nil {
		return nil, err
	}

	advisor, err := loadServerConfig("ADVISOR_PORT", "5000")
	if err != nil {
		return nil, err
	}

	advice, err := loadAdviceConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig(advice.BaseURL)
	if err != nil {
		return nil, err
	}

	account, err := loadAccountConfig()
	if err != nil {
		return nil, err
	}

	gateway, err := loadGatewayConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Advisor: advisor,
		Advice:  advice,
		Auth:    auth,
		Account: account,
		Gateway: gateway,
		AI:      ai,
		Log:     loadLogConfig(),
	}, nil
}

// ServerConfig describes an HTTP listener.
type ServerConfig struct {
	Addr string
}

// loadServerConfig resolves a listen address from a port variable.
func loadServerConfig(key, defaultPort string) (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv(key))
	if port == "" {
		port = defaultPort
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are accepted verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid %s value: %q", key, port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AdviceConfig describes the outbound advice endpoint and widget timings.
type AdviceConfig struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	ConfirmationDelay time.Duration
}

func loadAdviceConfig() (AdviceConfig, error) {
	timeout, err := parseDurationEnv("ADVICE_TIMEOUT", 30*time.Second)
	if err != nil {
		return AdviceConfig{}, err
	}

	delay, err := parseDurationEnv("ADVICE_CONFIRMATION_DELAY", 2*time.Second)
	if err != nil {
		return AdviceConfig{}, err
	}
	if delay <= 0 {
		return AdviceConfig{}, fmt.Errorf("ADVICE_CONFIRMATION_DELAY must be positive, got %s", delay)
	}

	return AdviceConfig{
		BaseURL:           strings.TrimRight(getEnvOrDefault("ADVICE_BASE_URL", "http://localhost:5000"), "/"),
		Token:             strings.TrimSpace(os.Getenv("ADVICE_TOKEN")),
		Timeout:           timeout,
		ConfirmationDelay: delay,
	}, nil
}

// AuthConfig describes the login/registration endpoint and token storage.
type AuthConfig struct {
	BaseURL   string
	TokenPath string
}

func loadAuthConfig(adviceBaseURL string) (AuthConfig, error) {
	tokenPath := strings.TrimSpace(os.Getenv("AUTH_TOKEN_PATH"))
	if tokenPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return AuthConfig{}, fmt.Errorf("resolve user config dir: %w", err)
		}
		tokenPath = filepath.Join(dir, "advice-chat", "token")
	}

	return AuthConfig{
		BaseURL:   strings.TrimRight(getEnvOrDefault("AUTH_BASE_URL", adviceBaseURL), "/"),
		TokenPath: tokenPath,
	}, nil
}

// AccountConfig drives the advisor's own login/registration endpoints and
// the protection of its advice route.
type AccountConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	RequireAuth bool
	RateLimit   int
	RateWindow  time.Duration
}

func loadAccountConfig() (AccountConfig, error) {
	ttl, err := parseDurationEnv("AUTH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return AccountConfig{}, err
	}

	window, err := parseDurationEnv("ADVISOR_RATE_WINDOW", time.Minute)
	if err != nil {
		return AccountConfig{}, err
	}

	limit, err := parseOptionalIntEnv("ADVISOR_RATE_LIMIT")
	if err != nil {
		return AccountConfig{}, err
	}
	rateLimit := 30
	if limit != nil {
		rateLimit = *limit
	}

	requireAuth, err := parseBoolEnv("ADVISOR_REQUIRE_AUTH", false)
	if err != nil {
		return AccountConfig{}, err
	}
	secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))
	if requireAuth && secret == "" {
		return AccountConfig{}, fmt.Errorf("ADVISOR_REQUIRE_AUTH needs AUTH_JWT_SECRET")
	}

	return AccountConfig{
		JWTSecret:   secret,
		TokenTTL:    ttl,
		RequireAuth: requireAuth,
		RateLimit:   rateLimit,
		RateWindow:  window,
	}, nil
}

// GatewayConfig bounds the browser widget gateway.
type GatewayConfig struct {
	MaxSessions int
	IdleTimeout time.Duration
}

func loadGatewayConfig() (GatewayConfig, error) {
	idle, err := parseDurationEnv("GATEWAY_SESSION_IDLE_TIMEOUT", 10*time.Minute)
	if err != nil {
		return GatewayConfig{}, err
	}
	if idle < 0 {
		return GatewayConfig{}, fmt.Errorf("GATEWAY_SESSION_IDLE_TIMEOUT must not be negative, got %s", idle)
	}

	maxSessions, err := parseOptionalIntEnv("GATEWAY_MAX_SESSIONS")
	if err != nil {
		return GatewayConfig{}, err
	}
	if maxSessions == nil {
		return GatewayConfig{MaxSessions: 1000, IdleTimeout: idle}, nil
	}
	if *maxSessions < 0 {
		return GatewayConfig{}, fmt.Errorf("GATEWAY_MAX_SESSIONS must not be negative, got %d", *maxSessions)
	}
	return GatewayConfig{MaxSessions: *maxSessions, IdleTimeout: idle}, nil
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
		File:   strings.TrimSpace(os.Getenv("LOG_FILE")),
	}
}

// AIConfig describes the Ark model backing the reference advisor.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
	// Timeout bounds one model call so the fallback still answers in time.
	Timeout     time.Duration
}

// Enabled reports whether the required credentials were supplied.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("ARK_TIMEOUT", 20*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
