package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidUsername    = errors.New("username must be 3 to 32 characters")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service is an in-memory account store that issues HS256 access tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mu    sync.RWMutex
	users map[string][]byte
}

// Option tunes a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock overrides the token clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		users:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores a new user with a bcrypt password hash.
func (s *Service) Register(_ context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 32 {
		return ErrInvalidUsername
	}
	if utf8.RuneCountInString(password) < 6 {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}
	s.users[username] = hash

	log.Info().Str("username", username).Msg("user registered")
	return nil
}

// Login verifies the password and returns a signed access token.
func (s *Service) Login(_ context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	s.mu.RLock()
	hash, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
