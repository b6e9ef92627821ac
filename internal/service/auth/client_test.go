package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "traveller",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func newAuthServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	users := map[string]string{}

	mux := http.NewServeMux()
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if _, exists := users[body["username"]]; exists {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"User already exists"}`))
			return
		}
		users[body["username"]] = body["password"]
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if users[body["username"]] != body["password"] {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRegisterThenLogin(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signedToken(t, exp)
	srv := newAuthServer(t, raw)
	client := NewClient(srv.URL, nil)
	ctx := context.Background()

	require.NoError(t, client.Register(ctx, "ana", "s3cret"))

	tok, err := client.Login(ctx, "ana", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, raw, tok.Raw)
	assert.True(t, tok.ExpiresAt.Equal(exp))
	assert.True(t, tok.Valid(time.Now()))
}

func TestServerErrorsSurfaceMessage(t *testing.T) {
	srv := newAuthServer(t, "opaque")
	client := NewClient(srv.URL, nil)
	ctx := context.Background()

	require.NoError(t, client.Register(ctx, "ana", "pw"))

	err := client.Register(ctx, "ana", "pw")
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusConflict, authErr.StatusCode)
	assert.Equal(t, "User already exists", authErr.Error())

	_, err = client.Login(ctx, "ana", "wrong")
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Invalid credentials", authErr.Message)
}

func TestErrorWithoutBodyUsesDefaultMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Login(context.Background(), "a", "b")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, defaultErrorMessage, authErr.Message)
}

func TestEmptyCredentialsRejectedLocally(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)
	_, err := client.Login(context.Background(), " ", "pw")
	assert.ErrorIs(t, err, ErrEmptyCredentials)
	assert.ErrorIs(t, client.Register(context.Background(), "ana", ""), ErrEmptyCredentials)
}

func TestOpaqueTokenHasNoExpiry(t *testing.T) {
	tok := NewToken("not-a-jwt")
	assert.True(t, tok.ExpiresAt.IsZero())
	assert.True(t, tok.Valid(time.Now()))
	assert.False(t, Token{}.Valid(time.Now()))
}

func TestExpiredToken(t *testing.T) {
	tok := NewToken(signedToken(t, time.Now().Add(-time.Minute)))
	assert.True(t, tok.Expired(time.Now()))
	assert.False(t, tok.Valid(time.Now()))
}
