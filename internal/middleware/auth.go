package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zhouzirui/advice-chat/pkg/utils"
)

type contextKey string

const usernameKey contextKey = "username"

// JWTAuth verifies HS256 bearer tokens issued by the account service.
type JWTAuth struct {
	Secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret)}
}

// Middleware rejects requests without a valid bearer token and stores the
// subject in the request context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" || raw == "" {
			utils.RespondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
			return j.Secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				utils.RespondError(w, http.StatusUnauthorized, "token has expired")
				return
			}
			utils.RespondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Username returns the subject stored by JWTAuth, or "".
func Username(ctx context.Context) string {
	name, _ := ctx.Value(usernameKey).(string)
	return name
}
