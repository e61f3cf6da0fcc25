package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	logger "github.com/sirupsen/logrus"

	"calcsync/src/model"
)

// UserLoader resolves a token subject to a user. repository.GormUserRepository
// satisfies this.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// IssueToken signs a JWT for the user with the configured TTL.
func IssueToken(user *model.User) (string, error) {
	config := GetConfig()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(config.TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// Middleware attaches the authenticated user to the request context when a
// valid bearer token is present. A missing token is not an error: the
// request proceeds without a session and remote-backed behavior simply stays
// disabled. An invalid token is rejected.
func Middleware(users UserLoader) func(http.Handler) http.Handler {
	config := GetConfig()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == header {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(config.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				logger.WithError(err).Warn("[auth] invalid bearer token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(*jwt.RegisteredClaims)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			id, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(r.Context(), uint(id))
			if err != nil || user == nil {
				logger.WithField("user_id", id).Warn("[auth] token subject not found")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
