package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"calcsync/src/auth"
	"calcsync/src/model"
)

type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// SessionStore activates the remote side of the persistence store once a
// session exists.
type SessionStore interface {
	SetSession(user *model.User)
	Load(ctx context.Context) error
}

// LoginHandler authenticates the user, activates the store session (which
// re-hydrates from the remote row) and returns a bearer token.
func LoginHandler(users UserFinder, st SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.LoginPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid login payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		username := strings.TrimSpace(payload.Username)
		if username == "" || payload.Password == "" {
			http.Error(w, "Username and password are required", http.StatusBadRequest)
			return
		}

		user, err := users.GetByUsername(r.Context(), username)
		if err != nil {
			http.Error(w, "Unable to log in", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
			logger.WithField("user_id", user.ID).Warn("password mismatch on login")
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		token, err := auth.IssueToken(user)
		if err != nil {
			logger.WithError(err).Error("failed to issue token")
			http.Error(w, "Unable to log in", http.StatusInternalServerError)
			return
		}

		st.SetSession(user)
		if err := st.Load(r.Context()); err != nil {
			logger.WithError(err).Error("post-login hydration failed")
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"token": token,
			"user":  user.ToResponse(),
		}); err != nil {
			logger.WithError(err).Error("failed to encode login response")
		}
	}
}
