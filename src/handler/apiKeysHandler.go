package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"calcsync/src/auth"
	"calcsync/src/model"
)

type APIKeyRepository interface {
	FindByUser(ctx context.Context, userID uint) ([]model.UserAPIKey, error)
	Create(ctx context.Context, key *model.UserAPIKey) error
}

// ListAPIKeysHandler returns the session user's API key references, the
// candidates for the api_key_id field.
func ListAPIKeysHandler(keys APIKeyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		list, err := keys.FindByUser(r.Context(), user.ID)
		if err != nil {
			http.Error(w, "Unable to list API keys", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			logger.WithError(err).Error("failed to encode API key list")
		}
	}
}

type createAPIKeyPayload struct {
	Label    string `json:"label"`
	Exchange string `json:"exchange"`
}

func CreateAPIKeyHandler(keys APIKeyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload createAPIKeyPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		key := &model.UserAPIKey{
			UserID:   user.ID,
			Label:    strings.TrimSpace(payload.Label),
			Exchange: strings.TrimSpace(payload.Exchange),
		}

		if err := keys.Create(r.Context(), key); err != nil {
			http.Error(w, "Unable to create API key", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(key); err != nil {
			logger.WithError(err).Error("failed to encode API key response")
		}
	}
}
