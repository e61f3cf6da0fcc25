package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"calcsync/src/model"
	"calcsync/src/store"
)

// InputsStore is the slice of the persistence store the HTTP surface needs.
type InputsStore interface {
	Snapshot() model.CalculatorInputs
	SaveFields(ctx context.Context, updates map[string]interface{})
}

// GetInputsHandler returns the current in-memory record. Hydration has
// already happened at startup / login, so this is a pure snapshot read.
func GetInputsHandler(st InputsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := st.Snapshot()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot); err != nil {
			logger.WithError(err).Error("failed to encode inputs snapshot")
		}
	}
}

// SaveInputsHandler applies a partial update. The save itself never fails
// (remote is fire-and-forget); only malformed payloads are rejected.
func SaveInputsHandler(st InputsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.UpdateCalculatorInputsPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid inputs update payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		updates := payload.Updates()
		if err := store.ValidateUpdates(updates); err != nil {
			logger.WithError(err).Warn("rejected inputs update")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		st.SaveFields(r.Context(), updates)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st.Snapshot()); err != nil {
			logger.WithError(err).Error("failed to encode inputs snapshot")
		}
	}
}
