package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"calcsync/src/cache"
	"calcsync/src/model"
	"calcsync/src/repository"
)

// InputsStore owns the in-memory calculator record for one session and fans
// writes out to the local cache (synchronous) and the per-user remote row
// (asynchronous, best effort).
//
// The in-memory and local-cache state is authoritative for the running
// session: remote failures are logged and never surfaced or rolled back.
type InputsStore struct {
	mu     sync.Mutex
	record *model.CalculatorInputs
	user   *model.User

	cache cache.Store
	repo  repository.CalculatorInputsRepository

	remote sync.WaitGroup
}

// New builds a store over the given collaborators. repo may be nil when the
// remote side is disabled; user may be nil when no session exists yet —
// both turn every remote operation into a silent no-op.
func New(localCache cache.Store, repo repository.CalculatorInputsRepository, user *model.User) *InputsStore {
	return &InputsStore{
		record: model.DefaultCalculatorInputs(),
		user:   user,
		cache:  localCache,
		repo:   repo,
	}
}

// Load hydrates the record: defaults, then the legacy settings blob, then
// the full cached record, then — only with an active session — the most
// recent remote row, which overwrites everything and is written back to the
// cache. A remote read error leaves the local hydration untouched.
func (s *InputsStore) Load(ctx context.Context) error {
	s.hydrateLocal(ctx)

	s.mu.Lock()
	user := s.user
	s.mu.Unlock()

	if user == nil || s.repo == nil {
		logger.Debug("[store] no session, skipping remote load")
		return nil
	}

	remote, err := s.repo.FindLatestByUser(ctx, user.ID)
	if err != nil {
		logger.WithError(err).Error("[store] remote load failed, keeping local state")
		return nil
	}
	if remote == nil {
		return nil
	}

	s.mu.Lock()
	s.record = remote
	snapshot := *remote
	s.mu.Unlock()

	s.writeCache(ctx, &snapshot)

	logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"row_id":  remote.ID,
	}).Info("[store] hydrated calculator inputs from remote")

	return nil
}

func (s *InputsStore) hydrateLocal(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok, err := s.cache.Get(ctx, cache.SettingsKey); err == nil && ok {
		var settings model.LegacySettings
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			logger.WithError(err).Warn("[store] malformed legacy settings in cache, ignoring")
		} else {
			for name, value := range settings.Updates() {
				applyUpdate(s.record, name, value)
			}
		}
	}

	if raw, ok, err := s.cache.Get(ctx, cache.InputsKey); err == nil && ok {
		var cached model.CalculatorInputs
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			logger.WithError(err).Warn("[store] malformed cached inputs, ignoring")
		} else {
			s.record = &cached
		}
	}
}

// SaveField persists a single field. value may be a string rendering even
// for boolean or integer fields; coercion is handled per field.
func (s *InputsStore) SaveField(ctx context.Context, name string, value interface{}) {
	s.SaveFields(ctx, map[string]interface{}{name: value})
}

// SaveFields is SaveInputs with API-key normalization applied up front.
func (s *InputsStore) SaveFields(ctx context.Context, partial map[string]interface{}) {
	s.SaveInputs(ctx, partial)
}

// SaveInputs merges the partial update into the record, rewrites the local
// cache before returning, and kicks off the remote write in the background.
// Callers get control back as soon as the cache write is done.
func (s *InputsStore) SaveInputs(ctx context.Context, partial map[string]interface{}) {
	partial = normalizeUpdates(partial)
	warnSuspectNumerics(partial)

	now := time.Now()

	s.mu.Lock()
	next := *s.record
	for name, value := range partial {
		if !applyUpdate(&next, name, value) {
			logger.WithField("field", name).Warn("[store] could not apply field update")
			delete(partial, name)
		}
	}
	next.UpdatedAt = now
	s.record = &next
	snapshot := next
	s.mu.Unlock()

	s.writeCache(ctx, &snapshot)
	s.saveRemote(snapshot, partial, now)
}

// TouchUpdatedAt bumps only the update timestamp through the normal save
// path. Used when a cross-session change is detected but not propagated.
func (s *InputsStore) TouchUpdatedAt(ctx context.Context) {
	s.SaveInputs(ctx, map[string]interface{}{})
}

// FieldValue renders the current value of a field as a string, the form
// change events arrive in.
func (s *InputsStore) FieldValue(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fieldString(s.record, name)
}

// Snapshot returns a copy of the current record.
func (s *InputsStore) Snapshot() model.CalculatorInputs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.record
}

// SetSession activates (or clears) the user session. Remote operations are
// enabled only while a session is set.
func (s *InputsStore) SetSession(user *model.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// Session returns the active user, or nil.
func (s *InputsStore) Session() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Flush blocks until every in-flight remote write has finished. Called on
// shutdown; remote writes are otherwise never awaited.
func (s *InputsStore) Flush() {
	s.remote.Wait()
}

func (s *InputsStore) writeCache(ctx context.Context, snapshot *model.CalculatorInputs) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		logger.WithError(err).Error("[store] failed to marshal inputs for cache")
		return
	}

	if err := s.cache.Set(ctx, cache.InputsKey, string(raw)); err != nil {
		logger.WithError(err).Error("[store] failed to write local cache")
	}
}

// saveRemote runs the insert-or-update branch in the background. It uses a
// fresh context: the caller's request may be gone by the time the write
// lands, and that must not cancel it.
func (s *InputsStore) saveRemote(snapshot model.CalculatorInputs, partial map[string]interface{}, now time.Time) {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()

	if user == nil || s.repo == nil {
		return
	}

	updates := make(map[string]interface{}, len(partial)+1)
	for name, value := range partial {
		updates[name] = value
	}
	updates["updated_at"] = now

	s.remote.Add(1)
	go func() {
		defer s.remote.Done()

		ctx := context.Background()

		id, err := s.repo.FindIDByUser(ctx, user.ID)
		if err != nil {
			logger.WithError(err).Error("[store] remote existence check failed")
			return
		}

		if id == 0 {
			row := snapshot
			row.ID = 0
			row.UserID = user.ID
			row.CreatedAt = now
			row.UpdatedAt = now

			if err := s.repo.Insert(ctx, &row); err != nil {
				logger.WithError(err).Error("[store] remote insert failed")
			}
			return
		}

		if err := s.repo.UpdateByID(ctx, id, updates); err != nil {
			logger.WithError(err).Error("[store] remote update failed")
		}
	}()
}

// normalizeUpdates copies the partial and enforces that api_key_id is never
// the empty string: it is null or a valid reference.
func normalizeUpdates(partial map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(partial))
	for name, value := range partial {
		if name == FieldAPIKeyID {
			switch v := value.(type) {
			case string:
				if v == "" {
					value = nil
				}
			case *string:
				if v == nil || *v == "" {
					value = nil
				} else {
					value = *v
				}
			}
		}
		normalized[name] = value
	}
	return normalized
}
