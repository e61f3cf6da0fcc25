package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"calcsync/src/cache"
	"calcsync/src/model"
)

type fakeRepo struct {
	mu         sync.Mutex
	existingID uint
	latest     *model.CalculatorInputs
	findErr    error

	inserts []model.CalculatorInputs
	updates []map[string]interface{}
	lookups int
}

func (f *fakeRepo) FindLatestByUser(_ context.Context, _ uint) (*model.CalculatorInputs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.latest, nil
}

func (f *fakeRepo) FindIDByUser(_ context.Context, _ uint) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.findErr != nil {
		return 0, f.findErr
	}
	return f.existingID, nil
}

func (f *fakeRepo) Insert(_ context.Context, inputs *model.CalculatorInputs) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts = append(f.inserts, *inputs)
	return nil
}

func (f *fakeRepo) UpdateByID(_ context.Context, _ uint, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates)
	return nil
}

func (f *fakeRepo) remoteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserts) + len(f.updates)
}

func cachedInputs(t *testing.T, c cache.Store) model.CalculatorInputs {
	t.Helper()

	raw, ok, err := c.Get(context.Background(), cache.InputsKey)
	if err != nil || !ok {
		t.Fatalf("expected cached inputs, ok=%v err=%v", ok, err)
	}

	var inputs model.CalculatorInputs
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		t.Fatalf("cached inputs are not valid JSON: %v", err)
	}
	return inputs
}

func TestSaveFieldLocalOnlyWithoutSession(t *testing.T) {
	local := cache.NewMemory(nil)
	repo := &fakeRepo{}
	st := New(local, repo, nil)

	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	defaults := model.DefaultCalculatorInputs()
	if snap := st.Snapshot(); snap.CryptoSymbol != defaults.CryptoSymbol || snap.Direction != defaults.Direction {
		t.Fatalf("expected defaults after sessionless load, got %+v", snap)
	}

	st.SaveField(context.Background(), "entry_price", "100")

	if snap := st.Snapshot(); snap.EntryPrice != "100" {
		t.Fatalf("expected in-memory entry_price=100, got %q", snap.EntryPrice)
	}

	cached := cachedInputs(t, local)
	if cached.EntryPrice != "100" {
		t.Fatalf("expected cached entry_price=100, got %q", cached.EntryPrice)
	}
	if cached.CryptoSymbol != defaults.CryptoSymbol {
		t.Fatalf("cache should hold the full merged record, got %+v", cached)
	}

	st.Flush()
	if repo.remoteCalls() != 0 {
		t.Fatalf("expected no remote calls without a session, got %d", repo.remoteCalls())
	}
}

func TestSaveFieldsNeverRemoteWithoutSession(t *testing.T) {
	local := cache.NewMemory(nil)
	repo := &fakeRepo{}
	st := New(local, repo, nil)

	for i := 0; i < 5; i++ {
		st.SaveFields(context.Background(), map[string]interface{}{"risk_amount": "2"})
	}
	st.Flush()

	if repo.remoteCalls() != 0 || repo.lookups != 0 {
		t.Fatalf("sessionless saves must not touch the remote, calls=%d lookups=%d", repo.remoteCalls(), repo.lookups)
	}
}

func TestAPIKeyIDNormalizedToNull(t *testing.T) {
	local := cache.NewMemory(nil)
	repo := &fakeRepo{existingID: 3}
	st := New(local, repo, &model.User{ID: 1})

	st.SaveField(context.Background(), "api_key_id", "")
	st.Flush()

	if snap := st.Snapshot(); snap.APIKeyID != nil {
		t.Fatalf("expected in-memory api_key_id=nil, got %v", *snap.APIKeyID)
	}

	if cached := cachedInputs(t, local); cached.APIKeyID != nil {
		t.Fatalf("expected cached api_key_id=null, got %v", *cached.APIKeyID)
	}

	if len(repo.updates) != 1 {
		t.Fatalf("expected one remote update, got %d", len(repo.updates))
	}
	value, ok := repo.updates[0]["api_key_id"]
	if !ok {
		t.Fatalf("expected api_key_id in remote update: %+v", repo.updates[0])
	}
	if value != nil {
		t.Fatalf("expected remote api_key_id=nil, got %v", value)
	}
}

func TestSaveInsertsFullRecordWhenNoRemoteRow(t *testing.T) {
	local := cache.NewMemory(nil)
	repo := &fakeRepo{existingID: 0}
	st := New(local, repo, &model.User{ID: 9})

	before := time.Now()
	st.SaveField(context.Background(), "crypto_symbol", "ETHUSDT")
	st.Flush()

	if len(repo.inserts) != 1 {
		t.Fatalf("expected one insert, got %d inserts / %d updates", len(repo.inserts), len(repo.updates))
	}

	row := repo.inserts[0]
	if row.UserID != 9 {
		t.Fatalf("expected user_id=9 on insert, got %d", row.UserID)
	}
	if row.CryptoSymbol != "ETHUSDT" {
		t.Fatalf("expected partial override in insert, got %q", row.CryptoSymbol)
	}
	if row.TakerFee != model.DefaultCalculatorInputs().TakerFee {
		t.Fatalf("insert should carry the full current record, got taker_fee=%q", row.TakerFee)
	}
	if row.CreatedAt.Before(before) || row.UpdatedAt.Before(before) {
		t.Fatalf("expected creation and update timestamps to be stamped, got %v / %v", row.CreatedAt, row.UpdatedAt)
	}
}

func TestSaveUpdatesExistingRowWithPartialOnly(t *testing.T) {
	local := cache.NewMemory(nil)
	repo := &fakeRepo{existingID: 42}
	st := New(local, repo, &model.User{ID: 9})

	st.SaveField(context.Background(), "risk_amount", "5")
	st.Flush()

	if len(repo.updates) != 1 || len(repo.inserts) != 0 {
		t.Fatalf("expected a single update, got %d updates / %d inserts", len(repo.updates), len(repo.inserts))
	}

	updates := repo.updates[0]
	if updates["risk_amount"] != "5" {
		t.Fatalf("expected risk_amount=5 in update, got %+v", updates)
	}
	if _, ok := updates["updated_at"]; !ok {
		t.Fatalf("expected updated_at stamp in update, got %+v", updates)
	}
	if len(updates) != 2 {
		t.Fatalf("update must carry only the partial plus updated_at, got %+v", updates)
	}
}

func TestTouchUpdatedAtOnlyStampsTimestamp(t *testing.T) {
	local := cache.NewMemory(nil)
	repo := &fakeRepo{existingID: 42}
	st := New(local, repo, &model.User{ID: 9})

	st.TouchUpdatedAt(context.Background())
	st.Flush()

	if len(repo.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(repo.updates))
	}
	if len(repo.updates[0]) != 1 {
		t.Fatalf("touch must update only updated_at, got %+v", repo.updates[0])
	}
}

func TestLoadRemoteOverridesLocal(t *testing.T) {
	local := cache.NewMemory(nil)

	stale := model.DefaultCalculatorInputs()
	stale.CryptoSymbol = "SOLUSDT"
	raw, _ := json.Marshal(stale)
	if err := local.Set(context.Background(), cache.InputsKey, string(raw)); err != nil {
		t.Fatalf("seeding cache failed: %v", err)
	}

	repo := &fakeRepo{latest: &model.CalculatorInputs{
		ID:           7,
		UserID:       1,
		CryptoSymbol: "ETHUSDT",
		RiskAmount:   "5",
		Direction:    model.DirectionLong,
	}}
	st := New(local, repo, &model.User{ID: 1})

	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if snap := st.Snapshot(); snap.CryptoSymbol != "ETHUSDT" || snap.RiskAmount != "5" {
		t.Fatalf("remote row must override local state, got %+v", snap)
	}

	if cached := cachedInputs(t, local); cached.CryptoSymbol != "ETHUSDT" {
		t.Fatalf("cache must be rewritten from the remote row, got %q", cached.CryptoSymbol)
	}
}

func TestLoadRemoteErrorKeepsLocalState(t *testing.T) {
	local := cache.NewMemory(nil)

	seeded := model.DefaultCalculatorInputs()
	seeded.EntryPrice = "123"
	raw, _ := json.Marshal(seeded)
	_ = local.Set(context.Background(), cache.InputsKey, string(raw))

	repo := &fakeRepo{findErr: context.DeadlineExceeded}
	st := New(local, repo, &model.User{ID: 1})

	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("remote errors must not surface from Load, got %v", err)
	}

	if snap := st.Snapshot(); snap.EntryPrice != "123" {
		t.Fatalf("remote read error must leave local hydration untouched, got %+v", snap)
	}
}

func TestLoadHydratesFromLegacySettings(t *testing.T) {
	local := cache.NewMemory(nil)
	_ = local.Set(context.Background(), cache.SettingsKey,
		`{"takerFee":"0.1","riskAmount":"7","testMode":true}`)

	st := New(local, nil, nil)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	snap := st.Snapshot()
	if snap.TakerFee != "0.1" || snap.RiskAmount != "7" || !snap.TestMode {
		t.Fatalf("legacy settings not hydrated, got %+v", snap)
	}
	// Untouched settings keep their defaults.
	if snap.MakerFee != model.DefaultCalculatorInputs().MakerFee {
		t.Fatalf("unexpected maker fee %q", snap.MakerFee)
	}
}

func TestLoadIgnoresMalformedCache(t *testing.T) {
	local := cache.NewMemory(nil)
	_ = local.Set(context.Background(), cache.SettingsKey, `{not json`)
	_ = local.Set(context.Background(), cache.InputsKey, `also not json`)

	st := New(local, nil, nil)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("malformed cache must not fail Load, got %v", err)
	}

	if snap := st.Snapshot(); snap.CryptoSymbol != model.DefaultCalculatorInputs().CryptoSymbol {
		t.Fatalf("expected defaults after malformed cache, got %+v", snap)
	}
}

func TestFieldValueRendering(t *testing.T) {
	st := New(cache.NewMemory(nil), nil, nil)

	st.SaveFields(context.Background(), map[string]interface{}{
		"decimal_places": 4,
		"test_mode":      true,
		"entry_price":    "55.5",
	})

	cases := map[string]string{
		"decimal_places": "4",
		"test_mode":      "true",
		"entry_price":    "55.5",
		"api_key_id":     "",
	}
	for name, want := range cases {
		got, ok := st.FieldValue(name)
		if !ok || got != want {
			t.Fatalf("FieldValue(%s) = %q ok=%v, want %q", name, got, ok, want)
		}
	}

	if _, ok := st.FieldValue("nope"); ok {
		t.Fatalf("unknown field must not resolve")
	}
}

func TestStringValuesCoerceOntoTypedFields(t *testing.T) {
	st := New(cache.NewMemory(nil), nil, nil)

	st.SaveField(context.Background(), "test_mode", "true")
	st.SaveField(context.Background(), "decimal_places", "6")

	snap := st.Snapshot()
	if !snap.TestMode || snap.DecimalPlaces != 6 {
		t.Fatalf("string renderings must coerce onto typed fields, got %+v", snap)
	}
}
