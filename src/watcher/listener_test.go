package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"calcsync/src/cache"
	"calcsync/src/notify"
)

type fakeStore struct {
	mu      sync.Mutex
	values  map[string]string
	saves   []savedField
	batches []map[string]interface{}
	touches int
}

type savedField struct {
	name  string
	value interface{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) SaveField(_ context.Context, name string, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, savedField{name: name, value: value})
}

func (f *fakeStore) SaveFields(_ context.Context, updates map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, updates)
}

func (f *fakeStore) TouchUpdatedAt(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches++
}

func (f *fakeStore) FieldValue(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[name]
	if !ok {
		return "", true // unknown values render as empty, like a fresh record
	}
	return value, true
}

func (f *fakeStore) calls() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves), len(f.batches), f.touches
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func startListener(t *testing.T, st Store, hub *notify.Hub, fields <-chan FieldChange, cfg Config) *Listener {
	t.Helper()
	l, err := NewListener(st, hub, fields, cfg)
	if err != nil {
		t.Fatalf("failed to build listener: %v", err)
	}
	l.Start()
	t.Cleanup(l.Close)
	return l
}

func TestFieldChangeResolvesAliasAndSaves(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()
	fields := make(chan FieldChange, 1)

	startListener(t, st, hub, fields, Config{WatchDelay: time.Millisecond})

	fields <- FieldChange{Name: "entryPrice", Value: "100"}

	waitFor(t, func() bool { saves, _, _ := st.calls(); return saves == 1 })

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.saves[0].name != "entry_price" || st.saves[0].value != "100" {
		t.Fatalf("expected canonical save entry_price=100, got %+v", st.saves[0])
	}
}

func TestFieldChangeSkippedWhenValueUnchanged(t *testing.T) {
	st := newFakeStore()
	st.values["entry_price"] = "100"
	hub := notify.NewHub()
	fields := make(chan FieldChange, 2)

	startListener(t, st, hub, fields, Config{WatchDelay: time.Millisecond})

	fields <- FieldChange{Name: "entry_price", Value: "100"}
	fields <- FieldChange{Name: "entry_price", Value: "101"}

	waitFor(t, func() bool { saves, _, _ := st.calls(); return saves == 1 })

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.saves[0].value != "101" {
		t.Fatalf("unchanged value must not save, got %+v", st.saves)
	}
}

func TestFieldChangeUnknownIdentifierIgnored(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()
	fields := make(chan FieldChange, 2)

	startListener(t, st, hub, fields, Config{WatchDelay: time.Millisecond})

	fields <- FieldChange{Name: "submit_button", Value: "clicked"}
	fields <- FieldChange{Name: "notes", Value: "hello"}

	waitFor(t, func() bool { saves, _, _ := st.calls(); return saves == 1 })

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.saves[0].name != "notes" {
		t.Fatalf("unknown identifiers must be dropped, got %+v", st.saves)
	}
}

func TestFieldWatchNotArmedBeforeDelay(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()
	fields := make(chan FieldChange, 1)

	startListener(t, st, hub, fields, Config{WatchDelay: time.Hour})

	fields <- FieldChange{Name: "entry_price", Value: "100"}

	time.Sleep(50 * time.Millisecond)
	if saves, _, _ := st.calls(); saves != 0 {
		t.Fatalf("field watch fired before the arming delay")
	}
}

func TestCloseBeforeArmingDelay(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()
	fields := make(chan FieldChange, 1)

	l, err := NewListener(st, hub, fields, Config{WatchDelay: time.Hour})
	if err != nil {
		t.Fatalf("failed to build listener: %v", err)
	}
	l.Start()
	l.Close()
	// Close again must be safe.
	l.Close()

	fields <- FieldChange{Name: "entry_price", Value: "100"}
	hub.PublishStorage(cache.SettingsKey, `{"takerFee":"0.1"}`)

	time.Sleep(50 * time.Millisecond)
	if saves, batches, touches := st.calls(); saves+batches+touches != 0 {
		t.Fatalf("torn-down listener must not act, saves=%d batches=%d touches=%d", saves, batches, touches)
	}
}

func TestStorageEventTouchesTimestampOnly(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()

	startListener(t, st, hub, nil, Config{WatchDelay: time.Millisecond})

	hub.PublishStorage(cache.SettingsKey, `{"takerFee":"0.1","makerFee":"0.05"}`)

	waitFor(t, func() bool { _, _, touches := st.calls(); return touches == 1 })

	if _, batches, _ := st.calls(); batches != 0 {
		t.Fatalf("settings values must not propagate by default")
	}
}

func TestStorageEventPropagatesWhenEnabled(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()

	startListener(t, st, hub, nil, Config{WatchDelay: time.Millisecond, PropagateSettings: true})

	hub.PublishStorage(cache.SettingsKey, `{"riskAmount":"7","testMode":true}`)

	waitFor(t, func() bool { _, batches, _ := st.calls(); return batches == 1 })

	st.mu.Lock()
	defer st.mu.Unlock()
	updates := st.batches[0]
	if updates["risk_amount"] != "7" || updates["test_mode"] != true {
		t.Fatalf("expected canonical propagated settings, got %+v", updates)
	}
}

func TestStorageEventMalformedJSONIgnored(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()

	startListener(t, st, hub, nil, Config{WatchDelay: time.Millisecond})

	hub.PublishStorage(cache.SettingsKey, `{broken`)
	// A recognizable event afterwards proves the handler survived.
	hub.PublishStorage(cache.SettingsKey, `{"takerFee":"0.1"}`)

	waitFor(t, func() bool { _, _, touches := st.calls(); return touches == 1 })
}

func TestStorageEventOtherKeysIgnored(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()

	startListener(t, st, hub, nil, Config{WatchDelay: time.Millisecond})

	hub.PublishStorage(cache.InputsKey, `{"crypto_symbol":"ETHUSDT"}`)
	hub.PublishStorage("somethingElse", `{"takerFee":"0.1"}`)

	time.Sleep(50 * time.Millisecond)
	if saves, batches, touches := st.calls(); saves+batches+touches != 0 {
		t.Fatalf("only the settings key is recognized, saves=%d batches=%d touches=%d", saves, batches, touches)
	}
}

func TestStorageEventWithNoRecognizedSettings(t *testing.T) {
	st := newFakeStore()
	hub := notify.NewHub()

	startListener(t, st, hub, nil, Config{WatchDelay: time.Millisecond})

	hub.PublishStorage(cache.SettingsKey, `{"unrelated":"x"}`)

	time.Sleep(50 * time.Millisecond)
	if _, _, touches := st.calls(); touches != 0 {
		t.Fatalf("an event with no recognized settings must not touch the timestamp")
	}
}
