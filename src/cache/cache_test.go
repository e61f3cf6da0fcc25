package cache

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishStorage(key, newValue string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, key+"="+newValue)
}

func TestMemoryRoundTrip(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewMemory(pub)
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, InputsKey); err != nil || ok {
		t.Fatalf("expected miss on empty cache, ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, InputsKey, `{"a":1}`); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}

	value, ok, err := c.Get(ctx, InputsKey)
	if err != nil || !ok || value != `{"a":1}` {
		t.Fatalf("unexpected get result: %q ok=%v err=%v", value, ok, err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 1 || pub.events[0] != InputsKey+`={"a":1}` {
		t.Fatalf("expected one published change, got %+v", pub.events)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	pub := &recordingPublisher{}

	c, err := OpenSQLite(path, pub)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}

	ctx := context.Background()

	if _, ok, err := c.Get(ctx, SettingsKey); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, SettingsKey, "first"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	// Overwrite exercises the upsert path.
	if err := c.Set(ctx, SettingsKey, "second"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	value, ok, err := c.Get(ctx, SettingsKey)
	if err != nil || !ok || value != "second" {
		t.Fatalf("unexpected get result: %q ok=%v err=%v", value, ok, err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 2 {
		t.Fatalf("expected two published changes, got %+v", pub.events)
	}
}
