package watcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"calcsync/src/cache"
	"calcsync/src/model"
	"calcsync/src/notify"
)

// FieldChange is one edit emitted by the form surface. Name may be any
// alias-table variant; Value is the raw string rendering of the new value.
type FieldChange struct {
	Name  string
	Value string
}

// Store is the slice of the persistence store the listener drives.
type Store interface {
	SaveField(ctx context.Context, name string, value interface{})
	SaveFields(ctx context.Context, updates map[string]interface{})
	TouchUpdatedAt(ctx context.Context)
	FieldValue(name string) (string, bool)
}

// Subscriber hands out storage-event subscriptions. notify.Hub satisfies
// this.
type Subscriber interface {
	Subscribe() (<-chan notify.StorageEvent, func())
}

// Listener translates two external change sources into store saves: storage
// events from other sessions (scoped to the legacy settings key) and field
// changes from the form. The field watch only arms after a fixed delay;
// teardown releases both sources together, armed or not.
type Listener struct {
	store   Store
	aliases map[string]string

	fields    <-chan FieldChange
	storage   <-chan notify.StorageEvent
	unsub     func()
	delay     time.Duration
	propagate bool

	timer     *time.Timer
	done      chan struct{}
	stopped   sync.WaitGroup
	closeOnce sync.Once
}

// NewListener wires the listener but does not start it. fields may be nil
// when no form surface is attached.
func NewListener(st Store, hub Subscriber, fields <-chan FieldChange, cfg Config) (*Listener, error) {
	aliases, err := LoadAliases(cfg.AliasFile)
	if err != nil {
		return nil, err
	}

	storage, unsub := hub.Subscribe()

	return &Listener{
		store:     st,
		aliases:   aliases,
		fields:    fields,
		storage:   storage,
		unsub:     unsub,
		delay:     cfg.WatchDelay,
		propagate: cfg.PropagateSettings,
		done:      make(chan struct{}),
	}, nil
}

// Start begins observing. Storage events are live immediately; the field
// watch arms once the configured delay fires.
func (l *Listener) Start() {
	l.timer = time.NewTimer(l.delay)
	l.stopped.Add(1)

	go l.run()

	logger.WithField("watch_delay", l.delay.String()).Info("[watcher] listener started")
}

// Close tears the listener down: the storage subscription is released and
// the field watch disarmed, even if the arming delay never fired. Safe to
// call more than once.
func (l *Listener) Close() {
	l.closeOnce.Do(func() {
		if l.timer != nil {
			l.timer.Stop()
		}
		l.unsub()
		close(l.done)
	})
	l.stopped.Wait()

	logger.Info("[watcher] listener stopped")
}

func (l *Listener) run() {
	defer l.stopped.Done()

	// fieldCh stays nil (never selected) until the arming timer fires.
	var fieldCh <-chan FieldChange
	timerC := l.timer.C
	storageCh := l.storage

	for {
		select {
		case <-l.done:
			return

		case <-timerC:
			timerC = nil
			fieldCh = l.fields
			logger.Debug("[watcher] field watch armed")

		case ev, ok := <-storageCh:
			if !ok {
				storageCh = nil
				continue
			}
			l.handleStorage(ev)

		case fc, ok := <-fieldCh:
			if !ok {
				fieldCh = nil
				continue
			}
			l.handleField(fc)
		}
	}
}

// handleStorage reacts to a cache write from another session. Only the
// legacy settings key is recognized. Unless PropagateSettings is on, the
// parsed values are discarded and only the update timestamp is touched.
func (l *Listener) handleStorage(ev notify.StorageEvent) {
	if ev.Key != cache.SettingsKey {
		return
	}

	var settings model.LegacySettings
	if err := json.Unmarshal([]byte(ev.NewValue), &settings); err != nil {
		logger.WithError(err).Warn("[watcher] malformed settings blob in storage event, ignoring")
		return
	}

	updates := settings.Updates()
	if len(updates) == 0 {
		return
	}

	ctx := context.Background()

	if l.propagate {
		logger.WithField("fields", len(updates)).Info("[watcher] propagating cross-session settings")
		l.store.SaveFields(ctx, updates)
		return
	}

	logger.WithField("fields", len(updates)).Debug("[watcher] cross-session settings detected, touching timestamp")
	l.store.TouchUpdatedAt(ctx)
}

func (l *Listener) handleField(fc FieldChange) {
	canonical, ok := l.aliases[fc.Name]
	if !ok {
		logger.WithField("name", fc.Name).Debug("[watcher] unrecognized field identifier")
		return
	}

	current, ok := l.store.FieldValue(canonical)
	if !ok || current == fc.Value {
		return
	}

	logger.WithFields(map[string]interface{}{
		"field": canonical,
	}).Debug("[watcher] field changed, saving")

	l.store.SaveField(context.Background(), canonical, fc.Value)
}
