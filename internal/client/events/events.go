// Package events is a small typed in-process event bus. Components publish
// sync outcomes and user notices; the UI subscribes.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
)

// Event is any value published on the bus.
type Event interface {
	EventName() string
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a human-readable message for the user.
type Notice struct {
	Level   Level
	Message string
}

// MutationSynced is published after a queued write reached the server.
type MutationSynced struct {
	MutationID int64
	URL        string
}

// MutationDropped is published once when a queued write is abandoned after
// too many failed attempts.
type MutationDropped struct {
	MutationID int64
	URL        string
	Retries    int
	LastError  string
}

// StoryRemapped is published when an optimistic story was replaced by its
// server-confirmed version.
type StoryRemapped struct {
	OldID      string
	NewID      string
	Bookmarked bool
}

type BookmarkRemoved struct {
	StoryID string
}

type AuthChanged struct {
	SignedIn bool
	Name     string
}

type NetworkChanged struct {
	Online bool
}

func (Notice) EventName() string          { return "notice" }
func (MutationSynced) EventName() string  { return "mutation_synced" }
func (MutationDropped) EventName() string { return "mutation_dropped" }
func (StoryRemapped) EventName() string   { return "story_remapped" }
func (BookmarkRemoved) EventName() string { return "bookmark_removed" }
func (AuthChanged) EventName() string     { return "auth_changed" }
func (NetworkChanged) EventName() string  { return "network_changed" }

// Publisher is what producers depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type subscriber struct {
	id int
	fn func(Event)
}

// Bus delivers events synchronously, in subscription order, on the
// publishing goroutine. A panicking subscriber is recovered and logged and
// the remaining subscribers still run.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
	log    logging.Logger
}

func NewBus(log logging.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(ctx, s.fn, e)
	}
}

func (b *Bus) deliver(ctx context.Context, fn func(Event), e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(ctx, "event subscriber panicked", "event", e.EventName(), "panic", fmt.Sprint(r))
		}
	}()
	fn(e)
}

// Notify publishes a Notice.
func Notify(ctx context.Context, p Publisher, level Level, format string, args ...any) {
	if p == nil {
		return
	}
	p.Publish(ctx, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Recorder collects published events. Used by tests across packages.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
