// Package netstatus tracks whether the backend is reachable and tells
// listeners when that changes.
package netstatus

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
)

const (
	DefaultInterval = 3 * time.Second
	pingTimeout     = 3 * time.Second
)

// Pinger probes the backend. A nil error means reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type listener struct {
	id int
	fn func(online bool)
}

type Monitor struct {
	pinger   Pinger
	bus      events.Publisher
	log      logging.Logger
	interval time.Duration

	mu        sync.Mutex
	online    bool
	known     bool
	nextID    int
	listeners []listener
}

// New returns a monitor that starts offline until the first probe or Set.
func New(pinger Pinger, bus events.Publisher, log logging.Logger, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		pinger:   pinger,
		bus:      bus,
		log:      log.With("component", "netstatus"),
		interval: interval,
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// AddListener registers fn for transitions. The returned func removes it.
func (m *Monitor) AddListener(fn func(online bool)) (remove func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, listener{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Set records the current status. Listeners run on the calling goroutine and
// only when the status actually changes. The first call always counts as a
// change so listeners learn the initial state.
func (m *Monitor) Set(ctx context.Context, online bool) {
	m.mu.Lock()
	if m.known && m.online == online {
		m.mu.Unlock()
		return
	}
	first := !m.known
	m.known = true
	m.online = online
	snapshot := append([]listener(nil), m.listeners...)
	m.mu.Unlock()

	m.log.Info(ctx, "network status changed", "online", online)
	if m.bus != nil {
		m.bus.Publish(ctx, events.NetworkChanged{Online: online})
		switch {
		case online && !first:
			events.Notify(ctx, m.bus, events.LevelSuccess, "You are back online")
		case !online:
			events.Notify(ctx, m.bus, events.LevelWarning, "You are offline. Showing saved stories; new stories will sync later")
		}
	}

	for _, l := range snapshot {
		m.call(ctx, l.fn, online)
	}
}

func (m *Monitor) call(ctx context.Context, fn func(bool), online bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error(ctx, "network listener panicked", "panic", r)
		}
	}()
	fn(online)
}

// Check probes the backend once and updates the status.
func (m *Monitor) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := m.pinger.Ping(pctx)
	cancel()

	if err != nil && ctx.Err() != nil {
		return m.IsOnline()
	}
	if err != nil {
		m.log.Debug(ctx, "ping failed", "error", err)
	}
	m.Set(ctx, err == nil)
	return err == nil
}

// Run probes immediately and then on every interval until ctx ends.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
