package netstatus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (f *fakePinger) Ping(context.Context) error {
	f.calls.Add(1)
	if f.fail.Load() {
		return errors.New("unreachable")
	}
	return nil
}

func TestMonitor_StartsOffline(t *testing.T) {
	m := New(&fakePinger{}, nil, logging.NopLogger{}, 0)
	assert.False(t, m.IsOnline())
	assert.Equal(t, DefaultInterval, m.interval)
}

func TestMonitor_NotifiesOnTransitionsOnly(t *testing.T) {
	m := New(&fakePinger{}, nil, logging.NopLogger{}, time.Second)
	ctx := context.Background()

	var got []bool
	m.AddListener(func(online bool) { got = append(got, online) })

	m.Set(ctx, true)
	m.Set(ctx, true)
	m.Set(ctx, false)
	m.Set(ctx, false)
	m.Set(ctx, true)

	assert.Equal(t, []bool{true, false, true}, got)
	assert.True(t, m.IsOnline())
}

func TestMonitor_FirstSetReportsInitialOffline(t *testing.T) {
	m := New(&fakePinger{}, nil, logging.NopLogger{}, time.Second)
	var got []bool
	m.AddListener(func(online bool) { got = append(got, online) })

	m.Set(context.Background(), false)
	assert.Equal(t, []bool{false}, got)
}

func TestMonitor_PanickingListenerIsIsolated(t *testing.T) {
	m := New(&fakePinger{}, nil, logging.NopLogger{}, time.Second)

	var before, after int
	m.AddListener(func(bool) { before++ })
	m.AddListener(func(bool) { panic("listener bug") })
	m.AddListener(func(bool) { after++ })

	require.NotPanics(t, func() { m.Set(context.Background(), true) })
	assert.Equal(t, 1, before)
	assert.Equal(t, 1, after)
}

func TestMonitor_RemoveListener(t *testing.T) {
	m := New(&fakePinger{}, nil, logging.NopLogger{}, time.Second)
	ctx := context.Background()

	var a, b int
	removeA := m.AddListener(func(bool) { a++ })
	m.AddListener(func(bool) { b++ })

	m.Set(ctx, true)
	removeA()
	removeA()
	m.Set(ctx, false)

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestMonitor_PublishesEvents(t *testing.T) {
	var rec events.Recorder
	m := New(&fakePinger{}, &rec, logging.NopLogger{}, time.Second)
	ctx := context.Background()

	m.Set(ctx, true)
	m.Set(ctx, false)
	m.Set(ctx, true)

	assert.Equal(t, []events.Event{
		events.NetworkChanged{Online: true},
		events.NetworkChanged{Online: false},
		events.Notice{Level: events.LevelWarning, Message: "You are offline. Showing saved stories; new stories will sync later"},
		events.NetworkChanged{Online: true},
		events.Notice{Level: events.LevelSuccess, Message: "You are back online"},
	}, rec.Events())
}

func TestMonitor_Check(t *testing.T) {
	p := &fakePinger{}
	m := New(p, nil, logging.NopLogger{}, time.Second)
	ctx := context.Background()

	assert.True(t, m.Check(ctx))
	assert.True(t, m.IsOnline())

	p.fail.Store(true)
	assert.False(t, m.Check(ctx))
	assert.False(t, m.IsOnline())
}

func TestMonitor_RunProbesUntilCancelled(t *testing.T) {
	p := &fakePinger{}
	m := New(p, nil, logging.NopLogger{}, 5*time.Millisecond)

	var mu sync.Mutex
	var got []bool
	m.AddListener(func(online bool) {
		mu.Lock()
		got = append(got, online)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, m.IsOnline, time.Second, time.Millisecond)
	p.fail.Store(true)
	assert.Eventually(t, func() bool { return !m.IsOnline() }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, got)
	assert.GreaterOrEqual(t, p.calls.Load(), int32(2))
}
