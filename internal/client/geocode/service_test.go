package geocode

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/clock"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	name  string
	fn    func(ctx context.Context) (string, error)
	calls atomic.Int32
}

func (f *fakeResolver) Name() string { return f.name }

func (f *fakeResolver) Resolve(ctx context.Context, _, _ float64) (string, error) {
	f.calls.Add(1)
	return f.fn(ctx)
}

func returns(name string, v string) *fakeResolver {
	return &fakeResolver{name: name, fn: func(context.Context) (string, error) { return v, nil }}
}

func fails(name string) *fakeResolver {
	return &fakeResolver{name: name, fn: func(context.Context) (string, error) { return "", errors.New("down") }}
}

// hangs blocks until its context ends and reports when that happened.
func hangs(name string, cancelled chan<- struct{}) *fakeResolver {
	return &fakeResolver{name: name, fn: func(ctx context.Context) (string, error) {
		<-ctx.Done()
		if cancelled != nil {
			close(cancelled)
		}
		return "", ctx.Err()
	}}
}

type onlineFlag struct{ v atomic.Bool }

func (o *onlineFlag) IsOnline() bool { return o.v.Load() }

func online(v bool) *onlineFlag {
	o := &onlineFlag{}
	o.v.Store(v)
	return o
}

// countingCache counts writes on top of the real SQLite table.
type countingCache struct {
	Cache
	mu   sync.Mutex
	puts []models.GeocodeEntry
}

func (c *countingCache) Put(ctx context.Context, e models.GeocodeEntry) error {
	c.mu.Lock()
	c.puts = append(c.puts, e)
	c.mu.Unlock()
	return c.Cache.Put(ctx, e)
}

func (c *countingCache) Puts() []models.GeocodeEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.GeocodeEntry(nil), c.puts...)
}

func newCache(t *testing.T) *countingCache {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:", logging.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &countingCache{Cache: s.Repos().Geocache}
}

func TestLocationName_CanonicalKeysShareEntry(t *testing.T) {
	cache := newCache(t)
	r := returns("primary", "Gambir, Jakarta Pusat")
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(r), WithClock(clock.Fixed()))
	ctx := context.Background()

	assert.Equal(t, "Gambir, Jakarta Pusat", s.LocationName(ctx, -6.175400, 106.827200, nil))
	assert.Equal(t, "Gambir, Jakarta Pusat", s.LocationName(ctx, -6.1754001, 106.8272004, nil))

	assert.EqualValues(t, 1, r.calls.Load())
	require.Len(t, cache.Puts(), 1)
	assert.Equal(t, "-6.175400,106.827200", cache.Puts()[0].Key)
}

func TestLocationName_SuccessCachedForThirtyDays(t *testing.T) {
	cache := newCache(t)
	clk := clock.Fixed()
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(returns("primary", "Ubud, Gianyar")), WithClock(clk))

	s.LocationName(context.Background(), -8.5, 115.26, nil)

	e, err := cache.Get(context.Background(), Key(-8.5, 115.26))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Ubud, Gianyar", e.Name)
	assert.Equal(t, models.SourceResolved, e.Source)
	assert.Equal(t, clk.Now().UnixMilli(), e.Timestamp)
	assert.Equal(t, clk.Now().Add(30*24*time.Hour).UnixMilli(), e.ExpiryTime)
}

func TestLocationName_ExpiredEntryIsMiss(t *testing.T) {
	cache := newCache(t)
	clk := clock.Fixed()
	ctx := context.Background()
	key := Key(1.5, 2.5)
	require.NoError(t, cache.Cache.Put(ctx, models.GeocodeEntry{
		Key: key, Name: "Old Name", Timestamp: 1, ExpiryTime: clk.Now().Add(-time.Minute).UnixMilli(),
		Source: models.SourceResolved,
	}))

	r := returns("primary", "New Name")
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(r), WithClock(clk))

	assert.Equal(t, "New Name", s.LocationName(ctx, 1.5, 2.5, nil))
	assert.EqualValues(t, 1, r.calls.Load())
}

func TestLocationName_MemoryEntryExpiresWithClock(t *testing.T) {
	cache := newCache(t)
	clk := clock.Fixed()
	r := returns("primary", "Kauman, Kudus")
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(r), WithClock(clk))
	ctx := context.Background()

	s.LocationName(ctx, -6.8, 110.84, nil)
	clk.Advance(29 * 24 * time.Hour)
	s.LocationName(ctx, -6.8, 110.84, nil)
	assert.EqualValues(t, 1, r.calls.Load())

	clk.Advance(2 * 24 * time.Hour)
	s.LocationName(ctx, -6.8, 110.84, nil)
	assert.EqualValues(t, 2, r.calls.Load())
}

func TestLocationName_HitFromStoreWithoutMemory(t *testing.T) {
	cache := newCache(t)
	clk := clock.Fixed()
	ctx := context.Background()
	require.NoError(t, cache.Cache.Put(ctx, models.GeocodeEntry{
		Key: Key(3, 4), Name: "Stored", ExpiryTime: clk.Now().Add(time.Hour).UnixMilli(), Source: models.SourceResolved,
	}))

	r := returns("primary", "unused")
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(r), WithClock(clk), WithL1Size(0))

	assert.Equal(t, "Stored", s.LocationName(ctx, 3, 4, nil))
	assert.Zero(t, r.calls.Load())
}

func TestLocationName_OfflineMissSkipsNetwork(t *testing.T) {
	cache := newCache(t)
	r := returns("primary", "unused")
	s := New(cache, online(false), logging.NopLogger{}, WithResolvers(r), WithClock(clock.Fixed()))

	var shown []string
	got := s.LocationName(context.Background(), -6.1754, 106.8272, func(v string) { shown = append(shown, v) })

	assert.Equal(t, "-6.1754, 106.8272", got)
	assert.Equal(t, []string{"-6.1754, 106.8272"}, shown)
	assert.Zero(t, r.calls.Load())
	assert.Empty(t, cache.Puts())
}

func TestLocationName_OfflineHitStillServed(t *testing.T) {
	cache := newCache(t)
	clk := clock.Fixed()
	ctx := context.Background()
	require.NoError(t, cache.Cache.Put(ctx, models.GeocodeEntry{
		Key: Key(3, 4), Name: "Stored", ExpiryTime: clk.Now().Add(time.Hour).UnixMilli(), Source: models.SourceResolved,
	}))

	s := New(cache, online(false), logging.NopLogger{}, WithClock(clk))
	assert.Equal(t, "Stored", s.LocationName(ctx, 3, 4, nil))
}

func TestLocationName_ShowGetsPlaceholderThenName(t *testing.T) {
	s := New(newCache(t), online(true), logging.NopLogger{}, WithResolvers(returns("primary", "Menteng, Jakarta")))

	var shown []string
	s.LocationName(context.Background(), -6.2, 106.83, func(v string) { shown = append(shown, v) })
	assert.Equal(t, []string{"-6.2000, 106.8300", "Menteng, Jakarta"}, shown)
}

func TestLocationName_AllResolversFailCachesFallback(t *testing.T) {
	cache := newCache(t)
	clk := clock.Fixed()
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(fails("primary"), fails("backup")), WithClock(clk))

	got := s.LocationName(context.Background(), 10, 20, nil)
	assert.Equal(t, "10.0000, 20.0000", got)

	puts := cache.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, models.SourceFallback, puts[0].Source)
	assert.Equal(t, "10.0000, 20.0000", puts[0].Name)
	assert.Equal(t, clk.Now().Add(7*24*time.Hour).UnixMilli(), puts[0].ExpiryTime)
}

func TestLocationName_FirstSuccessWinsAndLoserCancelled(t *testing.T) {
	cache := newCache(t)
	cancelled := make(chan struct{})
	slow := hangs("primary", cancelled)
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(slow, returns("backup", "Kota Tua, Jakarta")))

	assert.Equal(t, "Kota Tua, Jakarta", s.LocationName(context.Background(), -6.13, 106.81, nil))

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("losing resolver was not cancelled")
	}
	assert.Len(t, cache.Puts(), 1)
}

func TestLocationName_FailureDoesNotBeatSuccess(t *testing.T) {
	cache := newCache(t)
	slowOK := &fakeResolver{name: "primary", fn: func(context.Context) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "Late But Fine", nil
	}}
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(slowOK, fails("backup")))

	assert.Equal(t, "Late But Fine", s.LocationName(context.Background(), 5, 5, nil))
	assert.Len(t, cache.Puts(), 1)
}

func TestLocationName_TimeoutFallsBack(t *testing.T) {
	cache := newCache(t)
	s := New(cache, online(true), logging.NopLogger{},
		WithResolvers(hangs("primary", nil), hangs("backup", nil)),
		WithTimeout(30*time.Millisecond))

	start := time.Now()
	got := s.LocationName(context.Background(), 1, 1, nil)
	assert.Equal(t, "1.0000, 1.0000", got)
	assert.Less(t, time.Since(start), 2*time.Second)

	puts := cache.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, models.SourceFallback, puts[0].Source)
}

func TestLocationName_CallerCancelSkipsCacheWrite(t *testing.T) {
	cache := newCache(t)
	s := New(cache, online(true), logging.NopLogger{}, WithResolvers(hangs("primary", nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Equal(t, "1.0000, 1.0000", s.LocationName(ctx, 1, 1, nil))
	assert.Empty(t, cache.Puts())
}

func TestSweep_RemovesExpired(t *testing.T) {
	cache := newCache(t)
	clk := clock.Fixed()
	ctx := context.Background()
	now := clk.Now().UnixMilli()
	require.NoError(t, cache.Cache.Put(ctx, models.GeocodeEntry{Key: "old", Name: "a", ExpiryTime: now - 1}))
	require.NoError(t, cache.Cache.Put(ctx, models.GeocodeEntry{Key: "new", Name: "b", ExpiryTime: now + 1}))

	s := New(cache, online(true), logging.NopLogger{}, WithClock(clk))
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	e, err := cache.Get(ctx, "new")
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestStartSweeper_RunsAfterDelay(t *testing.T) {
	cache := newCache(t)
	clk := clock.Fixed()
	ctx := context.Background()
	require.NoError(t, cache.Cache.Put(ctx, models.GeocodeEntry{Key: "old", Name: "a", ExpiryTime: clk.Now().UnixMilli()}))

	s := New(cache, online(true), logging.NopLogger{}, WithClock(clk), WithSweep(10*time.Millisecond, time.Hour))
	stop := s.StartSweeper(ctx)
	defer stop()

	assert.Eventually(t, func() bool {
		e, err := cache.Get(ctx, "old")
		return err == nil && e == nil
	}, 2*time.Second, 5*time.Millisecond)
}
