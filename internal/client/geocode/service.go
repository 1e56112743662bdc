// Package geocode turns story coordinates into short place names. Results
// are cached in SQLite with an in-memory layer in front; misses race two
// public reverse geocoders and fall back to the raw coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/clock"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/dmitrijs2005/hoaxbuster/internal/metrics"
	"github.com/dmitrijs2005/hoaxbuster/internal/timex"
)

const (
	DefaultTimeout       = 8 * time.Second
	DefaultSweepDelay    = time.Second
	DefaultSweepInterval = time.Hour
)

var (
	ResolvedTTL = timex.Days(30)
	// FallbackTTL is shorter so a resolver outage is retried sooner.
	FallbackTTL = timex.Days(7)
)

// Cache is the persistent geocode table.
type Cache interface {
	Get(ctx context.Context, key string) (*models.GeocodeEntry, error)
	Put(ctx context.Context, e models.GeocodeEntry) error
	DeleteExpired(ctx context.Context, nowMs int64) (int64, error)
}

// OnlineChecker reports current connectivity.
type OnlineChecker interface {
	IsOnline() bool
}

type Service struct {
	cache     Cache
	online    OnlineChecker
	resolvers []Resolver
	l1        *l1
	clock     clock.Clock
	metrics   metrics.Recorder
	log       logging.Logger

	timeout       time.Duration
	sweepDelay    time.Duration
	sweepInterval time.Duration
}

type Option func(*Service)

func WithResolvers(r ...Resolver) Option {
	return func(s *Service) { s.resolvers = r }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithL1Size sets the in-memory cache size in bytes; 0 disables it.
func WithL1Size(bytes int) Option {
	return func(s *Service) { s.l1 = newL1(bytes) }
}

func WithSweep(delay, interval time.Duration) Option {
	return func(s *Service) {
		s.sweepDelay = delay
		s.sweepInterval = interval
	}
}

func New(cache Cache, online OnlineChecker, log logging.Logger, opts ...Option) *Service {
	s := &Service{
		cache:         cache,
		online:        online,
		l1:            newL1(DefaultL1Size),
		clock:         clock.Real{},
		metrics:       metrics.Nop{},
		log:           log.With("component", "geocode"),
		timeout:       DefaultTimeout,
		sweepDelay:    DefaultSweepDelay,
		sweepInterval: DefaultSweepInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LocationName returns a display name for the coordinates. show, when not
// nil, gets the raw-coordinate placeholder right away and the final name
// once it differs from the placeholder.
func (s *Service) LocationName(ctx context.Context, lat, lon float64, show func(string)) string {
	key := Key(lat, lon)
	placeholder := Placeholder(lat, lon)
	if show != nil {
		show(placeholder)
	}

	name := s.lookup(ctx, key, lat, lon, placeholder)
	if show != nil && name != placeholder {
		show(name)
	}
	return name
}

func (s *Service) lookup(ctx context.Context, key string, lat, lon float64, placeholder string) string {
	if e, ok := s.cached(ctx, key); ok {
		s.metrics.RecordGeocodeLookup(metrics.GeocodeHit)
		return e.Name
	}

	if s.online != nil && !s.online.IsOnline() {
		s.metrics.RecordGeocodeLookup(metrics.GeocodeOffline)
		return placeholder
	}

	name, resolver, err := s.resolve(ctx, lat, lon)
	if err != nil {
		if ctx.Err() != nil {
			return placeholder
		}
		s.log.Warn(ctx, "reverse geocoding failed, using coordinates", "key", key, "error", err)
		s.metrics.RecordGeocodeLookup(metrics.GeocodeFallback)
		s.store(ctx, key, placeholder, models.SourceFallback, FallbackTTL)
		return placeholder
	}

	s.log.Debug(ctx, "reverse geocoded", "key", key, "name", name, "resolver", resolver)
	s.metrics.RecordGeocodeLookup(metrics.GeocodeMiss)
	s.store(ctx, key, name, models.SourceResolved, ResolvedTTL)
	return name
}

// cached returns an unexpired entry from memory or SQLite.
func (s *Service) cached(ctx context.Context, key string) (models.GeocodeEntry, bool) {
	now := s.clock.Now().UnixMilli()

	if e, ok := s.l1.get(key); ok {
		if !e.Expired(now) {
			return e, true
		}
		s.l1.del(key)
	}

	e, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn(ctx, "failed to read geocode cache", "key", key, "error", err)
		return models.GeocodeEntry{}, false
	}
	if e == nil || e.Expired(now) {
		return models.GeocodeEntry{}, false
	}
	s.l1.set(*e)
	return *e, true
}

func (s *Service) store(ctx context.Context, key, name string, source models.GeocodeSource, ttl time.Duration) {
	now := s.clock.Now()
	e := models.GeocodeEntry{
		Key:        key,
		Name:       name,
		Timestamp:  now.UnixMilli(),
		ExpiryTime: now.Add(ttl).UnixMilli(),
		Source:     source,
	}
	if err := s.cache.Put(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn(ctx, "failed to write geocode cache", "key", key, "error", err)
		s.l1.del(key)
		return
	}
	s.l1.set(e)
}

type resolution struct {
	name     string
	resolver string
	err      error
}

// resolve races every resolver under the timeout. The first non-empty name
// wins and the rest are cancelled.
func (s *Service) resolve(ctx context.Context, lat, lon float64) (string, string, error) {
	if len(s.resolvers) == 0 {
		return "", "", ErrNoResult
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := make(chan resolution, len(s.resolvers))
	for _, r := range s.resolvers {
		r := r
		go func() {
			name, err := r.Resolve(ctx, lat, lon)
			if err == nil && name == "" {
				err = ErrNoResult
			}
			results <- resolution{name: name, resolver: r.Name(), err: err}
		}()
	}

	var errs []error
	for range s.resolvers {
		select {
		case res := <-results:
			if res.err == nil {
				return res.name, res.resolver, nil
			}
			s.metrics.RecordResolverFailure(res.resolver)
			errs = append(errs, fmt.Errorf("%s: %w", res.resolver, res.err))
		case <-ctx.Done():
			return "", "", errors.Join(append(errs, ctx.Err())...)
		}
	}
	return "", "", errors.Join(errs...)
}

// Sweep deletes expired entries from the persistent cache.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.cache.DeleteExpired(ctx, s.clock.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sweep geocode cache: %w", err)
	}
	if n > 0 {
		s.log.Info(ctx, "expired geocode entries removed", "count", n)
	}
	return n, nil
}

// StartSweeper runs Sweep once after the sweep delay and then on every
// interval until ctx ends or stop is called. stop waits for the loop to exit.
func (s *Service) StartSweeper(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		timer := time.NewTimer(s.sweepDelay)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn(ctx, "geocode sweep failed", "error", err)
			}
			if s.sweepInterval <= 0 {
				return
			}
			timer.Reset(s.sweepInterval)
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
