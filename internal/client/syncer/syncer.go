// Package syncer runs the sync cycle: pull the server list into the store,
// replay the offline queue, and pull again when anything was replayed so
// the optimistic records get matched to their server versions.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/outbox"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/dmitrijs2005/hoaxbuster/internal/metrics"
)

// Refresher pulls the server list into the local store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Replayer replays the offline queue.
type Replayer interface {
	Replay(ctx context.Context) (outbox.Report, error)
}

// Summary describes one sync run.
type Summary struct {
	RunID      string
	Replay     outbox.Report
	Refreshes  int
	RefreshErr error
	ReplayErr  error
	Duration   time.Duration
}

// Err joins the errors of the run.
func (s Summary) Err() error {
	return errors.Join(s.RefreshErr, s.ReplayErr)
}

type Syncer struct {
	stories Refresher
	queue   Replayer
	metrics metrics.Recorder
	log     logging.Logger

	mu      sync.Mutex
	pending sync.Mutex
	wg      sync.WaitGroup
}

type Option func(*Syncer)

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Syncer) { s.metrics = m }
}

func New(stories Refresher, queue Replayer, log logging.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		stories: stories,
		queue:   queue,
		metrics: metrics.Nop{},
		log:     log.With("component", "syncer"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SyncNow runs one sync cycle. Runs are serialized: a call made while
// another run is active waits for it to finish.
func (s *Syncer) SyncNow(ctx context.Context) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx)
}

func (s *Syncer) run(ctx context.Context) Summary {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}
	ctx = logging.ContextWith(ctx, "run_id", sum.RunID)
	s.log.Info(ctx, "sync started")

	sum.RefreshErr = s.refresh(ctx, &sum)

	rep, err := s.queue.Replay(ctx)
	sum.Replay = rep
	if err != nil && !errors.Is(err, outbox.ErrReplayInProgress) {
		sum.ReplayErr = fmt.Errorf("replay: %w", err)
	}

	if rep.Synced > 0 {
		if err := s.refresh(ctx, &sum); err != nil {
			sum.RefreshErr = err
		}
	}

	sum.Duration = time.Since(start)
	outcome := metrics.SyncOK
	if sum.Err() != nil {
		outcome = metrics.SyncFailed
		s.log.Warn(ctx, "sync finished with errors", "error", sum.Err(), "duration", sum.Duration.String())
	} else {
		s.log.Info(ctx, "sync finished", "synced", rep.Synced, "dropped", rep.Dropped,
			"remaining", rep.Remaining, "duration", sum.Duration.String())
	}
	s.metrics.RecordSyncRun(outcome, sum.Duration)
	return sum
}

func (s *Syncer) refresh(ctx context.Context, sum *Summary) error {
	sum.Refreshes++
	if err := s.stories.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// OnNetworkChange starts a background sync when the client comes online.
// While one is already waiting to run, further triggers are dropped.
func (s *Syncer) OnNetworkChange(ctx context.Context, online bool) {
	if !online {
		return
	}
	if !s.pending.TryLock() {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pending.Unlock()
		s.run(ctx)
	}()
}

// Listener adapts OnNetworkChange to netstatus.Monitor.AddListener.
func (s *Syncer) Listener(ctx context.Context) func(online bool) {
	return func(online bool) { s.OnNetworkChange(ctx, online) }
}

// Wait blocks until background syncs started by OnNetworkChange are done.
func (s *Syncer) Wait() {
	s.wg.Wait()
}
