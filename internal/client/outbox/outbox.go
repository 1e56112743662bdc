// Package outbox is the offline mutation queue: writes made without
// connectivity are stored and replayed in FIFO order once the client is back
// online.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/clock"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/dmitrijs2005/hoaxbuster/internal/metrics"
)

// DefaultMaxRetries is how many failed replays an entry survives. The next
// failure drops it.
const DefaultMaxRetries = 5

var ErrReplayInProgress = errors.New("replay already in progress")

// Policy decides what a replay does after an entry fails.
type Policy int

const (
	// HaltOnFailure stops at the first failing entry so later entries never
	// overtake it. One stuck entry blocks everything behind it until it
	// succeeds or is dropped.
	HaltOnFailure Policy = iota
	// ContinueOnFailure leaves the failing entry in place and moves on to
	// the next one.
	ContinueOnFailure
)

func (p Policy) String() string {
	switch p {
	case HaltOnFailure:
		return "halt"
	case ContinueOnFailure:
		return "continue"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "halt" or "continue".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "halt":
		return HaltOnFailure, nil
	case "continue":
		return ContinueOnFailure, nil
	default:
		return HaltOnFailure, fmt.Errorf("unknown replay policy %q", s)
	}
}

// Sender re-issues a queued request.
type Sender interface {
	Send(ctx context.Context, m models.Mutation) error
}

// Repository is the persistent queue storage.
type Repository interface {
	Enqueue(ctx context.Context, m models.Mutation) (int64, error)
	Pending(ctx context.Context) ([]models.Mutation, error)
	Delete(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64) error
	IncrementRetry(ctx context.Context, id int64, lastErr string) (int, error)
	CountPending(ctx context.Context) (int, error)
	PurgeCompleted(ctx context.Context) (int64, error)
}

// Report summarizes one replay.
type Report struct {
	Attempted int
	Synced    int
	Failed    int
	Dropped   int
	Remaining int
	Halted    bool
}

type Queue struct {
	repo    Repository
	sender  Sender
	clock   clock.Clock
	bus     events.Publisher
	metrics metrics.Recorder
	log     logging.Logger

	policy          Policy
	maxRetries      int
	retainCompleted bool

	replaying sync.Mutex
}

type Option func(*Queue)

func WithPolicy(p Policy) Option {
	return func(q *Queue) { q.policy = p }
}

func WithMaxRetries(n int) Option {
	return func(q *Queue) { q.maxRetries = n }
}

// WithRetainCompleted marks replayed entries completed instead of deleting
// them. PurgeCompleted removes them later.
func WithRetainCompleted(retain bool) Option {
	return func(q *Queue) { q.retainCompleted = retain }
}

func WithPublisher(p events.Publisher) Option {
	return func(q *Queue) { q.bus = p }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(q *Queue) { q.metrics = m }
}

func WithClock(c clock.Clock) Option {
	return func(q *Queue) { q.clock = c }
}

func New(repo Repository, sender Sender, log logging.Logger, opts ...Option) *Queue {
	q := &Queue{
		repo:       repo,
		sender:     sender,
		clock:      clock.Real{},
		metrics:    metrics.Nop{},
		log:        log.With("component", "outbox"),
		policy:     HaltOnFailure,
		maxRetries: DefaultMaxRetries,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Enqueue stores m as pending. A zero Timestamp is set from the clock.
func (q *Queue) Enqueue(ctx context.Context, m models.Mutation) (int64, error) {
	if m.Timestamp == 0 {
		m.Timestamp = q.clock.Now().UnixMilli()
	}
	m.Status = models.MutationPending
	m.RetryCount = 0
	m.LastError = ""

	id, err := q.repo.Enqueue(ctx, m)
	if err != nil {
		return 0, fmt.Errorf("enqueue %s %s: %w", m.Method, m.URL, err)
	}
	q.log.Info(ctx, "mutation queued", "id", id, "method", m.Method, "url", m.URL)
	q.refreshDepth(ctx)
	return id, nil
}

// Pending lists entries awaiting replay in replay order.
func (q *Queue) Pending(ctx context.Context) ([]models.Mutation, error) {
	return q.repo.Pending(ctx)
}

// Replay sends pending entries in FIFO order. Only one replay runs at a
// time; a concurrent call gets ErrReplayInProgress. An error is returned
// only when the queue storage fails or ctx ends; send failures are counted
// in the Report.
func (q *Queue) Replay(ctx context.Context) (Report, error) {
	if !q.replaying.TryLock() {
		return Report{}, ErrReplayInProgress
	}
	defer q.replaying.Unlock()

	var rep Report
	entries, err := q.repo.Pending(ctx)
	if err != nil {
		return rep, fmt.Errorf("load queue: %w", err)
	}
	if len(entries) == 0 {
		return rep, nil
	}
	q.log.Info(ctx, "replaying queue", "entries", len(entries), "policy", q.policy.String())

	for _, m := range entries {
		if err := ctx.Err(); err != nil {
			rep.Halted = true
			return q.finish(ctx, rep), err
		}
		rep.Attempted++

		sendErr := q.sender.Send(ctx, m)
		if sendErr == nil {
			if err := q.consume(ctx, m); err != nil {
				return q.finish(ctx, rep), err
			}
			rep.Synced++
			q.metrics.RecordReplay(metrics.ReplaySynced)
			q.log.Info(ctx, "mutation synced", "id", m.ID, "url", m.URL)
			q.publish(ctx, events.MutationSynced{MutationID: m.ID, URL: m.URL})
			continue
		}

		if errors.Is(sendErr, context.Canceled) && ctx.Err() != nil {
			rep.Halted = true
			return q.finish(ctx, rep), ctx.Err()
		}

		dropped, err := q.fail(ctx, m, sendErr)
		if err != nil {
			return q.finish(ctx, rep), err
		}
		if dropped {
			rep.Dropped++
		} else {
			rep.Failed++
		}

		if q.policy == HaltOnFailure {
			rep.Halted = true
			break
		}
	}

	rep = q.finish(ctx, rep)
	if rep.Synced > 0 {
		events.Notify(ctx, q.bus, events.LevelSuccess, "%d offline %s synced", rep.Synced, plural(rep.Synced, "story", "stories"))
	}
	return rep, nil
}

// PurgeCompleted deletes entries kept by WithRetainCompleted.
func (q *Queue) PurgeCompleted(ctx context.Context) (int64, error) {
	n, err := q.repo.PurgeCompleted(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		q.log.Info(ctx, "purged completed mutations", "count", n)
	}
	return n, nil
}

// Depth returns the number of pending entries, 0 when it cannot be read.
func (q *Queue) Depth(ctx context.Context) int {
	n, err := q.repo.CountPending(ctx)
	if err != nil {
		q.log.Warn(ctx, "failed to count queue", "error", err)
		return 0
	}
	return n
}

func (q *Queue) consume(ctx context.Context, m models.Mutation) error {
	if q.retainCompleted {
		if err := q.repo.MarkCompleted(ctx, m.ID); err != nil {
			return fmt.Errorf("mark mutation %d completed: %w", m.ID, err)
		}
		return nil
	}
	if err := q.repo.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("remove mutation %d: %w", m.ID, err)
	}
	return nil
}

// fail records a failed attempt in place and drops the entry once it has
// failed more than maxRetries times.
func (q *Queue) fail(ctx context.Context, m models.Mutation, sendErr error) (bool, error) {
	retries, err := q.repo.IncrementRetry(ctx, m.ID, sendErr.Error())
	if err != nil {
		return false, fmt.Errorf("record failure of mutation %d: %w", m.ID, err)
	}

	if retries <= q.maxRetries {
		q.metrics.RecordReplay(metrics.ReplayFailed)
		q.log.Warn(ctx, "mutation replay failed", "id", m.ID, "url", m.URL, "retries", retries, "error", sendErr)
		return false, nil
	}

	if err := q.repo.Delete(ctx, m.ID); err != nil {
		return false, fmt.Errorf("drop mutation %d: %w", m.ID, err)
	}
	q.metrics.RecordReplay(metrics.ReplayDropped)
	q.log.Error(ctx, "mutation dropped after too many failures", "id", m.ID, "url", m.URL, "retries", retries, "error", sendErr)
	q.publish(ctx, events.MutationDropped{MutationID: m.ID, URL: m.URL, Retries: retries, LastError: sendErr.Error()})
	events.Notify(ctx, q.bus, events.LevelError, "A story saved offline could not be synced and was discarded")
	return true, nil
}

func (q *Queue) finish(ctx context.Context, rep Report) Report {
	rep.Remaining = q.refreshDepth(ctx)
	q.log.Info(ctx, "replay finished", "attempted", rep.Attempted, "synced", rep.Synced,
		"failed", rep.Failed, "dropped", rep.Dropped, "remaining", rep.Remaining, "halted", rep.Halted)
	return rep
}

func (q *Queue) refreshDepth(ctx context.Context) int {
	n := q.Depth(context.WithoutCancel(ctx))
	q.metrics.SetQueueDepth(n)
	return n
}

func (q *Queue) publish(ctx context.Context, e events.Event) {
	if q.bus != nil {
		q.bus.Publish(ctx, e)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
