// Package reconcile merges a freshly fetched server story list into the local
// store. Optimistic records created offline survive until a server record
// matches them; bookmarks follow the id rewrite.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/dmitrijs2005/hoaxbuster/internal/metrics"
)

// DefaultMatchWindow is how far apart the optimistic and the server creation
// times may be for the two records to count as the same story.
const DefaultMatchWindow = 60 * time.Second

// TxRunner runs fn inside one store transaction. *store.Store implements it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, r store.Repos) error) error
}

// Remap records an optimistic id replaced by a server id.
type Remap struct {
	OldID      string
	NewID      string
	Bookmarked bool
}

// Result summarizes one reconciliation pass.
type Result struct {
	Upserted int
	Removed  int
	Remaps   []Remap
}

type Reconciler struct {
	tx      TxRunner
	window  time.Duration
	bus     events.Publisher
	metrics metrics.Recorder
	log     logging.Logger
}

type Option func(*Reconciler)

func WithMatchWindow(d time.Duration) Option {
	return func(r *Reconciler) { r.window = d }
}

func WithPublisher(p events.Publisher) Option {
	return func(r *Reconciler) { r.bus = p }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(r *Reconciler) { r.metrics = m }
}

func New(tx TxRunner, log logging.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		tx:      tx,
		window:  DefaultMatchWindow,
		metrics: metrics.Nop{},
		log:     log.With("component", "reconcile"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Reconcile makes the local story table mirror incoming while keeping
// unmatched optimistic records. The whole pass is one transaction: on error
// nothing changes and no events are published.
func (r *Reconciler) Reconcile(ctx context.Context, incoming []models.Story) (Result, error) {
	var res Result

	err := r.tx.WithTx(ctx, func(ctx context.Context, repos store.Repos) error {
		res = Result{}

		local, err := repos.Stories.GetAll(ctx)
		if err != nil {
			return err
		}

		var pending, confirmed []models.Story
		for _, s := range local {
			if s.IsOptimistic() {
				pending = append(pending, s)
			} else {
				confirmed = append(confirmed, s)
			}
		}

		incomingIDs := make(map[string]struct{}, len(incoming))
		for _, s := range incoming {
			incomingIDs[s.ID] = struct{}{}
		}

		for _, s := range confirmed {
			if _, ok := incomingIDs[s.ID]; ok {
				continue
			}
			if err := repos.Stories.Delete(ctx, s.ID); err != nil {
				return err
			}
			res.Removed++
		}

		m := newMatcher(pending, r.window)
		for _, s := range incoming {
			s.Pending = false

			if p, ok := m.match(s); ok && p.ID != s.ID {
				remap, err := retire(ctx, repos, p, s)
				if err != nil {
					return err
				}
				res.Remaps = append(res.Remaps, remap)
			}

			if err := repos.Stories.Put(ctx, s); err != nil {
				return err
			}
			res.Upserted++
		}
		return nil
	})
	if err != nil {
		r.log.Error(ctx, "reconciliation aborted", "incoming", len(incoming), "error", err)
		return Result{}, fmt.Errorf("reconcile: %w", err)
	}

	for _, rm := range res.Remaps {
		r.log.Info(ctx, "optimistic story confirmed", "old_id", rm.OldID, "new_id", rm.NewID, "bookmarked", rm.Bookmarked)
		if r.bus != nil {
			r.bus.Publish(ctx, events.StoryRemapped{OldID: rm.OldID, NewID: rm.NewID, Bookmarked: rm.Bookmarked})
		}
	}
	r.metrics.RecordRemapped(len(res.Remaps))
	r.log.Debug(ctx, "reconciled", "upserted", res.Upserted, "removed", res.Removed, "remapped", len(res.Remaps))

	return res, nil
}

// retire deletes the optimistic record and moves its bookmark, if any, onto
// the server record.
func retire(ctx context.Context, repos store.Repos, optimistic, confirmed models.Story) (Remap, error) {
	rm := Remap{OldID: optimistic.ID, NewID: confirmed.ID}

	if err := repos.Stories.Delete(ctx, optimistic.ID); err != nil {
		return rm, err
	}

	bm, err := repos.Bookmarks.Get(ctx, optimistic.ID)
	if err != nil {
		return rm, err
	}
	if bm == nil {
		return rm, nil
	}

	if err := repos.Bookmarks.Delete(ctx, optimistic.ID); err != nil {
		return rm, err
	}
	moved := models.Bookmark{Story: confirmed, BookmarkedAt: bm.BookmarkedAt}
	if err := repos.Bookmarks.Put(ctx, moved); err != nil {
		return rm, err
	}
	rm.Bookmarked = true
	return rm, nil
}
