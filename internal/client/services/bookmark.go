package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/clock"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
)

type BookmarkService interface {
	Add(ctx context.Context, s models.Story) bool
	Remove(ctx context.Context, id string) bool
	// Toggle bookmarks s, or removes its bookmark, and reports the new state.
	Toggle(ctx context.Context, s models.Story) (bool, error)
	IsBookmarked(ctx context.Context, id string) bool
	List(ctx context.Context) []models.Bookmark
}

type bookmarkService struct {
	store *store.Store
	clock clock.Clock
	bus   events.Publisher
	log   logging.Logger
}

func NewBookmarkService(st *store.Store, clk clock.Clock, bus events.Publisher, log logging.Logger) BookmarkService {
	return &bookmarkService{store: st, clock: clk, bus: bus, log: log.With("component", "bookmarks")}
}

func (b *bookmarkService) Add(ctx context.Context, s models.Story) bool {
	return b.store.Bookmarks.Put(ctx, b.bookmark(s))
}

// Remove reports false when id was not bookmarked; only a real removal is
// published.
func (b *bookmarkService) Remove(ctx context.Context, id string) bool {
	if b.store.Bookmarks.Get(ctx, id) == nil {
		return false
	}
	if !b.store.Bookmarks.Delete(ctx, id) {
		return false
	}
	b.removed(ctx, id)
	return true
}

// Toggle runs in a transaction so it cannot interleave with a reconcile pass
// that is moving the same bookmark.
func (b *bookmarkService) Toggle(ctx context.Context, s models.Story) (bool, error) {
	var bookmarked bool
	err := b.store.WithTx(ctx, func(ctx context.Context, r store.Repos) error {
		existing, err := r.Bookmarks.Get(ctx, s.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			bookmarked = false
			return r.Bookmarks.Delete(ctx, s.ID)
		}
		bookmarked = true
		return r.Bookmarks.Put(ctx, b.bookmark(s))
	})
	if err != nil {
		return false, fmt.Errorf("toggle bookmark %s: %w", s.ID, err)
	}
	if !bookmarked {
		b.removed(ctx, s.ID)
	}
	return bookmarked, nil
}

func (b *bookmarkService) IsBookmarked(ctx context.Context, id string) bool {
	return b.store.IsBookmarked(ctx, id)
}

func (b *bookmarkService) List(ctx context.Context) []models.Bookmark {
	return b.store.Bookmarks.GetAll(ctx)
}

func (b *bookmarkService) bookmark(s models.Story) models.Bookmark {
	return models.Bookmark{Story: s, BookmarkedAt: b.clock.Now().UnixMilli()}
}

func (b *bookmarkService) removed(ctx context.Context, id string) {
	b.log.Debug(ctx, "bookmark removed", "id", id)
	if b.bus != nil {
		b.bus.Publish(ctx, events.BookmarkRemoved{StoryID: id})
	}
}
