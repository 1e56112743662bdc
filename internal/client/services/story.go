package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/reconcile"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/clock"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/gookit/validate"
)

// OnlineChecker reports current connectivity.
type OnlineChecker interface {
	IsOnline() bool
}

// Reconciler merges a fresh server list into the local store.
type Reconciler interface {
	Reconcile(ctx context.Context, incoming []models.Story) (reconcile.Result, error)
}

// StoryService lists, shows and posts stories, falling back to the local
// store and the offline queue when the server cannot be reached.
type StoryService interface {
	// List refreshes the local store from the server when possible and
	// returns the stored stories, newest first.
	List(ctx context.Context) []models.Story
	// Refresh pulls the server list into the local store. It is a no-op
	// while offline or signed out.
	Refresh(ctx context.Context) error
	// Get returns the story from the server, or the local copy. Nil when
	// neither has it.
	Get(ctx context.Context, id string) *models.Story
	// Add posts a story. Offline it stores an optimistic record and queues
	// the request. The returned story may be nil when the server only
	// acknowledges the upload.
	Add(ctx context.Context, s models.NewStory) (*models.Story, error)
	Remove(ctx context.Context, id string) bool
}

type storyService struct {
	api        client.Client
	store      *store.Store
	reconciler Reconciler
	session    Session
	online     OnlineChecker
	clock      clock.Clock
	bus        events.Publisher
	log        logging.Logger
}

func NewStoryService(api client.Client, st *store.Store, rec Reconciler, session Session,
	online OnlineChecker, clk clock.Clock, bus events.Publisher, log logging.Logger) StoryService {
	return &storyService{
		api:        api,
		store:      st,
		reconciler: rec,
		session:    session,
		online:     online,
		clock:      clk,
		bus:        bus,
		log:        log.With("component", "stories"),
	}
}

func (s *storyService) List(ctx context.Context) []models.Story {
	if err := s.Refresh(ctx); err != nil {
		s.log.Warn(ctx, "showing saved stories", "error", err)
		events.Notify(ctx, s.bus, events.LevelWarning, "Could not load new stories. Showing saved stories")
	}
	return s.store.Stories.GetAll(ctx)
}

func (s *storyService) Refresh(ctx context.Context) error {
	if !s.online.IsOnline() {
		return nil
	}
	if _, ok := s.session.CurrentUser(ctx); !ok {
		return nil
	}

	list, err := s.api.GetStories(ctx, true)
	if err != nil {
		return fmt.Errorf("fetch stories: %w", err)
	}
	if _, err := s.reconciler.Reconcile(ctx, list); err != nil {
		return err
	}
	return nil
}

func (s *storyService) Get(ctx context.Context, id string) *models.Story {
	local := func() *models.Story {
		if st := s.store.Stories.Get(ctx, id); st != nil {
			return st
		}
		if bm := s.store.Bookmarks.Get(ctx, id); bm != nil {
			return &bm.Story
		}
		return nil
	}

	if !s.online.IsOnline() || strings.HasPrefix(id, models.OfflinePrefix) {
		return local()
	}

	st, err := s.api.GetStory(ctx, id)
	if err != nil {
		if !errors.Is(err, client.ErrNotFound) {
			s.log.Warn(ctx, "failed to fetch story", "id", id, "error", err)
		}
		return local()
	}
	s.store.Stories.Put(ctx, *st)
	return st
}

func (s *storyService) Add(ctx context.Context, ns models.NewStory) (*models.Story, error) {
	if err := checkNewStory(ns); err != nil {
		return nil, err
	}

	user, signedIn := s.session.CurrentUser(ctx)
	guest := !signedIn

	if s.online.IsOnline() {
		st, err := s.post(ctx, ns, guest)
		if err == nil {
			if st != nil {
				s.store.Stories.Put(ctx, *st)
			}
			events.Notify(ctx, s.bus, events.LevelSuccess, "Story posted")
			return st, nil
		}
		if !client.IsTransient(err) {
			return nil, err
		}
		s.log.Warn(ctx, "posting failed, saving offline", "error", err)
	}

	return s.addOffline(ctx, ns, guest, user.Name)
}

func (s *storyService) post(ctx context.Context, ns models.NewStory, guest bool) (*models.Story, error) {
	if guest {
		return s.api.AddGuestStory(ctx, ns)
	}
	return s.api.AddStory(ctx, ns)
}

// addOffline stores the optimistic record and its queue entry in one
// transaction.
func (s *storyService) addOffline(ctx context.Context, ns models.NewStory, guest bool, userName string) (*models.Story, error) {
	now := s.clock.Now()

	name := userName
	if guest || name == "" {
		name = models.GuestPendingName
	}
	st := models.Story{
		Name:        name,
		Description: ns.Description,
		CreatedAt:   now.UTC().Format(time.RFC3339Nano),
		Lat:         ns.Lat,
		Lon:         ns.Lon,
		Pending:     true,
	}

	m, err := client.StoryMutation(ns, guest, now.UnixMilli())
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, r store.Repos) error {
		// Ids have millisecond resolution; step past ones already taken.
		for at := now; ; at = at.Add(time.Millisecond) {
			st.ID = models.OfflineID(guest, at)
			existing, err := r.Stories.Get(ctx, st.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				break
			}
		}
		if err := r.Stories.Put(ctx, st); err != nil {
			return err
		}
		_, err := r.Mutations.Enqueue(ctx, m)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save story offline: %w", err)
	}

	s.log.Info(ctx, "story saved offline", "id", st.ID, "guest", guest)
	events.Notify(ctx, s.bus, events.LevelInfo, "You are offline. The story was saved and will be posted when you are back online")
	return &st, nil
}

func (s *storyService) Remove(ctx context.Context, id string) bool {
	return s.store.Stories.Delete(ctx, id)
}

func checkNewStory(ns models.NewStory) error {
	vd := validate.Struct(ns)
	if !vd.Validate() {
		return fmt.Errorf("%w: %s", client.ErrRejected, vd.Errors.One())
	}
	if (ns.Lat == nil) != (ns.Lon == nil) {
		return fmt.Errorf("%w: latitude and longitude go together", client.ErrRejected)
	}
	return nil
}
