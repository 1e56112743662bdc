package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func at(d time.Duration) string {
	return t0.Add(d).Format(time.RFC3339Nano)
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:", logging.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ids(stories []models.Story) []string {
	out := make([]string, 0, len(stories))
	for _, s := range stories {
		out = append(out, s.ID)
	}
	return out
}

func TestReconcile_RemapsOptimisticStoryAndBookmark(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	var rec events.Recorder

	pending := models.Story{ID: "offline-1000", Description: "X", CreatedAt: at(0), Name: "Ani", Pending: true}
	require.True(t, st.Stories.Put(ctx, pending))
	require.True(t, st.Bookmarks.Put(ctx, models.Bookmark{Story: pending, BookmarkedAt: 555}))

	server := models.Story{ID: "42", Description: "X", CreatedAt: at(30 * time.Second), Name: "Ani",
		PhotoURL: "https://cdn/42.jpg"}

	res, err := New(st, logging.NopLogger{}, WithPublisher(&rec)).Reconcile(ctx, []models.Story{server})
	require.NoError(t, err)

	assert.Equal(t, []Remap{{OldID: "offline-1000", NewID: "42", Bookmarked: true}}, res.Remaps)
	assert.Equal(t, 1, res.Upserted)

	all := st.Stories.GetAll(ctx)
	assert.Equal(t, []string{"42"}, ids(all))
	assert.False(t, all[0].Pending)

	assert.Nil(t, st.Bookmarks.Get(ctx, "offline-1000"))
	bm := st.Bookmarks.Get(ctx, "42")
	require.NotNil(t, bm)
	assert.Equal(t, "https://cdn/42.jpg", bm.PhotoURL)
	assert.False(t, bm.Pending)
	assert.Equal(t, int64(555), bm.BookmarkedAt)
	assert.Len(t, st.Bookmarks.GetAll(ctx), 1)

	assert.Equal(t, []events.Event{events.StoryRemapped{OldID: "offline-1000", NewID: "42", Bookmarked: true}}, rec.Events())
}

func TestReconcile_NoMatchOutsideWindow(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	early := models.Story{ID: "offline-1", Description: "X", CreatedAt: at(-61 * time.Second), Pending: true}
	late := models.Story{ID: "offline-2", Description: "X", CreatedAt: at(90 * time.Second), Pending: true}
	require.True(t, st.Stories.Put(ctx, early))
	require.True(t, st.Stories.Put(ctx, late))
	require.True(t, st.Bookmarks.Put(ctx, models.Bookmark{Story: early}))

	res, err := New(st, logging.NopLogger{}).Reconcile(ctx, []models.Story{{ID: "42", Description: "X", CreatedAt: at(0)}})
	require.NoError(t, err)

	assert.Empty(t, res.Remaps)
	assert.ElementsMatch(t, []string{"offline-1", "offline-2", "42"}, ids(st.Stories.GetAll(ctx)))
	assert.NotNil(t, st.Bookmarks.Get(ctx, "offline-1"))
	assert.Nil(t, st.Bookmarks.Get(ctx, "42"))
}

func TestReconcile_ExactlyAtWindowDoesNotMatch(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-1", Description: "X", CreatedAt: at(0), Pending: true}))

	res, err := New(st, logging.NopLogger{}).Reconcile(ctx, []models.Story{{ID: "42", Description: "X", CreatedAt: at(60 * time.Second)}})
	require.NoError(t, err)
	assert.Empty(t, res.Remaps)
}

func TestReconcile_DescriptionMustBeEqual(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-1", Description: "Banjir di Bekasi", CreatedAt: at(0), Pending: true}))

	res, err := New(st, logging.NopLogger{}).Reconcile(ctx, []models.Story{{ID: "42", Description: "Banjir di bekasi", CreatedAt: at(time.Second)}})
	require.NoError(t, err)
	assert.Empty(t, res.Remaps)
	assert.Len(t, st.Stories.GetAll(ctx), 2)
}

func TestReconcile_ServerListIsAuthoritativeForConfirmed(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "1", Description: "old", CreatedAt: at(0)}))
	require.True(t, st.Stories.Put(ctx, models.Story{ID: "2", Description: "gone", CreatedAt: at(0)}))
	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-9", Description: "still waiting", CreatedAt: at(0)}))
	require.True(t, st.Bookmarks.Put(ctx, models.Bookmark{Story: models.Story{ID: "2"}}))

	res, err := New(st, logging.NopLogger{}).Reconcile(ctx, []models.Story{
		{ID: "1", Description: "new", CreatedAt: at(0)},
		{ID: "3", Description: "fresh", CreatedAt: at(0)},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 2, res.Upserted)
	assert.ElementsMatch(t, []string{"1", "3", "offline-9"}, ids(st.Stories.GetAll(ctx)))
	assert.Equal(t, "new", st.Stories.Get(ctx, "1").Description)
	assert.NotNil(t, st.Bookmarks.Get(ctx, "2"), "bookmarks are not story cache")
}

func TestReconcile_EachPendingMatchesOnce(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-1", Description: "X", CreatedAt: at(0), Pending: true}))

	res, err := New(st, logging.NopLogger{}).Reconcile(ctx, []models.Story{
		{ID: "41", Description: "X", CreatedAt: at(5 * time.Second)},
		{ID: "42", Description: "X", CreatedAt: at(10 * time.Second)},
	})
	require.NoError(t, err)

	require.Len(t, res.Remaps, 1)
	assert.Equal(t, "41", res.Remaps[0].NewID)
	assert.ElementsMatch(t, []string{"41", "42"}, ids(st.Stories.GetAll(ctx)))
}

func TestReconcile_PicksClosestInTime(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-a", Description: "X", CreatedAt: at(-40 * time.Second), Pending: true}))
	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-b", Description: "X", CreatedAt: at(-2 * time.Second), Pending: true}))

	res, err := New(st, logging.NopLogger{}).Reconcile(ctx, []models.Story{{ID: "42", Description: "X", CreatedAt: at(0)}})
	require.NoError(t, err)

	require.Len(t, res.Remaps, 1)
	assert.Equal(t, "offline-b", res.Remaps[0].OldID)
	assert.ElementsMatch(t, []string{"offline-a", "42"}, ids(st.Stories.GetAll(ctx)))
}

func TestReconcile_ServerTimeBeforeOptimisticStillMatches(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-1", Description: "X", CreatedAt: at(20 * time.Second), Pending: true}))

	res, err := New(st, logging.NopLogger{}).Reconcile(ctx, []models.Story{{ID: "42", Description: "X", CreatedAt: at(0)}})
	require.NoError(t, err)
	assert.Len(t, res.Remaps, 1)
}

func TestReconcile_CustomWindow(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-1", Description: "X", CreatedAt: at(0), Pending: true}))

	res, err := New(st, logging.NopLogger{}, WithMatchWindow(5*time.Minute)).
		Reconcile(ctx, []models.Story{{ID: "42", Description: "X", CreatedAt: at(2 * time.Minute)}})
	require.NoError(t, err)
	assert.Len(t, res.Remaps, 1)
}

func TestReconcile_RollsBackOnFailure(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	var rec events.Recorder

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "1", Description: "cached", CreatedAt: at(0)}))
	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-1", Description: "X", CreatedAt: at(0), Pending: true}))

	_, err := st.DB().Exec(`DROP TABLE bookmarks`)
	require.NoError(t, err)

	_, err = New(st, logging.NopLogger{}, WithPublisher(&rec)).
		Reconcile(ctx, []models.Story{{ID: "42", Description: "X", CreatedAt: at(time.Second)}})
	require.ErrorContains(t, err, "reconcile:")

	assert.ElementsMatch(t, []string{"1", "offline-1"}, ids(st.Stories.GetAll(ctx)))
	assert.Empty(t, rec.Events())
}

func TestReconcile_EmptyServerList(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	require.True(t, st.Stories.Put(ctx, models.Story{ID: "1", CreatedAt: at(0)}))
	require.True(t, st.Stories.Put(ctx, models.Story{ID: "offline-guest-5", CreatedAt: at(0)}))

	res, err := New(st, logging.NopLogger{}).Reconcile(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, []string{"offline-guest-5"}, ids(st.Stories.GetAll(ctx)))
}
