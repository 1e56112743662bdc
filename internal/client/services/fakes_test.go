package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/reconcile"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/stretchr/testify/require"
)

// fakeClient implements client.Client for service tests.
type fakeClient struct {
	mu sync.Mutex

	StoriesRet []models.Story
	StoriesErr error

	StoryRet *models.Story
	StoryErr error

	AddRet      *models.Story
	AddErr      error
	AddGuestRet *models.Story
	AddGuestErr error
	Added       []models.NewStory
	AddedGuest  []models.NewStory

	LoginRet *models.LoginResult
	LoginErr error

	RegisterErr  error
	LastRegister []string

	CheckRet      *models.Prediction
	CheckErr      error
	GuestCheckErr error
	Checks        int
	GuestChecks   int

	PingErr error
	SendErr error
	Sent    []models.Mutation
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) GetStories(context.Context, bool) ([]models.Story, error) {
	return f.StoriesRet, f.StoriesErr
}

func (f *fakeClient) GetStory(context.Context, string) (*models.Story, error) {
	return f.StoryRet, f.StoryErr
}

func (f *fakeClient) AddStory(_ context.Context, s models.NewStory) (*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Added = append(f.Added, s)
	return f.AddRet, f.AddErr
}

func (f *fakeClient) AddGuestStory(_ context.Context, s models.NewStory) (*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddedGuest = append(f.AddedGuest, s)
	return f.AddGuestRet, f.AddGuestErr
}

func (f *fakeClient) Login(context.Context, string, string) (*models.LoginResult, error) {
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Register(_ context.Context, name, email, password string) error {
	f.LastRegister = []string{name, email, password}
	return f.RegisterErr
}

func (f *fakeClient) CheckHoax(context.Context, string) (*models.Prediction, error) {
	f.Checks++
	return f.CheckRet, f.CheckErr
}

func (f *fakeClient) CheckHoaxGuest(context.Context, string) (*models.Prediction, error) {
	f.GuestChecks++
	return f.CheckRet, f.GuestCheckErr
}

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) Send(_ context.Context, m models.Mutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, m)
	return f.SendErr
}

type onlineFlag struct{ v atomic.Bool }

func (o *onlineFlag) IsOnline() bool { return o.v.Load() }

func online(v bool) *onlineFlag {
	o := &onlineFlag{}
	o.v.Store(v)
	return o
}

// fixedSession is a Session with a constant answer.
type fixedSession struct {
	user User
	ok   bool
}

func (s fixedSession) CurrentUser(context.Context) (User, bool) { return s.user, s.ok }

var (
	signedIn  = fixedSession{user: User{Name: "Ani", Token: "tok"}, ok: true}
	signedOut = fixedSession{}
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:", logging.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newReconciler(st *store.Store) *reconcile.Reconciler {
	return reconcile.New(st, logging.NopLogger{})
}
