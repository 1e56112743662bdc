// Package store is the local persistent store of the client: stories,
// bookmarks, the offline mutation queue, the geocode cache and metadata, all
// in one SQLite database.
//
// Repos gives strict access where callers need to see errors (reconciliation,
// queue replay). The Store accessors are fail-soft: a storage failure is
// logged and the caller gets an empty result, since the store is a cache and
// not the system of record.
package store

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/repositories/bookmarks"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/repositories/geocache"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/repositories/mutations"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/repositories/stories"
	"github.com/dmitrijs2005/hoaxbuster/internal/dbx"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
)

const (
	TableStories   = "stories"
	TableBookmarks = "bookmarks"
	TableQueue     = "offline_queue"
	TableGeocode   = "location_cache"
)

var (
	_ Table[models.Story, string]        = (*stories.SQLiteRepository)(nil)
	_ Table[models.Bookmark, string]     = (*bookmarks.SQLiteRepository)(nil)
	_ Table[models.Mutation, int64]      = (*mutations.SQLiteRepository)(nil)
	_ Table[models.GeocodeEntry, string] = (*geocache.SQLiteRepository)(nil)
)

// Repos groups the repositories bound to one DBTX.
type Repos struct {
	Stories   *stories.SQLiteRepository
	Bookmarks *bookmarks.SQLiteRepository
	Mutations *mutations.SQLiteRepository
	Geocache  *geocache.SQLiteRepository
	Metadata  *metadata.SQLiteRepository
}

func NewRepos(db dbx.DBTX) Repos {
	return Repos{
		Stories:   stories.NewSQLiteRepository(db),
		Bookmarks: bookmarks.NewSQLiteRepository(db),
		Mutations: mutations.NewSQLiteRepository(db),
		Geocache:  geocache.NewSQLiteRepository(db),
		Metadata:  metadata.NewSQLiteRepository(db),
	}
}

type Store struct {
	db    *sql.DB
	repos Repos
	log   logging.Logger

	Stories   SoftTable[models.Story, string]
	Bookmarks SoftTable[models.Bookmark, string]
	Queue     SoftTable[models.Mutation, int64]
	Geocode   SoftTable[models.GeocodeEntry, string]
}

// New wraps an opened and migrated database.
func New(db *sql.DB, log logging.Logger) *Store {
	repos := NewRepos(db)
	log = log.With("component", "store")
	return &Store{
		db:        db,
		repos:     repos,
		log:       log,
		Stories:   NewSoftTable[models.Story, string](TableStories, repos.Stories, log),
		Bookmarks: NewSoftTable[models.Bookmark, string](TableBookmarks, repos.Bookmarks, log),
		Queue:     NewSoftTable[models.Mutation, int64](TableQueue, repos.Mutations, log),
		Geocode:   NewSoftTable[models.GeocodeEntry, string](TableGeocode, repos.Geocache, log),
	}
}

// Open opens the database at dsn, migrates it and returns a Store.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	db, err := OpenDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db, log), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Repos returns repositories bound to the database outside any transaction.
func (s *Store) Repos() Repos {
	return s.repos
}

// WithTx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewRepos(tx))
	})
}

// IsBookmarked reports whether id has a bookmark. False on storage failure.
func (s *Store) IsBookmarked(ctx context.Context, id string) bool {
	return s.Bookmarks.Get(ctx, id) != nil
}

// Stats are row counts used by the status endpoint.
type Stats struct {
	Stories      int `json:"stories"`
	Bookmarks    int `json:"bookmarks"`
	QueueDepth   int `json:"queueDepth"`
	GeocodeCache int `json:"geocodeCache"`
}

// Stats counts rows per table. Counts that cannot be read are zero.
func (s *Store) Stats(ctx context.Context) Stats {
	var st Stats
	var err error
	if st.Stories, err = s.repos.Stories.Count(ctx); err != nil {
		s.log.Warn(ctx, "count failed", "table", TableStories, "error", err)
	}
	if st.Bookmarks, err = s.repos.Bookmarks.Count(ctx); err != nil {
		s.log.Warn(ctx, "count failed", "table", TableBookmarks, "error", err)
	}
	if st.QueueDepth, err = s.repos.Mutations.CountPending(ctx); err != nil {
		s.log.Warn(ctx, "count failed", "table", TableQueue, "error", err)
	}
	if st.GeocodeCache, err = s.repos.Geocache.Count(ctx); err != nil {
		s.log.Warn(ctx, "count failed", "table", TableGeocode, "error", err)
	}
	return st
}
