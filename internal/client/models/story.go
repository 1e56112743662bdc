// Package models defines the client-side records kept in the local store and
// exchanged with the story API.
package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	// OfflinePrefix marks ids generated locally for optimistic records.
	OfflinePrefix = "offline-"
	// OfflineGuestPrefix marks optimistic records authored by a guest.
	OfflineGuestPrefix = "offline-guest-"

	GuestName        = "Guest"
	GuestPendingName = "Guest (pending)"
)

// Story is a story as returned by the API, or an optimistic local record
// awaiting sync. Bookmarks use the same shape.
type Story struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PhotoURL    string   `json:"photoUrl"`
	CreatedAt   string   `json:"createdAt"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Pending     bool     `json:"pending,omitempty"`
}

// storyWire mirrors Story with a raw id. goccy/go-json cannot decode into an
// embedded pointer to an unexported type, so every field is spelled out.
type storyWire struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PhotoURL    string          `json:"photoUrl"`
	CreatedAt   string          `json:"createdAt"`
	Lat         *float64        `json:"lat"`
	Lon         *float64        `json:"lon"`
	Pending     bool            `json:"pending"`
}

// UnmarshalJSON accepts the id as either a JSON string or a number.
func (s *Story) UnmarshalJSON(b []byte) error {
	var w storyWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	var id string
	raw := bytes.TrimSpace(w.ID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &id); err != nil {
			return err
		}
	default:
		if _, err := strconv.ParseFloat(string(raw), 64); err != nil {
			return fmt.Errorf("story id must be a string or number, got %s", raw)
		}
		id = string(raw)
	}

	*s = Story{
		ID:          id,
		Name:        w.Name,
		Description: w.Description,
		PhotoURL:    w.PhotoURL,
		CreatedAt:   w.CreatedAt,
		Lat:         w.Lat,
		Lon:         w.Lon,
		Pending:     w.Pending,
	}
	return nil
}

// IsOptimistic reports whether the record was created locally and has not
// been confirmed by the server yet.
func (s Story) IsOptimistic() bool {
	return s.Pending || strings.HasPrefix(s.ID, OfflinePrefix)
}

// HasLocation reports whether both coordinates are set.
func (s Story) HasLocation() bool {
	return s.Lat != nil && s.Lon != nil
}

// CreatedTime parses CreatedAt as RFC 3339.
func (s Story) CreatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s.CreatedAt)
}

// OfflineID builds an optimistic id from the creation time.
func OfflineID(guest bool, now time.Time) string {
	prefix := OfflinePrefix
	if guest {
		prefix = OfflineGuestPrefix
	}
	return prefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// NewStory is the input for creating a story.
type NewStory struct {
	Description string `validate:"required"`
	Photo       []byte
	PhotoName   string
	Lat         *float64
	Lon         *float64
}

// Float returns a pointer to v, handy for the nullable coordinates.
func Float(v float64) *float64 {
	return &v
}

// Bookmark is a story the user chose to keep. It is a copy, so it outlives
// the story cache.
type Bookmark struct {
	Story
	// BookmarkedAt is epoch milliseconds.
	BookmarkedAt int64
}
