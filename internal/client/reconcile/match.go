package reconcile

import (
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
)

// matcher pairs server records with optimistic ones. Each optimistic record
// is consumed by at most one server record.
//
// The pairing is a heuristic: same description and creation times less than
// the window apart. Two identical submissions inside the window may be
// paired crosswise.
type matcher struct {
	window  time.Duration
	pending []candidate
}

type candidate struct {
	story   models.Story
	created time.Time
	valid   bool
	used    bool
}

func newMatcher(pending []models.Story, window time.Duration) *matcher {
	m := &matcher{window: window, pending: make([]candidate, 0, len(pending))}
	for _, p := range pending {
		c := candidate{story: p}
		if t, err := p.CreatedTime(); err == nil {
			c.created, c.valid = t, true
		}
		m.pending = append(m.pending, c)
	}
	return m
}

// match returns the optimistic record s supersedes. A pending record with
// the same id always matches; otherwise the closest in time among those with
// an equal description inside the window wins.
func (m *matcher) match(s models.Story) (models.Story, bool) {
	for i := range m.pending {
		c := &m.pending[i]
		if !c.used && c.story.ID == s.ID {
			c.used = true
			return c.story, true
		}
	}

	created, err := s.CreatedTime()
	if err != nil {
		return models.Story{}, false
	}

	best := -1
	var bestDelta time.Duration
	for i := range m.pending {
		c := &m.pending[i]
		if c.used || !c.valid || c.story.Description != s.Description {
			continue
		}
		delta := created.Sub(c.created)
		if delta < 0 {
			delta = -delta
		}
		if delta >= m.window {
			continue
		}
		if best == -1 || delta < bestDelta {
			best, bestDelta = i, delta
		}
	}
	if best == -1 {
		return models.Story{}, false
	}

	m.pending[best].used = true
	return m.pending[best].story, true
}
