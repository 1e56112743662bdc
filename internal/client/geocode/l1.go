package geocode

import (
	"github.com/coocood/freecache"
	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
)

// DefaultL1Size is the in-process cache size in bytes.
const DefaultL1Size = 1 << 20

// l1 keeps hot entries in memory in front of SQLite. Entries carry their own
// expiry time and are checked against the service clock, so freecache is
// never given a TTL.
type l1 struct {
	cache *freecache.Cache
}

func newL1(size int) *l1 {
	if size <= 0 {
		return nil
	}
	return &l1{cache: freecache.NewCache(size)}
}

func (c *l1) get(key string) (models.GeocodeEntry, bool) {
	var e models.GeocodeEntry
	if c == nil {
		return e, false
	}
	raw, err := c.cache.Get([]byte(key))
	if err != nil {
		return e, false
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		c.del(key)
		return e, false
	}
	return e, true
}

func (c *l1) set(e models.GeocodeEntry) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = c.cache.Set([]byte(e.Key), raw, 0)
}

func (c *l1) del(key string) {
	if c == nil {
		return
	}
	c.cache.Del([]byte(key))
}
