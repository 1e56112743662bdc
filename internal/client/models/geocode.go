package models

// GeocodeSource tells whether an entry came from a resolver or is the
// raw-coordinate fallback.
type GeocodeSource string

const (
	SourceResolved GeocodeSource = "resolved"
	SourceFallback GeocodeSource = "fallback"
)

// GeocodeEntry caches a place name for a canonical coordinate key. Times are
// epoch milliseconds.
type GeocodeEntry struct {
	Key        string        `json:"key"`
	Name       string        `json:"name"`
	Timestamp  int64         `json:"timestamp"`
	ExpiryTime int64         `json:"expiryTime"`
	Source     GeocodeSource `json:"source"`
}

// Expired reports whether the entry is stale at nowMs.
func (e GeocodeEntry) Expired(nowMs int64) bool {
	return e.ExpiryTime <= nowMs
}
