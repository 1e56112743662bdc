package models

// MutationStatus is the lifecycle state of a queued write.
type MutationStatus string

const (
	MutationPending   MutationStatus = "pending"
	MutationCompleted MutationStatus = "completed"
)

// Mutation is a write captured while offline, replayed later in
// (Timestamp, ID) order.
type Mutation struct {
	ID         int64
	URL        string
	Method     string
	Body       []byte
	Timestamp  int64
	Status     MutationStatus
	RetryCount int
	LastError  string
}

// StoryPayload is the serialized body of a queued "add story" request. The
// photo travels base64-encoded so the body stays plain JSON.
type StoryPayload struct {
	Description string   `json:"description"`
	Photo       string   `json:"photo,omitempty"`
	PhotoName   string   `json:"photoName,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Guest       bool     `json:"guest,omitempty"`
}
