package client

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/goccy/go-json"
)

// StoryMutation builds the queue entry that replays a story submission.
func StoryMutation(s models.NewStory, guest bool, timestamp int64) (models.Mutation, error) {
	p := models.StoryPayload{
		Description: s.Description,
		PhotoName:   s.PhotoName,
		Lat:         s.Lat,
		Lon:         s.Lon,
		Guest:       guest,
	}
	if len(s.Photo) > 0 {
		p.Photo = base64.StdEncoding.EncodeToString(s.Photo)
	}
	body, err := json.Marshal(p)
	if err != nil {
		return models.Mutation{}, fmt.Errorf("failed to encode story payload: %w", err)
	}

	path := PathStories
	if guest {
		path = PathGuestStories
	}
	return models.Mutation{
		URL:       path,
		Method:    http.MethodPost,
		Body:      body,
		Timestamp: timestamp,
		Status:    models.MutationPending,
	}, nil
}

// DecodeStoryPayload reverses StoryMutation.
func DecodeStoryPayload(body []byte) (models.NewStory, bool, error) {
	var p models.StoryPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.NewStory{}, false, fmt.Errorf("failed to decode story payload: %w", err)
	}
	s := models.NewStory{
		Description: p.Description,
		PhotoName:   p.PhotoName,
		Lat:         p.Lat,
		Lon:         p.Lon,
	}
	if p.Photo != "" {
		photo, err := base64.StdEncoding.DecodeString(p.Photo)
		if err != nil {
			return models.NewStory{}, false, fmt.Errorf("failed to decode story photo: %w", err)
		}
		s.Photo = photo
	}
	return s, p.Guest, nil
}
