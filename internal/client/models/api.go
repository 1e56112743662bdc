package models

import "strings"

// StoriesResponse is the body of GET /stories.
type StoriesResponse struct {
	Error     bool    `json:"error"`
	Message   string  `json:"message"`
	ListStory []Story `json:"listStory"`
}

// StoryResponse is the body of GET /stories/:id and POST /stories.
type StoryResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Story   *Story `json:"story"`
}

type LoginResult struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Token  string `json:"token" validate:"required"`
}

// LoginResponse is the body of POST /login.
type LoginResponse struct {
	Error       bool         `json:"error"`
	Message     string       `json:"message"`
	LoginResult *LoginResult `json:"loginResult"`
}

// MessageResponse is the body of endpoints that only acknowledge, such as
// POST /register.
type MessageResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Prediction is the classifier verdict for a piece of news text.
type Prediction struct {
	Label      string  `json:"label" validate:"required"`
	Confidence float64 `json:"confidence"`
}

// IsHoax reports whether the label says hoax, case-insensitively.
func (p Prediction) IsHoax() bool {
	return strings.EqualFold(p.Label, "hoax")
}

// PredictionResponse is the body of POST /predict and /hoax-check/guest.
type PredictionResponse struct {
	Error      bool        `json:"error"`
	Message    string      `json:"message"`
	Prediction *Prediction `json:"prediction"`
}

// Credentials are sent to /login and /register.
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
