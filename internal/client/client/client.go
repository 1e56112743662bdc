package client

import (
	"context"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
)

// API paths.
const (
	PathStories      = "/stories"
	PathGuestStories = "/stories/guest"
	PathLogin        = "/login"
	PathRegister     = "/register"
	PathPredict      = "/predict"
	PathGuestCheck   = "/hoax-check/guest"
)

// TokenProvider yields the current bearer token, or "" when signed out.
type TokenProvider interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) string

func (f TokenFunc) Token(ctx context.Context) string { return f(ctx) }

type Client interface {
	GetStories(ctx context.Context, withLocation bool) ([]models.Story, error)
	GetStory(ctx context.Context, id string) (*models.Story, error)
	AddStory(ctx context.Context, s models.NewStory) (*models.Story, error)
	AddGuestStory(ctx context.Context, s models.NewStory) (*models.Story, error)
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Register(ctx context.Context, name, email, password string) error
	CheckHoax(ctx context.Context, text string) (*models.Prediction, error)
	CheckHoaxGuest(ctx context.Context, text string) (*models.Prediction, error)
	Ping(ctx context.Context) error
	Send(ctx context.Context, m models.Mutation) error
}
