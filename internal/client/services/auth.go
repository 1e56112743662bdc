// Package services contains application services for the HoaxBuster client.
// This file defines the authentication service: login, register, logout and
// the session token kept in local metadata.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
)

// User is the signed-in account.
type User struct {
	Name  string
	Token string
}

// Session tells other services who is signed in.
type Session interface {
	CurrentUser(ctx context.Context) (User, bool)
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the token and name.
//   - Register: create a new user on the server.
//   - Logout: forget the local session.
//   - CurrentUser: the persisted session, if any.
//   - Token: the bearer token for API calls, "" when signed out.
type AuthService interface {
	Session
	client.TokenProvider
	Login(ctx context.Context, email, password string) (User, error)
	Register(ctx context.Context, name, email, password string) error
	Logout(ctx context.Context) error
}

// authService is the concrete AuthService backed by the remote Client and
// the local metadata table.
type authService struct {
	api   client.Client
	store *store.Store
	bus   events.Publisher
	log   logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// store.
func NewAuthService(api client.Client, st *store.Store, bus events.Publisher, log logging.Logger) AuthService {
	return &authService{api: api, store: st, bus: bus, log: log.With("component", "auth")}
}

// SessionToken reads the bearer token straight from metadata. The API client
// is built with it before the AuthService exists.
func SessionToken(st *store.Store) client.TokenProvider {
	return client.TokenFunc(func(ctx context.Context) string {
		token, err := st.Repos().Metadata.GetString(ctx, metadata.KeyToken)
		if err != nil {
			return ""
		}
		return token
	})
}

func (a *authService) metadataRepo() metadata.Repository {
	return a.store.Repos().Metadata
}

// Login authenticates against the server and saves the session in one
// transaction.
func (a *authService) Login(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, fmt.Errorf("%w: email and password are required", client.ErrRejected)
	}

	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return User{}, fmt.Errorf("login error: %w", err)
	}

	u := User{Name: res.Name, Token: res.Token}
	if u.Name == "" {
		u.Name = email
	}
	if err := a.saveSession(ctx, u); err != nil {
		return User{}, fmt.Errorf("session saving error: %w", err)
	}

	a.log.Info(ctx, "signed in", "name", u.Name)
	a.publish(ctx, events.AuthChanged{SignedIn: true, Name: u.Name})
	events.Notify(ctx, a.bus, events.LevelSuccess, "Welcome, %s", u.Name)
	return u, nil
}

func (a *authService) saveSession(ctx context.Context, u User) error {
	return a.store.WithTx(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Metadata.SetString(ctx, metadata.KeyToken, u.Token); err != nil {
			return err
		}
		return r.Metadata.SetString(ctx, metadata.KeyUserName, u.Name)
	})
}

// Register creates a new account on the server. It does not sign in.
func (a *authService) Register(ctx context.Context, name, email, password string) error {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return fmt.Errorf("%w: name, email and password are required", client.ErrRejected)
	}
	if err := a.api.Register(ctx, name, email, password); err != nil {
		return fmt.Errorf("register error: %w", err)
	}
	a.log.Info(ctx, "registered", "name", name)
	return nil
}

// Logout wipes the session. The guest check counter is kept.
func (a *authService) Logout(ctx context.Context) error {
	err := a.store.WithTx(ctx, func(ctx context.Context, r store.Repos) error {
		if err := r.Metadata.Delete(ctx, metadata.KeyToken); err != nil {
			return err
		}
		return r.Metadata.Delete(ctx, metadata.KeyUserName)
	})
	if err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	a.log.Info(ctx, "signed out")
	a.publish(ctx, events.AuthChanged{SignedIn: false})
	return nil
}

// CurrentUser returns the saved session. Storage failures count as signed
// out.
func (a *authService) CurrentUser(ctx context.Context) (User, bool) {
	repo := a.metadataRepo()
	token, err := repo.GetString(ctx, metadata.KeyToken)
	if err != nil {
		a.log.Warn(ctx, "failed to read session", "error", err)
		return User{}, false
	}
	if token == "" {
		return User{}, false
	}
	name, err := repo.GetString(ctx, metadata.KeyUserName)
	if err != nil {
		a.log.Warn(ctx, "failed to read user name", "error", err)
	}
	return User{Name: name, Token: token}, true
}

// Token implements client.TokenProvider.
func (a *authService) Token(ctx context.Context) string {
	u, _ := a.CurrentUser(ctx)
	return u.Token
}

func (a *authService) publish(ctx context.Context, e events.Event) {
	if a.bus != nil {
		a.bus.Publish(ctx, e)
	}
}
