package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a display name, an email and a password and creates
// the account on the server. It does not sign in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.auth.Register(ctx, name, email, string(password)); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Account created, you can login now")
	return nil
}

// Login prompts for credentials and signs in. Signing in needs the server;
// when it cannot be reached the user stays a guest and saved stories remain
// available.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	if _, err := a.auth.Login(ctx, email, string(password)); err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.log.Info(ctx, "login needs the server, continuing as guest")
		}
		return err
	}

	return nil
}

// Logout forgets the local session. Saved stories, bookmarks and queued
// writes stay.
func (a *App) Logout(ctx context.Context) error {
	return a.auth.Logout(ctx)
}
