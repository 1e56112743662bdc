package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/services"
)

// Check asks the classifier whether a piece of news is a hoax. Guests have
// a small quota.
func (a *App) Check(ctx context.Context) error {
	text, err := GetMultiline(a.reader, "Paste the news text", a.out)
	if err != nil {
		return err
	}

	p, err := a.hoax.Check(ctx, text)
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return errors.New("checking needs a connection, try again when you are back online")
	case errors.Is(err, services.ErrGuestLimitReached):
		return fmt.Errorf("%w (%d free checks used)", err, services.GuestCheckLimit)
	case err != nil:
		return err
	}

	verdict := "Looks legitimate"
	if p.IsHoax() {
		verdict = "Likely a HOAX"
	}
	fmt.Fprintf(a.out, "%s (%s, confidence %.0f%%)\n", verdict, p.Label, p.Confidence*100)

	if !a.isLoggedIn(ctx) {
		fmt.Fprintf(a.out, "Free checks left: %d\n", a.hoax.GuestChecksLeft(ctx))
	}
	return nil
}
