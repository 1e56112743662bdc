package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
)

// Queue prints the writes waiting for sync in replay order.
func (a *App) Queue(ctx context.Context) error {
	pending, err := a.queue.Pending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(a.out, "Nothing waiting for sync")
		return nil
	}

	for _, m := range pending {
		what := m.Method + " " + m.URL
		if ns, guest, err := client.DecodeStoryPayload(m.Body); err == nil {
			what = summary(ns.Description)
			if guest {
				what += " (guest)"
			}
		}

		line := fmt.Sprintf("#%-4d %s  retries %d  %s", m.ID,
			time.UnixMilli(m.Timestamp).Format(dateLayout), m.RetryCount, what)
		if m.LastError != "" {
			line += "  last error: " + m.LastError
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// Sync probes the server and, when it answers, pulls fresh stories and
// replays the queue.
func (a *App) Sync(ctx context.Context) error {
	if !a.online.Check(ctx) {
		return client.ErrUnavailable
	}

	sum := a.sync.SyncNow(ctx)
	rep := sum.Replay
	fmt.Fprintf(a.out, "Synced %d, failed %d, dropped %d, still queued %d\n",
		rep.Synced, rep.Failed, rep.Dropped, rep.Remaining)
	return sum.Err()
}

// Status prints connectivity, the signed-in user and local store counts.
func (a *App) Status(ctx context.Context) error {
	online := "offline"
	if a.online.IsOnline() {
		online = "online"
	}
	user := "guest"
	if u, ok := a.auth.CurrentUser(ctx); ok {
		user = u.Name
	}

	st := a.stats.Stats(ctx)
	fmt.Fprintf(a.out, "Server:      %s (%s)\n", a.cfg.APIURL, online)
	fmt.Fprintf(a.out, "User:        %s\n", user)
	fmt.Fprintf(a.out, "Stories:     %d\n", st.Stories)
	fmt.Fprintf(a.out, "Bookmarks:   %d\n", st.Bookmarks)
	fmt.Fprintf(a.out, "Queued:      %d\n", st.QueueDepth)
	fmt.Fprintf(a.out, "Geocache:    %d\n", st.GeocodeCache)
	return nil
}
