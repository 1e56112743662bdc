package cli

import (
	"context"
	"fmt"
)

// Bookmark toggles the bookmark of a story. The story may come from the
// server, the local store or an existing bookmark.
func (a *App) Bookmark(ctx context.Context, args []string) error {
	id, err := argID(args, "bookmark <id>")
	if err != nil {
		return err
	}

	s := a.stories.Get(ctx, id)
	if s == nil {
		return fmt.Errorf("story %s not found", id)
	}

	on, err := a.bookmarks.Toggle(ctx, *s)
	if err != nil {
		return err
	}

	if on {
		fmt.Fprintln(a.out, "Bookmarked")
	} else {
		fmt.Fprintln(a.out, "Bookmark removed")
	}
	return nil
}

func (a *App) Bookmarks(ctx context.Context) error {
	list := a.bookmarks.List(ctx)
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No bookmarks yet")
		return nil
	}

	for _, b := range list {
		fmt.Fprintf(a.out, "%-24s %-18s %s  %s\n", b.ID, b.Name, formatDate(b.Story), summary(b.Description))
	}
	return nil
}
