package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/filex"
)

const (
	dateLayout     = "02 Jan 2006 15:04"
	summaryLength  = 60
	pendingMarker  = "[pending]"
	bookmarkMarker = "*"
)

// List prints the stories, newest first. Offline it prints the saved copies.
func (a *App) List(ctx context.Context) error {
	list := a.stories.List(ctx)
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No stories yet")
		return nil
	}

	for _, s := range list {
		a.printStoryLine(ctx, s)
	}
	return nil
}

// Show prints one story. The location is shown as coordinates first and
// replaced by a place name once it resolves.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := argID(args, "show <id>")
	if err != nil {
		return err
	}

	s := a.stories.Get(ctx, id)
	if s == nil {
		return fmt.Errorf("story %s not found", id)
	}

	printStory(a.out, *s, a.bookmarks.IsBookmarked(ctx, s.ID))
	if s.HasLocation() {
		a.geo.LocationName(ctx, *s.Lat, *s.Lon, func(name string) {
			fmt.Fprintf(a.out, "Location:    %s\n", name)
		})
	}
	return nil
}

// Add prompts for a new story and posts it. Offline the story is kept
// locally and queued.
func (a *App) Add(ctx context.Context) error {
	desc, err := GetMultiline(a.reader, "Enter description", a.out)
	if err != nil {
		return err
	}

	ns := models.NewStory{Description: desc}

	path, err := getSimpleText(a.reader, "Photo path (empty to skip)", a.out)
	if err != nil {
		return err
	}
	if path != "" {
		photo, err := filex.ReadLimited(path, filex.MaxPhotoSize)
		if err != nil {
			return err
		}
		ns.Photo = photo
		ns.PhotoName = filepath.Base(path)
	}

	if ns.Lat, err = a.readCoordinate("Latitude (empty to skip)", -90, 90); err != nil {
		return err
	}
	if ns.Lat != nil {
		if ns.Lon, err = a.readCoordinate("Longitude", -180, 180); err != nil {
			return err
		}
	}

	s, err := a.stories.Add(ctx, ns)
	if err != nil {
		return err
	}

	if s != nil && !s.IsOptimistic() {
		fmt.Fprintf(a.out, "Story id: %s\n", s.ID)
	}
	return nil
}

// Remove deletes a story from the local store only.
func (a *App) Remove(ctx context.Context, args []string) error {
	id, err := argID(args, "remove <id>")
	if err != nil {
		return err
	}

	if !a.stories.Remove(ctx, id) {
		return fmt.Errorf("story %s could not be removed", id)
	}
	fmt.Fprintln(a.out, "Removed")
	return nil
}

func (a *App) readCoordinate(prompt string, lo, hi float64) (*float64, error) {
	raw, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return nil, err
	}
	return parseCoordinate(raw, lo, hi)
}

// parseCoordinate reads a decimal degree. Empty input means no value.
func parseCoordinate(raw string, lo, hi float64) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid coordinate %q", raw)
	}
	if v < lo || v > hi {
		return nil, fmt.Errorf("coordinate %v out of range [%v, %v]", v, lo, hi)
	}
	return models.Float(v), nil
}

func (a *App) printStoryLine(ctx context.Context, s models.Story) {
	var flags []string
	if s.IsOptimistic() {
		flags = append(flags, pendingMarker)
	}
	if a.bookmarks.IsBookmarked(ctx, s.ID) {
		flags = append(flags, bookmarkMarker)
	}

	line := fmt.Sprintf("%-24s %-18s %s  %s", s.ID, s.Name, formatDate(s), summary(s.Description))
	if len(flags) > 0 {
		line += " " + strings.Join(flags, " ")
	}
	fmt.Fprintln(a.out, line)
}

func printStory(w io.Writer, s models.Story, bookmarked bool) {
	fmt.Fprintf(w, "ID:          %s\n", s.ID)
	fmt.Fprintf(w, "Author:      %s\n", s.Name)
	fmt.Fprintf(w, "Created:     %s\n", formatDate(s))
	if s.PhotoURL != "" {
		fmt.Fprintf(w, "Photo:       %s\n", s.PhotoURL)
	}
	if s.IsOptimistic() {
		fmt.Fprintln(w, "Status:      waiting for sync")
	}
	if bookmarked {
		fmt.Fprintln(w, "Bookmarked:  yes")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Description)
	fmt.Fprintln(w)
}

func formatDate(s models.Story) string {
	t, err := s.CreatedTime()
	if err != nil {
		return s.CreatedAt
	}
	return t.In(time.Local).Format(dateLayout)
}

// summary shortens text to one line of at most summaryLength runes.
func summary(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= summaryLength {
		return text
	}
	return string(r[:summaryLength-3]) + "..."
}
