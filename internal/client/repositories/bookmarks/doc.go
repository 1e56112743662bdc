// Package bookmarks persists stories the user has bookmarked. Rows are full
// copies keyed by story id and are never touched by story cache maintenance.
package bookmarks
