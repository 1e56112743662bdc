// Package stories persists the local mirror of the story list, both
// server-confirmed records and optimistic ones created offline.
package stories
