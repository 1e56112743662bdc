// Package cli provides the interactive HoaxBuster command-line client.
//
// It wires configuration, the local store, the API client and the sync core
// behind a small REPL that keeps working offline. Typical flow: start the
// connectivity watcher, read saved stories while offline, queue new stories,
// and let the syncer push them once the server is reachable again.
//
// Key features:
//   - Register / Login / Logout (guests can browse and post)
//   - List / Show stories, with reverse geocoded locations
//   - Add stories, queued while offline
//   - Bookmarks that outlive the story cache
//   - Hoax check, with a guest quota
//   - Queue inspection and manual sync
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, NewApp and runREPL for details.
package cli
