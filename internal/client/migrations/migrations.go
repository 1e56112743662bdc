// Package migrations embeds the goose SQL migrations for the local store.
// Every version only adds tables or indexes.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
