// Package metadata stores small key/value settings of the local client, such
// as the session token and the guest check counter.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyToken       = "token"
	KeyUserName    = "name"
	KeyGuestChecks = "guest_checks"
)

// Repository is the metadata table. Missing keys read as "" or 0.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	GetInt(ctx context.Context, key string) (int, error)
	SetInt(ctx context.Context, key string, n int) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

var _ Repository = (*SQLiteRepository)(nil)
