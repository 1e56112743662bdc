package store

import (
	"context"

	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
)

// Table is the uniform shape of every local table. Get returns (nil, nil)
// when the key is absent and Delete of a missing key is not an error.
type Table[T any, K comparable] interface {
	GetAll(ctx context.Context) ([]T, error)
	Get(ctx context.Context, key K) (*T, error)
	Put(ctx context.Context, v T) error
	Delete(ctx context.Context, key K) error
	Clear(ctx context.Context) error
}

// SoftTable wraps a Table so failures are logged and turned into safe
// defaults: an empty list, nil, or false.
type SoftTable[T any, K comparable] struct {
	name  string
	table Table[T, K]
	log   logging.Logger
}

func NewSoftTable[T any, K comparable](name string, t Table[T, K], log logging.Logger) SoftTable[T, K] {
	return SoftTable[T, K]{name: name, table: t, log: log}
}

func (s SoftTable[T, K]) GetAll(ctx context.Context) []T {
	v, err := s.table.GetAll(ctx)
	if err != nil {
		s.log.Error(ctx, "store read failed", "table", s.name, "op", "getAll", "error", err)
		return []T{}
	}
	return v
}

func (s SoftTable[T, K]) Get(ctx context.Context, key K) *T {
	v, err := s.table.Get(ctx, key)
	if err != nil {
		s.log.Error(ctx, "store read failed", "table", s.name, "op", "get", "key", key, "error", err)
		return nil
	}
	return v
}

func (s SoftTable[T, K]) Put(ctx context.Context, v T) bool {
	if err := s.table.Put(ctx, v); err != nil {
		s.log.Error(ctx, "store write failed", "table", s.name, "op", "put", "error", err)
		return false
	}
	return true
}

func (s SoftTable[T, K]) Delete(ctx context.Context, key K) bool {
	if err := s.table.Delete(ctx, key); err != nil {
		s.log.Error(ctx, "store write failed", "table", s.name, "op", "delete", "key", key, "error", err)
		return false
	}
	return true
}

func (s SoftTable[T, K]) Clear(ctx context.Context) bool {
	if err := s.table.Clear(ctx); err != nil {
		s.log.Error(ctx, "store write failed", "table", s.name, "op", "clear", "error", err)
		return false
	}
	return true
}
