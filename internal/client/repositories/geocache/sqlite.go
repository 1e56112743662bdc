// Package geocache persists resolved place names keyed by canonical
// coordinates.
package geocache

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/dbx"
)

const columns = `key, name, timestamp, expiry_time, source`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.GeocodeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM location_cache ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to select location cache: %w", err)
	}
	defer rows.Close()

	result := make([]models.GeocodeEntry, 0)
	for rows.Next() {
		var e models.GeocodeEntry
		var source string
		if err := rows.Scan(&e.Key, &e.Name, &e.Timestamp, &e.ExpiryTime, &source); err != nil {
			return nil, fmt.Errorf("failed to scan location cache row: %w", err)
		}
		e.Source = models.GeocodeSource(source)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate location cache: %w", err)
	}
	return result, nil
}

// Get returns the entry for key whether or not it has expired; callers
// decide freshness. (nil, nil) when absent.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (*models.GeocodeEntry, error) {
	var e models.GeocodeEntry
	var source string
	err := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM location_cache WHERE key = ?`, key).
		Scan(&e.Key, &e.Name, &e.Timestamp, &e.ExpiryTime, &source)
	if dbx.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location cache[%s]: %w", key, err)
	}
	e.Source = models.GeocodeSource(source)
	return &e, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, e models.GeocodeEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO location_cache (`+columns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			timestamp = excluded.timestamp,
			expiry_time = excluded.expiry_time,
			source = excluded.source
	`, e.Key, e.Name, e.Timestamp, e.ExpiryTime, string(e.Source))
	if err != nil {
		return fmt.Errorf("failed to set location cache[%s]: %w", e.Key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM location_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete location cache[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM location_cache`); err != nil {
		return fmt.Errorf("failed to clear location cache: %w", err)
	}
	return nil
}

// DeleteExpired removes entries whose expiry time is at or before nowMs and
// returns how many were removed.
func (r *SQLiteRepository) DeleteExpired(ctx context.Context, nowMs int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM location_cache WHERE expiry_time <= ?`, nowMs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired location cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM location_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count location cache: %w", err)
	}
	return n, nil
}
