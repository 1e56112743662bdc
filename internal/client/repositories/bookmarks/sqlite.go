package bookmarks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/dbx"
)

const columns = `id, name, description, photo_url, created_at, lat, lon, pending, bookmarked_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetAll returns bookmarks, most recently bookmarked first.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM bookmarks ORDER BY bookmarked_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select bookmarks: %w", err)
	}
	defer rows.Close()

	result := make([]models.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Bookmark, error) {
	b, err := scanBookmark(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM bookmarks WHERE id = ?`, id))
	if dbx.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, b models.Bookmark) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookmarks (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			photo_url = excluded.photo_url,
			created_at = excluded.created_at,
			lat = excluded.lat,
			lon = excluded.lon,
			pending = excluded.pending,
			bookmarked_at = excluded.bookmarked_at
	`, b.ID, b.Name, b.Description, b.PhotoURL, b.CreatedAt,
		nullFloat(b.Lat), nullFloat(b.Lon), dbx.BoolToInt(b.Pending), b.BookmarkedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert bookmark %s: %w", b.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete bookmark %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks`); err != nil {
		return fmt.Errorf("failed to clear bookmarks: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (models.Bookmark, error) {
	var (
		b        models.Bookmark
		lat, lon sql.NullFloat64
		pending  int
	)
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.PhotoURL, &b.CreatedAt,
		&lat, &lon, &pending, &b.BookmarkedAt)
	if err != nil {
		if dbx.IsNoRows(err) {
			return b, err
		}
		return b, fmt.Errorf("failed to scan bookmark: %w", err)
	}
	if lat.Valid {
		b.Lat = &lat.Float64
	}
	if lon.Valid {
		b.Lon = &lon.Float64
	}
	b.Pending = pending != 0
	return b, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
