package stories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/dbx"
)

const columns = `id, name, description, photo_url, created_at, lat, lon, pending`

// SQLiteRepository implements the story table over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetAll returns every story, newest first.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Story, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM stories ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select stories: %w", err)
	}
	defer rows.Close()

	result := make([]models.Story, 0)
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stories: %w", err)
	}
	return result, nil
}

// Get returns the story with the given id, or (nil, nil) when there is none.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Story, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM stories WHERE id = ?`, id)
	s, err := scanStory(row)
	if dbx.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Put inserts the story or overwrites the one with the same id.
func (r *SQLiteRepository) Put(ctx context.Context, s models.Story) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stories (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			photo_url = excluded.photo_url,
			created_at = excluded.created_at,
			lat = excluded.lat,
			lon = excluded.lon,
			pending = excluded.pending
	`, s.ID, s.Name, s.Description, s.PhotoURL, s.CreatedAt,
		nullFloat(s.Lat), nullFloat(s.Lon), dbx.BoolToInt(s.Pending))
	if err != nil {
		return fmt.Errorf("failed to upsert story %s: %w", s.ID, err)
	}
	return nil
}

// Delete removes the story. Deleting a missing id is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete story %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stories`); err != nil {
		return fmt.Errorf("failed to clear stories: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (models.Story, error) {
	var (
		s        models.Story
		lat, lon sql.NullFloat64
		pending  int
	)
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.PhotoURL, &s.CreatedAt, &lat, &lon, &pending)
	if err != nil {
		if dbx.IsNoRows(err) {
			return s, err
		}
		return s, fmt.Errorf("failed to scan story: %w", err)
	}
	s.Lat = fromNull(lat)
	s.Lon = fromNull(lon)
	s.Pending = pending != 0
	return s, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
