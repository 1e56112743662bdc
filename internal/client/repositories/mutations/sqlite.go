package mutations

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/dbx"
)

const columns = `id, url, method, body, timestamp, status, retry_count, last_error`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Enqueue appends a pending mutation and returns its id. Status defaults to
// pending when unset.
func (r *SQLiteRepository) Enqueue(ctx context.Context, m models.Mutation) (int64, error) {
	body, err := compress(m.Body)
	if err != nil {
		return 0, err
	}
	status := m.Status
	if status == "" {
		status = models.MutationPending
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO offline_queue (url, method, body, timestamp, status, retry_count, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.URL, m.Method, body, m.Timestamp, string(status), m.RetryCount, m.LastError)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue mutation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get mutation id: %w", err)
	}
	return id, nil
}

// GetAll returns every entry regardless of status in replay order.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Mutation, error) {
	return r.list(ctx, `SELECT `+columns+` FROM offline_queue ORDER BY timestamp, id`)
}

// Pending returns entries awaiting replay in replay order.
func (r *SQLiteRepository) Pending(ctx context.Context) ([]models.Mutation, error) {
	return r.list(ctx, `SELECT `+columns+` FROM offline_queue WHERE status = ? ORDER BY timestamp, id`,
		string(models.MutationPending))
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.Mutation, error) {
	m, err := scanMutation(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM offline_queue WHERE id = ?`, id))
	if dbx.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Put inserts the mutation when ID is zero, otherwise overwrites the row
// with that id.
func (r *SQLiteRepository) Put(ctx context.Context, m models.Mutation) error {
	if m.ID == 0 {
		_, err := r.Enqueue(ctx, m)
		return err
	}
	body, err := compress(m.Body)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO offline_queue (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			method = excluded.method,
			body = excluded.body,
			timestamp = excluded.timestamp,
			status = excluded.status,
			retry_count = excluded.retry_count,
			last_error = excluded.last_error
	`, m.ID, m.URL, m.Method, body, m.Timestamp, string(m.Status), m.RetryCount, m.LastError)
	if err != nil {
		return fmt.Errorf("failed to upsert mutation %d: %w", m.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM offline_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete mutation %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM offline_queue`); err != nil {
		return fmt.Errorf("failed to clear offline queue: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkCompleted(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE offline_queue SET status = ? WHERE id = ?`,
		string(models.MutationCompleted), id)
	if err != nil {
		return fmt.Errorf("failed to mark mutation %d completed: %w", id, err)
	}
	return nil
}

// IncrementRetry bumps the retry counter in place, records the failure and
// returns the new count. A missing entry yields 0.
func (r *SQLiteRepository) IncrementRetry(ctx context.Context, id int64, lastErr string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		UPDATE offline_queue SET retry_count = retry_count + 1, last_error = ?
		WHERE id = ?
		RETURNING retry_count
	`, lastErr, id).Scan(&n)
	if dbx.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment retry of mutation %d: %w", id, err)
	}
	return n, nil
}

// PurgeCompleted deletes completed entries and returns how many were removed.
func (r *SQLiteRepository) PurgeCompleted(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM offline_queue WHERE status = ?`,
		string(models.MutationCompleted))
	if err != nil {
		return 0, fmt.Errorf("failed to purge completed mutations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// CountPending returns the number of entries awaiting replay.
func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offline_queue WHERE status = ?`,
		string(models.MutationPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending mutations: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Mutation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select mutations: %w", err)
	}
	defer rows.Close()

	result := make([]models.Mutation, 0)
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mutations: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMutation(row scanner) (models.Mutation, error) {
	var (
		m      models.Mutation
		body   []byte
		status string
	)
	err := row.Scan(&m.ID, &m.URL, &m.Method, &body, &m.Timestamp, &status, &m.RetryCount, &m.LastError)
	if err != nil {
		if dbx.IsNoRows(err) {
			return m, err
		}
		return m, fmt.Errorf("failed to scan mutation: %w", err)
	}
	m.Status = models.MutationStatus(status)
	if m.Body, err = decompress(body); err != nil {
		return m, err
	}
	return m, nil
}
