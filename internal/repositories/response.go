package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/music-playlists/internal/models"
	"github.com/desertthunder/music-playlists/internal/shared"
)

const responseColumns = `id, cache_key, method, url, status_code, body, created_at, updated_at, expires_at`

// ResponseRepository implements models.Repository[*models.CachedResponse] for the HTTP cache.
type ResponseRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewResponseRepository creates a new ResponseRepository with the given database connection
func NewResponseRepository(db *sql.DB) *ResponseRepository {
	return &ResponseRepository{db: db, now: time.Now}
}

// Create inserts a new response with a generated ID.
// Fails if a response with the same key already exists; use [ResponseRepository.Put] to replace.
func (r *ResponseRepository) Create(resp *models.CachedResponse) error {
	if err := resp.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	resp.SetID(shared.GenerateID())

	query := `INSERT INTO http_cache (` + responseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query,
		resp.ID(),
		resp.Key(),
		resp.Method(),
		resp.URL(),
		resp.StatusCode(),
		resp.Body(),
		resp.CreatedAt().UTC(),
		resp.UpdatedAt().UTC(),
		nullTime(resp.ExpiresAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

// Put stores resp under its key, replacing any existing entry.
func (r *ResponseRepository) Put(resp *models.CachedResponse) error {
	if err := r.DeleteByKey(resp.Key()); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return r.Create(resp)
}

// Get retrieves a response by ID.
func (r *ResponseRepository) Get(id string) (*models.CachedResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM http_cache WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByKey retrieves the fresh response stored under key.
// Expired entries are treated as missing.
func (r *ResponseRepository) GetByKey(key string) (*models.CachedResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM http_cache WHERE cache_key = ?`
	resp, err := r.scan(r.db.QueryRow(query, key))
	if err != nil {
		return nil, err
	}
	if resp.Expired(r.now()) {
		return nil, fmt.Errorf("%w: response %s expired", ErrNotFound, key)
	}
	return resp, nil
}

// Update replaces the status, body and expiry of an existing response.
func (r *ResponseRepository) Update(resp *models.CachedResponse) error {
	if err := resp.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := r.now().UTC()
	resp.SetUpdatedAt(now)

	query := `
		UPDATE http_cache
		SET status_code = ?, body = ?, updated_at = ?, expires_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, resp.StatusCode(), resp.Body(), now, nullTime(resp.ExpiresAt()), resp.ID())
	if err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}
	return expectAffected(result, "response", resp.ID())
}

// Delete removes a response by ID.
func (r *ResponseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM http_cache WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}
	return expectAffected(result, "response", id)
}

// DeleteByKey removes the response stored under key.
func (r *ResponseRepository) DeleteByKey(key string) error {
	result, err := r.db.Exec(`DELETE FROM http_cache WHERE cache_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete response: %w", err)
	}
	return expectAffected(result, "response", key)
}

// List retrieves stored responses, oldest first.
//
// Supported criteria: "method" (string), "url" (string) and "expired" (bool, compared to the current time).
func (r *ResponseRepository) List(criteria map[string]any) ([]*models.CachedResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM http_cache WHERE 1 = 1`
	args := []any{}

	if method, ok := criteria["method"].(string); ok && method != "" {
		query += " AND method = ?"
		args = append(args, method)
	}
	if url, ok := criteria["url"].(string); ok && url != "" {
		query += " AND url = ?"
		args = append(args, url)
	}
	if expired, ok := criteria["expired"].(bool); ok {
		if expired {
			query += " AND expires_at IS NOT NULL AND expires_at <= ?"
		} else {
			query += " AND (expires_at IS NULL OR expires_at > ?)"
		}
		args = append(args, r.now().UTC())
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	var out []*models.CachedResponse
	for rows.Next() {
		resp, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// Purge deletes responses that expired at or before now and returns how many were removed.
func (r *ResponseRepository) Purge(now time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM http_cache WHERE expires_at IS NOT NULL AND expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge responses: %w", err)
	}
	return result.RowsAffected()
}

// PurgeAll deletes every stored response.
func (r *ResponseRepository) PurgeAll() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM http_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge responses: %w", err)
	}
	return result.RowsAffected()
}

func (r *ResponseRepository) scan(row scanner) (*models.CachedResponse, error) {
	var (
		id, key, method, url string
		statusCode           int
		body                 []byte
		createdAt, updatedAt time.Time
		expiresAt            sql.NullTime
	)

	err := row.Scan(&id, &key, &method, &url, &statusCode, &body, &createdAt, &updatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: response", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan response: %w", err)
	}

	resp := models.NewCachedResponse(key, method, url, statusCode, body, 0)
	resp.SetID(id)
	resp.SetCreatedAt(createdAt)
	resp.SetUpdatedAt(updatedAt)
	if expiresAt.Valid {
		t := expiresAt.Time
		resp.SetExpiresAt(&t)
	}
	return resp, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

var _ models.Repository[*models.CachedResponse] = (*ResponseRepository)(nil)
