// Package suggestions manages student-submitted suggestions. Submitting
// one is a participation write and is gated by the mute sanction check.
package suggestions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/pagination"
)

// ErrNotFound is returned when no suggestion matches the lookup.
var ErrNotFound = errors.New("suggestion not found")

// Repository handles suggestion persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a suggestions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a suggestion.
func (r *Repository) Create(ctx context.Context, s *models.Suggestion) error {
	const q = `INSERT INTO suggestions (user_id, contenido) VALUES ($1, $2)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, s.UserID, s.Body).Scan(&s.ID, &s.CreatedAt)
}

// List returns a page of suggestions with author names, newest first.
func (r *Repository) List(ctx context.Context, p pagination.Params) ([]models.Suggestion, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suggestions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT s.id, s.user_id, u.nombre, s.contenido, s.created_at
		FROM suggestions s JOIN users u ON u.id = s.user_id
		ORDER BY s.created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []models.Suggestion
	for rows.Next() {
		var s models.Suggestion
		if err := rows.Scan(&s.ID, &s.UserID, &s.Author, &s.Body, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

// Delete removes a suggestion.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suggestions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
