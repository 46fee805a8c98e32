package moderation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/database"
)

// Repository is the PostgreSQL-backed sanction store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a moderation repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetActiveSanction returns the user's active sanction.
func (r *Repository) GetActiveSanction(ctx context.Context, userID uuid.UUID) (*models.MuteSanction, error) {
	const q = `SELECT id, user_id, motivo, finaliza_en, activa, created_at
		FROM mute_sanctions WHERE user_id = $1 AND activa`
	var s models.MuteSanction
	err := r.pool.QueryRow(ctx, q, userID).
		Scan(&s.ID, &s.UserID, &s.Reason, &s.EndsAt, &s.Active, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveSanction
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSanction inserts an active sanction. The partial unique index on
// active sanctions turns a racing duplicate into ErrSanctionExists.
func (r *Repository) CreateSanction(ctx context.Context, s *models.MuteSanction) error {
	const q = `INSERT INTO mute_sanctions (user_id, motivo, finaliza_en, activa)
		VALUES ($1, $2, $3, TRUE) RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, s.UserID, s.Reason, s.EndsAt).Scan(&s.ID, &s.CreatedAt)
	if database.IsUniqueViolation(err) {
		return ErrSanctionExists
	}
	return err
}

// DeactivateSanction flips the sanction inactive.
func (r *Repository) DeactivateSanction(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE mute_sanctions SET activa = FALSE WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}
