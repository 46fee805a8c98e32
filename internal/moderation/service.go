// Package moderation tracks time-boxed mute sanctions. Expiry is lazy:
// any read of a sanction past its end timestamp flips it inactive; there
// is no background sweeper.
package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cee-connect/backend/internal/auth"
	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/apperr"
)

// Storage sentinels.
var (
	ErrNoActiveSanction = errors.New("no active sanction")
	ErrSanctionExists   = errors.New("active sanction already exists")
)

// Store is the persistence contract of the moderation engine.
type Store interface {
	// GetActiveSanction returns the user's active sanction, or
	// ErrNoActiveSanction.
	GetActiveSanction(ctx context.Context, userID uuid.UUID) (*models.MuteSanction, error)
	// CreateSanction inserts an active sanction. The partial unique
	// index on (user_id) WHERE activa makes a racing duplicate fail
	// with ErrSanctionExists.
	CreateSanction(ctx context.Context, s *models.MuteSanction) error
	// DeactivateSanction flips the sanction inactive.
	DeactivateSanction(ctx context.Context, id uuid.UUID) error
}

// UserDirectory resolves users by ID.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Status is the mute state reported for a user.
type Status struct {
	IsMuted  bool                 `json:"silenciado"`
	Sanction *models.MuteSanction `json:"sancion"`
}

// Service is the moderation engine.
type Service struct {
	store  Store
	users  UserDirectory
	logger *zap.Logger
}

// NewService creates the moderation engine.
func NewService(store Store, users UserDirectory, logger *zap.Logger) *Service {
	return &Service{store: store, users: users, logger: logger}
}

// Mute creates an active sanction for the user.
func (s *Service) Mute(ctx context.Context, userID uuid.UUID, reason string, endsAt time.Time) (*models.MuteSanction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.New(apperr.KindValidation, "el motivo es obligatorio")
	}
	if endsAt.IsZero() {
		return nil, apperr.New(apperr.KindValidation, "la fecha de finalización es obligatoria")
	}
	if !endsAt.After(time.Now()) {
		return nil, apperr.New(apperr.KindValidation, "la fecha de finalización debe ser futura")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "usuario no encontrado")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "error al validar el usuario")
	}

	sanction := &models.MuteSanction{
		UserID: userID,
		Reason: strings.TrimSpace(reason),
		EndsAt: endsAt,
		Active: true,
	}
	if err := s.store.CreateSanction(ctx, sanction); err != nil {
		if errors.Is(err, ErrSanctionExists) {
			return nil, apperr.New(apperr.KindConflict, "el usuario ya tiene una sanción activa")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "error al crear la sanción")
	}
	return sanction, nil
}

// Unmute deactivates the user's active sanction.
func (s *Service) Unmute(ctx context.Context, userID uuid.UUID) error {
	sanction, err := s.store.GetActiveSanction(ctx, userID)
	if errors.Is(err, ErrNoActiveSanction) {
		return apperr.New(apperr.KindNotFound, "el usuario no tiene una sanción activa")
	}
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "error al consultar la sanción")
	}
	if err := s.store.DeactivateSanction(ctx, sanction.ID); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "error al levantar la sanción")
	}
	return nil
}

// GetStatus reports the user's mute state, expiring a stale sanction as
// a side effect of the read.
func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID) (*Status, error) {
	sanction, err := s.ActiveSanction(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "error al consultar la sanción")
	}
	if sanction == nil {
		return &Status{IsMuted: false}, nil
	}
	return &Status{IsMuted: true, Sanction: sanction}, nil
}

// ActiveSanction returns the user's in-force sanction, or nil. A sanction
// past its end timestamp is flipped inactive before reporting nil; this
// is the reconcile-on-read step the mute gate relies on.
func (s *Service) ActiveSanction(ctx context.Context, userID uuid.UUID) (*models.MuteSanction, error) {
	sanction, err := s.store.GetActiveSanction(ctx, userID)
	if errors.Is(err, ErrNoActiveSanction) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sanction.Expired(time.Now()) {
		if err := s.store.DeactivateSanction(ctx, sanction.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sanction, nil
}
