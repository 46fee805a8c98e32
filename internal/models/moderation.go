package models

import (
	"time"

	"github.com/google/uuid"
)

// MuteSanction is a time-boxed restriction preventing a user from
// participating in write actions. At most one active sanction may exist
// per user; expiry is applied lazily on read paths.
type MuteSanction struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"usuarioId"`
	Reason    string    `json:"motivo"`
	EndsAt    time.Time `json:"finalizaEn"`
	Active    bool      `json:"activa"`
	CreatedAt time.Time `json:"fechaCreacion"`
}

// Expired reports whether the sanction has passed its end timestamp.
func (s *MuteSanction) Expired(now time.Time) bool {
	return !now.Before(s.EndsAt)
}
