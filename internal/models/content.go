package models

import (
	"time"

	"github.com/google/uuid"
)

// Announcement is an admin-published notice.
type Announcement struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"titulo"`
	Body      string    `json:"contenido"`
	CreatedBy uuid.UUID `json:"creadoPor"`
	CreatedAt time.Time `json:"fechaCreacion"`
}

// Suggestion is a student-submitted suggestion. Submitting one is a
// participation write, so it is gated by the mute sanction check.
type Suggestion struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"usuarioId"`
	Author    string    `json:"autor,omitempty"`
	Body      string    `json:"contenido"`
	CreatedAt time.Time `json:"fechaCreacion"`
}
