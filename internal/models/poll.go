package models

import (
	"time"

	"github.com/google/uuid"
)

// PollState is the lifecycle state of a poll. The only transition is
// activa -> cerrada; there is no reopen.
type PollState string

const (
	PollActive PollState = "activa"
	PollClosed PollState = "cerrada"
)

// Poll is a titled question with 2 to 10 selectable options.
type Poll struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"titulo"`
	State            PollState  `json:"estado"`
	ResultsPublished bool       `json:"resultadosPublicados"`
	CreatedAt        time.Time  `json:"fechaCreacion"`
	ClosedAt         *time.Time `json:"fechaCierre,omitempty"`
	PublishedAt      *time.Time `json:"fechaPublicacion,omitempty"`
	Options          []Option   `json:"opciones,omitempty"`
}

// Option is a selectable answer belonging to exactly one poll.
// Position records insertion order and breaks tally ties.
type Option struct {
	ID       uuid.UUID `json:"id"`
	PollID   uuid.UUID `json:"-"`
	Label    string    `json:"etiqueta"`
	Position int       `json:"posicion"`
}

// VoteRecord is the uniqueness ledger entry proving a user voted in a
// poll, independent of which option. Never mutated once created.
type VoteRecord struct {
	PollID    uuid.UUID `json:"votacionId"`
	UserID    uuid.UUID `json:"usuarioId"`
	CreatedAt time.Time `json:"fechaVoto"`
}

// VoteResponse is the ballot itself, linking a poll to the chosen option.
type VoteResponse struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"votacionId"`
	OptionID  uuid.UUID `json:"opcionId"`
	UserID    uuid.UUID `json:"usuarioId"`
	CreatedAt time.Time `json:"fecha"`
}

// OptionTally is one row of a poll's ranked results.
type OptionTally struct {
	OptionID uuid.UUID `json:"opcionId"`
	Label    string    `json:"etiqueta"`
	Votes    int       `json:"votos"`
}

// PollResults is poll metadata plus the ranked tallies.
type PollResults struct {
	Poll       Poll          `json:"votacion"`
	TotalVotes int           `json:"totalVotos"`
	Results    []OptionTally `json:"resultados"`
}

// Participant is a voter as shown in the participants listing.
type Participant struct {
	UserID  uuid.UUID `json:"usuarioId"`
	Name    string    `json:"nombre"`
	Email   string    `json:"correo"`
	VotedAt time.Time `json:"fechaVoto"`
}
