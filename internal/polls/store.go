package polls

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/pagination"
)

// Storage sentinels. The pgx store translates driver errors into these;
// the service translates them into the wire error taxonomy.
var (
	ErrPollNotFound    = errors.New("poll not found")
	ErrOptionNotFound  = errors.New("option not found")
	ErrAlreadyClosed   = errors.New("poll already closed")
	ErrPublishConflict = errors.New("results already published")
	ErrDuplicateVote   = errors.New("duplicate vote")
)

// ListFilter narrows and pages the poll listing.
type ListFilter struct {
	State            models.PollState // empty = all states
	Search           string
	ResultsPublished *bool
	Page             pagination.Params
}

// ParticipantFilter narrows and pages the participant listing.
type ParticipantFilter struct {
	Search string
	Page   pagination.Params
}

// Store is the persistence contract of the poll engine.
type Store interface {
	// CreatePoll inserts the poll and its options in one transaction,
	// filling in generated IDs and timestamps.
	CreatePoll(ctx context.Context, p *models.Poll) error
	// GetPoll returns the poll with its options in insertion order.
	GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error)
	// MarkClosed transitions activa -> cerrada atomically. Returns
	// ErrAlreadyClosed when the poll was no longer active.
	MarkClosed(ctx context.Context, id uuid.UUID) (time.Time, error)
	// MarkPublished flips resultados_publicados once, only while closed.
	// Returns ErrPublishConflict when the conditional update matched no row.
	MarkPublished(ctx context.Context, id uuid.UUID) (time.Time, error)
	// GetOption returns an option by ID regardless of poll.
	GetOption(ctx context.Context, id uuid.UUID) (*models.Option, error)
	// InsertVote writes the VoteResponse and VoteRecord together. The
	// vote_records primary key makes a racing duplicate fail with
	// ErrDuplicateVote instead of relying on a pre-check.
	InsertVote(ctx context.Context, pollID, optionID, userID uuid.UUID) (time.Time, error)
	// GetVoteRecord returns the caller's vote record, or nil when the
	// user has not voted in the poll.
	GetVoteRecord(ctx context.Context, pollID, userID uuid.UUID) (*models.VoteRecord, error)
	// Tally returns per-option counts including zero-vote options,
	// ordered by count descending then option position.
	Tally(ctx context.Context, pollID uuid.UUID) ([]models.OptionTally, error)
	// ListPolls returns a page of polls plus the unpaged total.
	ListPolls(ctx context.Context, f ListFilter) ([]models.Poll, int, error)
	// ListParticipants returns a page of voters plus the unpaged total.
	ListParticipants(ctx context.Context, pollID uuid.UUID, f ParticipantFilter) ([]models.Participant, int, error)
}
