package polls

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
	"github.com/cee-connect/backend/pkg/pagination"
)

const (
	// MinOptions and MaxOptions bound the option count of a poll.
	MinOptions = 2
	MaxOptions = 10
	// MaxPollPageSize and MaxParticipantPageSize cap listing pages.
	MaxPollPageSize        = 50
	MaxParticipantPageSize = 100
)

// UserDirectory resolves voters by ID.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenInvalidator bulk-deletes a poll's outstanding voting tokens.
type TokenInvalidator interface {
	InvalidatePoll(ctx context.Context, pollID uuid.UUID) error
}

// Service is the poll engine: lifecycle, vote-once enforcement, tallying
// and listing.
type Service struct {
	store  Store
	users  UserDirectory
	tokens TokenInvalidator
	logger *zap.Logger
}

// NewService creates the poll engine. tokens may be nil when no voting
// token store is configured.
func NewService(store Store, users UserDirectory, tokens TokenInvalidator, logger *zap.Logger) *Service {
	return &Service{store: store, users: users, tokens: tokens, logger: logger}
}

// Create persists a new active poll with its options.
func (s *Service) Create(ctx context.Context, title string, optionLabels []string) (*models.Poll, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.New(apperr.KindValidation, "el título es obligatorio")
	}
	if len(optionLabels) < MinOptions || len(optionLabels) > MaxOptions {
		return nil, apperr.Newf(apperr.KindValidation,
			"una votación debe tener entre %d y %d opciones", MinOptions, MaxOptions)
	}
	options := make([]models.Option, 0, len(optionLabels))
	for i, label := range optionLabels {
		if strings.TrimSpace(label) == "" {
			return nil, apperr.New(apperr.KindValidation, "las opciones no pueden estar vacías")
		}
		options = append(options, models.Option{Label: strings.TrimSpace(label), Position: i + 1})
	}

	p := &models.Poll{Title: strings.TrimSpace(title), Options: options}
	if err := s.store.CreatePoll(ctx, p); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "error al crear la votación")
	}
	return p, nil
}

// Close irreversibly transitions the poll to cerrada and invalidates its
// outstanding single-use voting tokens.
func (s *Service) Close(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	p, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if p.State == models.PollClosed {
		return nil, apperr.New(apperr.KindInvalidState, "la votación ya está cerrada")
	}

	closedAt, err := s.store.MarkClosed(ctx, pollID)
	if errors.Is(err, ErrAlreadyClosed) {
		return nil, apperr.New(apperr.KindInvalidState, "la votación ya está cerrada")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "error al cerrar la votación")
	}
	p.State = models.PollClosed
	p.ClosedAt = &closedAt

	if s.tokens != nil {
		// Token cleanup must not undo the close; a failure here only
		// leaves tokens to expire on their own TTL.
		if err := s.tokens.InvalidatePoll(ctx, pollID); err != nil {
			s.logger.Warn("invalidate voting tokens", zap.String("poll_id", pollID.String()), zap.Error(err))
		}
	}
	return p, nil
}

// Publish flips resultados_publicados, only while closed and only once.
func (s *Service) Publish(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	p, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if p.State != models.PollClosed {
		return nil, apperr.New(apperr.KindInvalidState, "la votación debe estar cerrada para publicar resultados")
	}
	if p.ResultsPublished {
		return nil, apperr.New(apperr.KindConflict, "los resultados ya fueron publicados")
	}

	publishedAt, err := s.store.MarkPublished(ctx, pollID)
	if errors.Is(err, ErrPublishConflict) {
		return nil, apperr.New(apperr.KindConflict, "los resultados ya fueron publicados")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "error al publicar los resultados")
	}
	p.ResultsPublished = true
	p.PublishedAt = &publishedAt
	return p, nil
}

// CastVote records one ballot for the user. The vote-once invariant is
// keyed by (poll, user), independent of the chosen option, and is
// enforced by the storage constraint rather than the preceding checks.
func (s *Service) CastVote(ctx context.Context, userID, pollID, optionID uuid.UUID) (time.Time, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return time.Time{}, apperr.New(apperr.KindNotFound, "usuario no encontrado")
		}
		return time.Time{}, apperr.Wrap(err, apperr.KindInternal, "error al validar el usuario")
	}

	p, err := s.getPoll(ctx, pollID)
	if err != nil {
		return time.Time{}, err
	}
	if p.State != models.PollActive {
		return time.Time{}, apperr.New(apperr.KindInvalidState, "la votación está cerrada")
	}

	option, err := s.store.GetOption(ctx, optionID)
	if errors.Is(err, ErrOptionNotFound) {
		return time.Time{}, apperr.New(apperr.KindNotFound, "opción no encontrada")
	}
	if err != nil {
		return time.Time{}, apperr.Wrap(err, apperr.KindInternal, "error al validar la opción")
	}
	if option.PollID != pollID {
		return time.Time{}, apperr.New(apperr.KindForbidden, "la opción no pertenece a la votación")
	}

	votedAt, err := s.store.InsertVote(ctx, pollID, optionID, userID)
	if errors.Is(err, ErrDuplicateVote) {
		return time.Time{}, apperr.New(apperr.KindConflict, "el usuario ya votó en esta votación")
	}
	if err != nil {
		return time.Time{}, apperr.Wrap(err, apperr.KindInternal, "error al registrar el voto")
	}
	return votedAt, nil
}

// MyVote reports whether the user has voted in the poll and when.
func (s *Service) MyVote(ctx context.Context, pollID, userID uuid.UUID) (bool, *time.Time, error) {
	if _, err := s.getPoll(ctx, pollID); err != nil {
		return false, nil, err
	}
	rec, err := s.store.GetVoteRecord(ctx, pollID, userID)
	if err != nil {
		return false, nil, apperr.Wrap(err, apperr.KindInternal, "error al consultar el voto")
	}
	if rec == nil {
		return false, nil, nil
	}
	return true, &rec.CreatedAt, nil
}

// Tally returns poll metadata plus the ranked per-option counts.
func (s *Service) Tally(ctx context.Context, pollID uuid.UUID) (*models.PollResults, error) {
	p, err := s.getPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	tallies, err := s.store.Tally(ctx, pollID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "error al contar los votos")
	}
	total := 0
	for _, t := range tallies {
		total += t.Votes
	}
	return &models.PollResults{Poll: *p, TotalVotes: total, Results: tallies}, nil
}

// ListQuery carries the raw listing parameters; page and limit are
// clamped here, never rejected.
type ListQuery struct {
	Page             int
	Limit            int
	State            models.PollState
	Search           string
	ResultsPublished *bool
}

// List returns a page of polls in display order.
func (s *Service) List(ctx context.Context, q ListQuery) ([]models.Poll, pagination.Envelope, error) {
	params := pagination.Clamp(q.Page, q.Limit, MaxPollPageSize)
	if q.State != "" && q.State != models.PollActive && q.State != models.PollClosed {
		return nil, pagination.Envelope{}, apperr.New(apperr.KindValidation, "estado inválido")
	}
	list, total, err := s.store.ListPolls(ctx, ListFilter{
		State:            q.State,
		Search:           q.Search,
		ResultsPublished: q.ResultsPublished,
		Page:             params,
	})
	if err != nil {
		return nil, pagination.Envelope{}, apperr.Wrap(err, apperr.KindInternal, "error al listar las votaciones")
	}
	return list, pagination.NewEnvelope(params, total), nil
}

// ParticipantQuery carries the raw participant listing parameters.
type ParticipantQuery struct {
	Page   int
	Limit  int
	Search string
}

// Participants returns a page of the poll's voters.
func (s *Service) Participants(ctx context.Context, pollID uuid.UUID, q ParticipantQuery) ([]models.Participant, pagination.Envelope, error) {
	if _, err := s.getPoll(ctx, pollID); err != nil {
		return nil, pagination.Envelope{}, err
	}
	params := pagination.Clamp(q.Page, q.Limit, MaxParticipantPageSize)
	list, total, err := s.store.ListParticipants(ctx, pollID, ParticipantFilter{Search: q.Search, Page: params})
	if err != nil {
		return nil, pagination.Envelope{}, apperr.Wrap(err, apperr.KindInternal, "error al listar los participantes")
	}
	return list, pagination.NewEnvelope(params, total), nil
}

// Get returns a poll with its options.
func (s *Service) Get(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	return s.getPoll(ctx, pollID)
}

func (s *Service) getPoll(ctx context.Context, pollID uuid.UUID) (*models.Poll, error) {
	p, err := s.store.GetPoll(ctx, pollID)
	if errors.Is(err, ErrPollNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "votación no encontrada")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "error al consultar la votación")
	}
	return p, nil
}
