package polls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cee-connect/backend/internal/models"
	"github.com/cee-connect/backend/pkg/database"
)

// Repository is the PostgreSQL-backed poll store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreatePoll inserts the poll and its options in one transaction.
func (r *Repository) CreatePoll(ctx context.Context, p *models.Poll) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertPoll = `INSERT INTO polls (titulo) VALUES ($1)
		RETURNING id, estado, resultados_publicados, created_at`
	if err := tx.QueryRow(ctx, insertPoll, p.Title).
		Scan(&p.ID, &p.State, &p.ResultsPublished, &p.CreatedAt); err != nil {
		return err
	}

	const insertOption = `INSERT INTO poll_options (poll_id, etiqueta, posicion)
		VALUES ($1, $2, $3) RETURNING id`
	for i := range p.Options {
		p.Options[i].PollID = p.ID
		if err := tx.QueryRow(ctx, insertOption, p.ID, p.Options[i].Label, p.Options[i].Position).
			Scan(&p.Options[i].ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetPoll returns the poll with its options in insertion order.
func (r *Repository) GetPoll(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	const q = `SELECT id, titulo, estado, resultados_publicados, created_at, closed_at, published_at
		FROM polls WHERE id = $1`
	var p models.Poll
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Title, &p.State, &p.ResultsPublished, &p.CreatedAt, &p.ClosedAt, &p.PublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, err
	}
	options, err := r.optionsFor(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Options = options[p.ID]
	return &p, nil
}

// MarkClosed transitions activa -> cerrada with a conditional update so
// concurrent closes cannot both succeed.
func (r *Repository) MarkClosed(ctx context.Context, id uuid.UUID) (time.Time, error) {
	const q = `UPDATE polls SET estado = 'cerrada', closed_at = NOW()
		WHERE id = $1 AND estado = 'activa' RETURNING closed_at`
	var closedAt time.Time
	err := r.pool.QueryRow(ctx, q, id).Scan(&closedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrAlreadyClosed
	}
	return closedAt, err
}

// MarkPublished flips resultados_publicados once, only while closed.
func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) (time.Time, error) {
	const q = `UPDATE polls SET resultados_publicados = TRUE, published_at = NOW()
		WHERE id = $1 AND estado = 'cerrada' AND NOT resultados_publicados
		RETURNING published_at`
	var publishedAt time.Time
	err := r.pool.QueryRow(ctx, q, id).Scan(&publishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrPublishConflict
	}
	return publishedAt, err
}

// GetOption returns an option by ID.
func (r *Repository) GetOption(ctx context.Context, id uuid.UUID) (*models.Option, error) {
	const q = `SELECT id, poll_id, etiqueta, posicion FROM poll_options WHERE id = $1`
	var o models.Option
	err := r.pool.QueryRow(ctx, q, id).Scan(&o.ID, &o.PollID, &o.Label, &o.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// InsertVote writes the vote record and the ballot in one transaction.
// The vote_records primary key turns a racing duplicate into
// ErrDuplicateVote.
func (r *Repository) InsertVote(ctx context.Context, pollID, optionID, userID uuid.UUID) (time.Time, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return time.Time{}, err
	}
	defer tx.Rollback(ctx)

	const insertRecord = `INSERT INTO vote_records (poll_id, user_id) VALUES ($1, $2) RETURNING created_at`
	var votedAt time.Time
	if err := tx.QueryRow(ctx, insertRecord, pollID, userID).Scan(&votedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return time.Time{}, ErrDuplicateVote
		}
		return time.Time{}, err
	}

	const insertResponse = `INSERT INTO vote_responses (poll_id, option_id, user_id) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, insertResponse, pollID, optionID, userID); err != nil {
		return time.Time{}, err
	}
	return votedAt, tx.Commit(ctx)
}

// GetVoteRecord returns the user's vote record, or nil when absent.
func (r *Repository) GetVoteRecord(ctx context.Context, pollID, userID uuid.UUID) (*models.VoteRecord, error) {
	const q = `SELECT poll_id, user_id, created_at FROM vote_records WHERE poll_id = $1 AND user_id = $2`
	var rec models.VoteRecord
	err := r.pool.QueryRow(ctx, q, pollID, userID).Scan(&rec.PollID, &rec.UserID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Tally returns per-option counts including zero-vote options, ranked by
// count descending with option position as the stable tie-break.
func (r *Repository) Tally(ctx context.Context, pollID uuid.UUID) ([]models.OptionTally, error) {
	const q = `SELECT o.id, o.etiqueta, COUNT(vr.id)
		FROM poll_options o
		LEFT JOIN vote_responses vr ON vr.option_id = o.id
		WHERE o.poll_id = $1
		GROUP BY o.id, o.etiqueta, o.posicion
		ORDER BY COUNT(vr.id) DESC, o.posicion ASC`
	rows, err := r.pool.Query(ctx, q, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tallies []models.OptionTally
	for rows.Next() {
		var t models.OptionTally
		if err := rows.Scan(&t.OptionID, &t.Label, &t.Votes); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// ListPolls returns a page of polls in display order plus the unpaged
// total. Display order: active first; closed-unpublished by closed_at
// descending; published by published_at descending; created_at breaks ties.
func (r *Repository) ListPolls(ctx context.Context, f ListFilter) ([]models.Poll, int, error) {
	where := "TRUE"
	args := []interface{}{}
	if f.State != "" {
		args = append(args, string(f.State))
		where += fmt.Sprintf(" AND estado = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND titulo ILIKE $%d", len(args))
	}
	if f.ResultsPublished != nil {
		args = append(args, *f.ResultsPublished)
		where += fmt.Sprintf(" AND resultados_publicados = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM polls WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Page.Limit, f.Page.Offset())
	q := `SELECT id, titulo, estado, resultados_publicados, created_at, closed_at, published_at
		FROM polls WHERE ` + where + `
		ORDER BY
			CASE WHEN estado = 'activa' THEN 0
			     WHEN NOT resultados_publicados THEN 1
			     ELSE 2 END,
			CASE WHEN estado = 'cerrada' AND NOT resultados_publicados THEN closed_at END DESC NULLS LAST,
			CASE WHEN resultados_publicados THEN published_at END DESC NULLS LAST,
			created_at DESC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Poll
	var ids []uuid.UUID
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Title, &p.State, &p.ResultsPublished, &p.CreatedAt, &p.ClosedAt, &p.PublishedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	options, err := r.optionsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Options = options[list[i].ID]
	}
	return list, total, nil
}

// ListParticipants returns a page of voters plus the unpaged total.
func (r *Repository) ListParticipants(ctx context.Context, pollID uuid.UUID, f ParticipantFilter) ([]models.Participant, int, error) {
	where := "vr.poll_id = $1"
	args := []interface{}{pollID}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND (u.nombre ILIKE $%d OR u.correo ILIKE $%d)", len(args), len(args))
	}

	var total int
	countQ := `SELECT COUNT(*) FROM vote_records vr JOIN users u ON u.id = vr.user_id WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Page.Limit, f.Page.Offset())
	q := `SELECT u.id, u.nombre, u.correo, vr.created_at
		FROM vote_records vr JOIN users u ON u.id = vr.user_id
		WHERE ` + where + ` ORDER BY vr.created_at DESC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.VotedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func (r *Repository) optionsFor(ctx context.Context, pollIDs []uuid.UUID) (map[uuid.UUID][]models.Option, error) {
	out := make(map[uuid.UUID][]models.Option, len(pollIDs))
	if len(pollIDs) == 0 {
		return out, nil
	}
	const q = `SELECT id, poll_id, etiqueta, posicion FROM poll_options
		WHERE poll_id = ANY($1) ORDER BY poll_id, posicion`
	rows, err := r.pool.Query(ctx, q, pollIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.PollID, &o.Label, &o.Position); err != nil {
			return nil, err
		}
		out[o.PollID] = append(out[o.PollID], o)
	}
	return out, rows.Err()
}
