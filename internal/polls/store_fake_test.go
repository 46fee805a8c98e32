package polls

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cee-connect/backend/internal/auth"
	"github.com/cee-connect/backend/internal/models"
)

// memStore is an in-memory Store that enforces the same constraints as
// the SQL schema, including the (poll, user) vote-once primary key.
type memStore struct {
	mu      sync.Mutex
	polls   map[uuid.UUID]*models.Poll
	options map[uuid.UUID]*models.Option
	records map[uuid.UUID]map[uuid.UUID]models.VoteRecord // pollID -> userID
	votes   []models.VoteResponse

	lastListFilter        *ListFilter
	lastParticipantFilter *ParticipantFilter
}

func newMemStore() *memStore {
	return &memStore{
		polls:   make(map[uuid.UUID]*models.Poll),
		options: make(map[uuid.UUID]*models.Option),
		records: make(map[uuid.UUID]map[uuid.UUID]models.VoteRecord),
	}
}

func (m *memStore) CreatePoll(_ context.Context, p *models.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.State = models.PollActive
	p.CreatedAt = time.Now()
	for i := range p.Options {
		p.Options[i].ID = uuid.New()
		p.Options[i].PollID = p.ID
		opt := p.Options[i]
		m.options[opt.ID] = &opt
	}
	clone := *p
	clone.Options = append([]models.Option(nil), p.Options...)
	m.polls[p.ID] = &clone
	return nil
}

func (m *memStore) GetPoll(_ context.Context, id uuid.UUID) (*models.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok {
		return nil, ErrPollNotFound
	}
	clone := *p
	clone.Options = append([]models.Option(nil), p.Options...)
	return &clone, nil
}

func (m *memStore) MarkClosed(_ context.Context, id uuid.UUID) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok || p.State != models.PollActive {
		return time.Time{}, ErrAlreadyClosed
	}
	now := time.Now()
	p.State = models.PollClosed
	p.ClosedAt = &now
	return now, nil
}

func (m *memStore) MarkPublished(_ context.Context, id uuid.UUID) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[id]
	if !ok || p.State != models.PollClosed || p.ResultsPublished {
		return time.Time{}, ErrPublishConflict
	}
	now := time.Now()
	p.ResultsPublished = true
	p.PublishedAt = &now
	return now, nil
}

func (m *memStore) GetOption(_ context.Context, id uuid.UUID) (*models.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.options[id]
	if !ok {
		return nil, ErrOptionNotFound
	}
	clone := *o
	return &clone, nil
}

func (m *memStore) InsertVote(_ context.Context, pollID, optionID, userID uuid.UUID) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser := m.records[pollID]
	if byUser == nil {
		byUser = make(map[uuid.UUID]models.VoteRecord)
		m.records[pollID] = byUser
	}
	if _, exists := byUser[userID]; exists {
		return time.Time{}, ErrDuplicateVote
	}
	now := time.Now()
	byUser[userID] = models.VoteRecord{PollID: pollID, UserID: userID, CreatedAt: now}
	m.votes = append(m.votes, models.VoteResponse{
		ID: uuid.New(), PollID: pollID, OptionID: optionID, UserID: userID, CreatedAt: now,
	})
	return now, nil
}

func (m *memStore) GetVoteRecord(_ context.Context, pollID, userID uuid.UUID) (*models.VoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[pollID][userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) Tally(_ context.Context, pollID uuid.UUID) ([]models.OptionTally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.polls[pollID]
	if !ok {
		return nil, ErrPollNotFound
	}
	counts := make(map[uuid.UUID]int)
	for _, v := range m.votes {
		if v.PollID == pollID {
			counts[v.OptionID]++
		}
	}
	tallies := make([]models.OptionTally, 0, len(p.Options))
	positions := make(map[uuid.UUID]int)
	for _, o := range p.Options {
		tallies = append(tallies, models.OptionTally{OptionID: o.ID, Label: o.Label, Votes: counts[o.ID]})
		positions[o.ID] = o.Position
	}
	sort.SliceStable(tallies, func(i, j int) bool {
		if tallies[i].Votes != tallies[j].Votes {
			return tallies[i].Votes > tallies[j].Votes
		}
		return positions[tallies[i].OptionID] < positions[tallies[j].OptionID]
	})
	return tallies, nil
}

func (m *memStore) ListPolls(_ context.Context, f ListFilter) ([]models.Poll, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastListFilter = &f

	var all []models.Poll
	for _, p := range m.polls {
		if f.State != "" && p.State != f.State {
			continue
		}
		if f.ResultsPublished != nil && p.ResultsPublished != *f.ResultsPublished {
			continue
		}
		clone := *p
		all = append(all, clone)
	}
	rank := func(p models.Poll) int {
		switch {
		case p.State == models.PollActive:
			return 0
		case !p.ResultsPublished:
			return 1
		default:
			return 2
		}
	}
	key := func(p models.Poll) time.Time {
		switch {
		case p.State == models.PollActive:
			return p.CreatedAt
		case !p.ResultsPublished && p.ClosedAt != nil:
			return *p.ClosedAt
		case p.ResultsPublished && p.PublishedAt != nil:
			return *p.PublishedAt
		}
		return p.CreatedAt
	}
	sort.SliceStable(all, func(i, j int) bool {
		if rank(all[i]) != rank(all[j]) {
			return rank(all[i]) < rank(all[j])
		}
		return key(all[i]).After(key(all[j]))
	})

	total := len(all)
	start := f.Page.Offset()
	if start > total {
		start = total
	}
	end := start + f.Page.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memStore) ListParticipants(_ context.Context, pollID uuid.UUID, f ParticipantFilter) ([]models.Participant, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastParticipantFilter = &f
	var all []models.Participant
	for userID, rec := range m.records[pollID] {
		all = append(all, models.Participant{UserID: userID, VotedAt: rec.CreatedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].VotedAt.After(all[j].VotedAt) })
	total := len(all)
	start := f.Page.Offset()
	if start > total {
		start = total
	}
	end := start + f.Page.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memStore) voteCount(pollID, userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[pollID][userID]; ok {
		return 1
	}
	return 0
}

// fakeUsers is an in-memory UserDirectory.
type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsers) add(u *models.User) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u.ID
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

// fakeInvalidator records which polls had their tokens invalidated.
type fakeInvalidator struct {
	mu    sync.Mutex
	polls []uuid.UUID
}

func (f *fakeInvalidator) InvalidatePoll(_ context.Context, pollID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls = append(f.polls, pollID)
	return nil
}
