package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/contest/repository"
)

type contestEntry struct {
	contest      models.Contest
	participants []models.Participant
	joined       map[int64]struct{}
}

// Repository keeps the registry in process memory behind a single RWMutex.
type Repository struct {
	mu          sync.RWMutex
	contests    map[string]*contestEntry
	order       []string
	reserved    map[string]time.Time
	users       map[int64]struct{}
	nextNumber  func() int
	reservation time.Duration
	now         func() time.Time
}

type Option func(*Repository)

// WithRandom overrides the id number source.
func WithRandom(next func() int) Option {
	return func(r *Repository) { r.nextNumber = next }
}

// WithReservationTTL sets how long a generated id stays reserved.
func WithReservationTTL(ttl time.Duration) Option {
	return func(r *Repository) { r.reservation = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		contests:    make(map[string]*contestEntry),
		reserved:    make(map[string]time.Time),
		users:       make(map[int64]struct{}),
		nextNumber:  repository.RandomIDNumber,
		reservation: 10 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) GenerateID(_ context.Context, fast bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for {
		id := models.FormatID(r.nextNumber(), fast)
		if _, exists := r.contests[id]; exists {
			continue
		}
		if until, held := r.reserved[id]; held && now.Before(until) {
			continue
		}
		r.reserved[id] = now.Add(r.reservation)
		return id, nil
	}
}

func (r *Repository) ReleaseID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, id)
	return nil
}

func (r *Repository) Create(_ context.Context, contest *models.Contest) (string, error) {
	if err := contest.Validate(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contests[contest.ID]; exists {
		return "", fmt.Errorf("%w: %s", repository.ErrDuplicateID, contest.ID)
	}
	delete(r.reserved, contest.ID)

	c := cloneContest(contest)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	r.contests[c.ID] = &contestEntry{
		contest: c,
		joined:  make(map[int64]struct{}),
	}
	r.order = append(r.order, c.ID)
	return c.ID, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*models.Contest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.contests[id]
	if !ok {
		return nil, nil
	}
	c := cloneContest(&e.contest)
	return &c, nil
}

func (r *Repository) ListActiveByCreator(_ context.Context, creatorID int64) ([]*models.Contest, error) {
	return r.listByCreator(creatorID, true), nil
}

func (r *Repository) ListFinishedByCreator(_ context.Context, creatorID int64) ([]*models.Contest, error) {
	return r.listByCreator(creatorID, false), nil
}

func (r *Repository) listByCreator(creatorID int64, active bool) []*models.Contest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Contest
	for _, id := range r.order {
		e := r.contests[id]
		if e.contest.CreatorID != creatorID || e.contest.Active != active {
			continue
		}
		c := cloneContest(&e.contest)
		out = append(out, &c)
	}
	return out
}

func (r *Repository) AddParticipant(_ context.Context, contestID string, p models.Participant) (repository.JoinOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.contests[contestID]
	if !ok {
		return 0, repository.ErrContestNotFound
	}
	if _, exists := e.joined[p.UserID]; exists {
		return repository.AlreadyJoined, nil
	}
	if !e.contest.Active {
		return 0, repository.ErrContestClosed
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = r.now()
	}
	e.joined[p.UserID] = struct{}{}
	e.participants = append(e.participants, p)
	return repository.Joined, nil
}

func (r *Repository) GetParticipants(_ context.Context, contestID string) ([]models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.contests[contestID]
	if !ok {
		return nil, repository.ErrContestNotFound
	}
	out := make([]models.Participant, len(e.participants))
	copy(out, e.participants)
	return out, nil
}

func (r *Repository) IsParticipant(_ context.Context, contestID string, userID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.contests[contestID]
	if !ok {
		return false, repository.ErrContestNotFound
	}
	_, joined := e.joined[userID]
	return joined, nil
}

func (r *Repository) Close(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.contests[id]
	if !ok {
		return repository.ErrContestNotFound
	}
	e.contest.Active = false
	return nil
}

func (r *Repository) AttachResultsLink(_ context.Context, id, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.contests[id]
	if !ok {
		return repository.ErrContestNotFound
	}
	e.contest.ResultsLink = link
	return nil
}

func (r *Repository) CloseWithResults(_ context.Context, id string, winners []models.Winner, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.contests[id]
	if !ok {
		return repository.ErrContestNotFound
	}
	e.contest.Active = false
	e.contest.Winners = append([]models.Winner(nil), winners...)
	e.contest.ResultsLink = link
	return nil
}

func (r *Repository) TouchUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = struct{}{}
	return nil
}

func (r *Repository) Stats(_ context.Context) (*models.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.Stats{
		Contests:    int64(len(r.contests)),
		UniqueUsers: int64(len(r.users)),
	}
	for _, e := range r.contests {
		stats.Participants += int64(len(e.participants))
	}
	return stats, nil
}

func cloneContest(c *models.Contest) models.Contest {
	out := *c
	out.Channels = append([]string(nil), c.Channels...)
	out.Winners = append([]models.Winner(nil), c.Winners...)
	return out
}

var _ repository.ContestRepository = (*Repository)(nil)
