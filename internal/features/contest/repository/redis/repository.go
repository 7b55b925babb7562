package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/contest/repository"
)

const (
	keyPrefixContest   = "contest:"
	keyAllContests     = "contests:all"
	keyUniqueUsers     = "users:unique"
	keyPrefixCreator   = "creator:"
	defaultReservation = 10 * time.Minute
	maxTxRetries       = 32
)

func makeContestKey(id string) string      { return keyPrefixContest + id }
func makeReservedKey(id string) string     { return keyPrefixContest + id + ":reserved" }
func makeParticipantsKey(id string) string { return keyPrefixContest + id + ":participants" }
func makeJoinOrderKey(id string) string    { return keyPrefixContest + id + ":order" }

func makeCreatorKey(creatorID int64, active bool) string {
	state := "finished"
	if active {
		state = "active"
	}
	return keyPrefixCreator + strconv.FormatInt(creatorID, 10) + ":" + state
}

// Repository stores contests as JSON documents. Mutations of one contest run
// in WATCH/MULTI transactions on its document key.
type Repository struct {
	client      *redis.Client
	nextNumber  func() int
	reservation time.Duration
}

type Option func(*Repository)

func WithRandom(next func() int) Option {
	return func(r *Repository) { r.nextNumber = next }
}

func WithReservationTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.reservation = ttl
		}
	}
}

func NewRepository(client *redis.Client, opts ...Option) *Repository {
	r := &Repository{
		client:      client,
		nextNumber:  repository.RandomIDNumber,
		reservation: defaultReservation,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) GenerateID(ctx context.Context, fast bool) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id := models.FormatID(r.nextNumber(), fast)

		ok, err := r.client.SetNX(ctx, makeReservedKey(id), 1, r.reservation).Result()
		if err != nil {
			return "", fmt.Errorf("failed to reserve contest id: %w", err)
		}
		if !ok {
			continue
		}

		n, err := r.client.Exists(ctx, makeContestKey(id)).Result()
		if err != nil {
			return "", fmt.Errorf("failed to check contest id: %w", err)
		}
		if n > 0 {
			// already published
			if err := r.client.Del(ctx, makeReservedKey(id)).Err(); err != nil {
				return "", fmt.Errorf("failed to drop reservation of taken id: %w", err)
			}
			continue
		}
		return id, nil
	}
}

func (r *Repository) ReleaseID(ctx context.Context, id string) error {
	return r.client.Del(ctx, makeReservedKey(id)).Err()
}

func (r *Repository) Create(ctx context.Context, contest *models.Contest) (string, error) {
	if err := contest.Validate(); err != nil {
		return "", err
	}

	c := *contest
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	data, err := json.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal contest: %w", err)
	}

	key := makeContestKey(c.ID)
	score := float64(c.CreatedAt.UnixMilli())
	err = r.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateID, c.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.Del(ctx, makeReservedKey(c.ID))
			pipe.ZAdd(ctx, keyAllContests, redis.Z{Score: score, Member: c.ID})
			pipe.ZAdd(ctx, makeCreatorKey(c.CreatorID, c.Active), redis.Z{Score: score, Member: c.ID})
			return nil
		})
		return err
	}, key)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*models.Contest, error) {
	return loadContest(ctx, r.client, id)
}

func (r *Repository) ListActiveByCreator(ctx context.Context, creatorID int64) ([]*models.Contest, error) {
	return r.listByCreator(ctx, creatorID, true)
}

func (r *Repository) ListFinishedByCreator(ctx context.Context, creatorID int64) ([]*models.Contest, error) {
	return r.listByCreator(ctx, creatorID, false)
}

func (r *Repository) listByCreator(ctx context.Context, creatorID int64, active bool) ([]*models.Contest, error) {
	ids, err := r.client.ZRange(ctx, makeCreatorKey(creatorID, active), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = makeContestKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*models.Contest, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var c models.Contest
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contest: %w", err)
		}
		if c.Active == active {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *Repository) AddParticipant(ctx context.Context, contestID string, p models.Participant) (repository.JoinOutcome, error) {
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal participant: %w", err)
	}
	field := strconv.FormatInt(p.UserID, 10)

	var outcome repository.JoinOutcome
	err = r.watch(ctx, func(tx *redis.Tx) error {
		c, err := loadContest(ctx, tx, contestID)
		if err != nil {
			return err
		}
		if c == nil {
			return repository.ErrContestNotFound
		}

		joined, err := tx.HExists(ctx, makeParticipantsKey(contestID), field).Result()
		if err != nil {
			return err
		}
		if joined {
			outcome = repository.AlreadyJoined
			return nil
		}
		if !c.Active {
			return repository.ErrContestClosed
		}

		var inserted *redis.BoolCmd
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			inserted = pipe.HSetNX(ctx, makeParticipantsKey(contestID), field, data)
			pipe.ZAddNX(ctx, makeJoinOrderKey(contestID), redis.Z{
				Score:  float64(p.JoinedAt.UnixMilli()),
				Member: field,
			})
			return nil
		})
		if err != nil {
			return err
		}
		if inserted.Val() {
			outcome = repository.Joined
		} else {
			outcome = repository.AlreadyJoined
		}
		return nil
	}, makeContestKey(contestID))
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

func (r *Repository) GetParticipants(ctx context.Context, contestID string) ([]models.Participant, error) {
	if err := r.ensureExists(ctx, contestID); err != nil {
		return nil, err
	}

	fields, err := r.client.ZRange(ctx, makeJoinOrderKey(contestID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return []models.Participant{}, nil
	}

	values, err := r.client.HMGet(ctx, makeParticipantsKey(contestID), fields...).Result()
	if err != nil {
		return nil, err
	}

	participants := make([]models.Participant, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var p models.Participant
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (r *Repository) IsParticipant(ctx context.Context, contestID string, userID int64) (bool, error) {
	if err := r.ensureExists(ctx, contestID); err != nil {
		return false, err
	}
	return r.client.HExists(ctx, makeParticipantsKey(contestID), strconv.FormatInt(userID, 10)).Result()
}

func (r *Repository) Close(ctx context.Context, id string) error {
	return r.mutate(ctx, id, func(c *models.Contest) {
		c.Active = false
	})
}

func (r *Repository) AttachResultsLink(ctx context.Context, id, link string) error {
	return r.mutate(ctx, id, func(c *models.Contest) {
		c.ResultsLink = link
	})
}

func (r *Repository) CloseWithResults(ctx context.Context, id string, winners []models.Winner, link string) error {
	return r.mutate(ctx, id, func(c *models.Contest) {
		c.Active = false
		c.Winners = append([]models.Winner(nil), winners...)
		c.ResultsLink = link
	})
}

func (r *Repository) TouchUser(ctx context.Context, userID int64) error {
	return r.client.SAdd(ctx, keyUniqueUsers, userID).Err()
}

func (r *Repository) Stats(ctx context.Context) (*models.Stats, error) {
	ids, err := r.client.ZRange(ctx, keyAllContests, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	users, err := r.client.SCard(ctx, keyUniqueUsers).Result()
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{Contests: int64(len(ids)), UniqueUsers: users}
	if len(ids) == 0 {
		return stats, nil
	}

	pipe := r.client.Pipeline()
	counts := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		counts[i] = pipe.HLen(ctx, makeParticipantsKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	for _, cmd := range counts {
		stats.Participants += cmd.Val()
	}
	return stats, nil
}

// mutate applies fn to the stored contest and moves it between the creator's
// active and finished indexes when fn closes it.
func (r *Repository) mutate(ctx context.Context, id string, fn func(c *models.Contest)) error {
	key := makeContestKey(id)
	return r.watch(ctx, func(tx *redis.Tx) error {
		c, err := loadContest(ctx, tx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return repository.ErrContestNotFound
		}

		wasActive := c.Active
		fn(c)
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal contest: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if wasActive && !c.Active {
				pipe.ZRem(ctx, makeCreatorKey(c.CreatorID, true), id)
				pipe.ZAdd(ctx, makeCreatorKey(c.CreatorID, false), redis.Z{
					Score:  float64(time.Now().UnixMilli()),
					Member: id,
				})
			}
			return nil
		})
		return err
	}, key)
}

func (r *Repository) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("contest transaction on %v: %w", keys, redis.TxFailedErr)
}

func (r *Repository) ensureExists(ctx context.Context, id string) error {
	n, err := r.client.Exists(ctx, makeContestKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrContestNotFound
	}
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadContest(ctx context.Context, g getter, id string) (*models.Contest, error) {
	data, err := g.Get(ctx, makeContestKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var c models.Contest
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contest: %w", err)
	}
	return &c, nil
}

var _ repository.ContestRepository = (*Repository)(nil)
