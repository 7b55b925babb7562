// Package repotest holds behaviour tests every ContestRepository must pass.
package repotest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/contest/repository"
)

// Factory builds a fresh repository. When next is non-nil it must be used as
// the random id number source.
type Factory func(t *testing.T, next func() int) repository.ContestRepository

// Sequence returns a number source yielding nums in order, then repeating the last one.
func Sequence(nums ...int) func() int {
	var mu sync.Mutex
	i := 0
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		n := nums[i]
		if i < len(nums)-1 {
			i++
		}
		return n
	}
}

// NewContest builds a valid contest for id.
func NewContest(id string, creatorID int64) *models.Contest {
	c := &models.Contest{
		ID:               id,
		Conditions:       "Best comment wins",
		SubscriptionText: "Subscribe to @c1 and @c2",
		Channels:         []string{"c1", "c2"},
		WinnerCount:      2,
		ChannelID:        -100500,
		ChannelUsername:  "target",
		MessageID:        10,
		CreatorID:        creatorID,
		Active:           true,
	}
	if models.IsFastID(id) {
		c.Fast = true
		c.DurationMinutes = 5
		c.Channels = []string{"target"}
	}
	return c
}

// Run executes the whole suite.
func Run(t *testing.T, newRepo Factory) {
	t.Run("GenerateID", func(t *testing.T) { testGenerateID(t, newRepo) })
	t.Run("GenerateIDRetriesOnCollision", func(t *testing.T) { testGenerateIDCollision(t, newRepo) })
	t.Run("GenerateIDSharedNamespace", func(t *testing.T) { testGenerateIDReservation(t, newRepo) })
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newRepo) })
	t.Run("CreateDuplicate", func(t *testing.T) { testCreateDuplicate(t, newRepo) })
	t.Run("CreateInvalid", func(t *testing.T) { testCreateInvalid(t, newRepo) })
	t.Run("ListByCreator", func(t *testing.T) { testListByCreator(t, newRepo) })
	t.Run("JoinIdempotent", func(t *testing.T) { testJoinIdempotent(t, newRepo) })
	t.Run("JoinConcurrent", func(t *testing.T) { testJoinConcurrent(t, newRepo) })
	t.Run("JoinMissingOrClosed", func(t *testing.T) { testJoinMissingOrClosed(t, newRepo) })
	t.Run("CloseIdempotent", func(t *testing.T) { testCloseIdempotent(t, newRepo) })
	t.Run("ResultsLink", func(t *testing.T) { testResultsLink(t, newRepo) })
	t.Run("CloseWithResults", func(t *testing.T) { testCloseWithResults(t, newRepo) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newRepo) })
}

func testGenerateID(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		fast := i%2 == 0
		id, err := repo.GenerateID(ctx, fast)
		require.NoError(t, err)
		require.True(t, models.IsValidID(id), id)
		assert.Equal(t, fast, models.IsFastID(id))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		_, err = repo.Create(ctx, NewContest(id, 1))
		require.NoError(t, err)
	}
}

func testGenerateIDCollision(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, Sequence(111111, 111111, 111111, 222222))

	first, err := repo.GenerateID(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "111111", first)
	_, err = repo.Create(ctx, NewContest(first, 1))
	require.NoError(t, err)

	second, err := repo.GenerateID(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "222222", second)
}

func testGenerateIDReservation(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, Sequence(333333, 333333, 444444))

	first, err := repo.GenerateID(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "F333333", first)

	// reserved but not yet created: must not be handed out again
	second, err := repo.GenerateID(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "F444444", second)

	require.NoError(t, repo.ReleaseID(ctx, first))
}

func testCreateAndGet(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	id, err := repo.Create(ctx, NewContest("123456", 7))
	require.NoError(t, err)
	assert.Equal(t, "123456", id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"c1", "c2"}, got.Channels)
	assert.Equal(t, 2, got.WinnerCount)
	assert.Equal(t, "Subscribe to @c1 and @c2", got.SubscriptionText)
	assert.True(t, got.Active)
	assert.False(t, got.CreatedAt.IsZero())

	participants, err := repo.GetParticipants(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, participants)

	missing, err := repo.GetByID(ctx, "654321")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testCreateDuplicate(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	_, err := repo.Create(ctx, NewContest("123456", 7))
	require.NoError(t, err)

	_, err = repo.Create(ctx, NewContest("123456", 8))
	assert.ErrorIs(t, err, repository.ErrDuplicateID)

	got, err := repo.GetByID(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.CreatorID)
}

func testCreateInvalid(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	c := NewContest("123456", 7)
	c.WinnerCount = 0
	_, err := repo.Create(ctx, c)
	assert.ErrorIs(t, err, models.ErrInvalidWinnersCount)

	got, err := repo.GetByID(ctx, "123456")
	require.NoError(t, err)
	assert.Nil(t, got, "failed create must leave no residue")
}

func testListByCreator(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	for _, c := range []*models.Contest{
		NewContest("100001", 1),
		NewContest("100002", 1),
		NewContest("F100003", 1),
		NewContest("100004", 2),
	} {
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}
	require.NoError(t, repo.Close(ctx, "100002"))

	active, err := repo.ListActiveByCreator(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"100001", "F100003"}, ids(active))

	finished, err := repo.ListFinishedByCreator(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"100002"}, ids(finished))

	none, err := repo.ListFinishedByCreator(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testJoinIdempotent(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)
	_, err := repo.Create(ctx, NewContest("123456", 7))
	require.NoError(t, err)

	p := models.Participant{UserID: 42, Username: "alice", Name: "Alice"}

	outcome, err := repo.AddParticipant(ctx, "123456", p)
	require.NoError(t, err)
	assert.Equal(t, repository.Joined, outcome)

	outcome, err = repo.AddParticipant(ctx, "123456", p)
	require.NoError(t, err)
	assert.Equal(t, repository.AlreadyJoined, outcome)

	participants, err := repo.GetParticipants(ctx, "123456")
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "alice", participants[0].Username)

	joined, err := repo.IsParticipant(ctx, "123456", 42)
	require.NoError(t, err)
	assert.True(t, joined)
}

func testJoinConcurrent(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)
	_, err := repo.Create(ctx, NewContest("123456", 7))
	require.NoError(t, err)

	const attempts = 20
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := repo.AddParticipant(ctx, "123456", models.Participant{UserID: 42, Name: "Alice"})
			assert.NoError(t, err)
			if outcome == repository.Joined {
				mu.Lock()
				joined++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, joined)
	participants, err := repo.GetParticipants(ctx, "123456")
	require.NoError(t, err)
	assert.Len(t, participants, 1)
}

func testJoinMissingOrClosed(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	_, err := repo.AddParticipant(ctx, "123456", models.Participant{UserID: 1})
	assert.ErrorIs(t, err, repository.ErrContestNotFound)

	_, err = repo.Create(ctx, NewContest("123456", 7))
	require.NoError(t, err)
	require.NoError(t, repo.Close(ctx, "123456"))

	_, err = repo.AddParticipant(ctx, "123456", models.Participant{UserID: 1})
	assert.ErrorIs(t, err, repository.ErrContestClosed)
}

func testCloseIdempotent(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	assert.ErrorIs(t, repo.Close(ctx, "123456"), repository.ErrContestNotFound)

	_, err := repo.Create(ctx, NewContest("123456", 7))
	require.NoError(t, err)

	require.NoError(t, repo.Close(ctx, "123456"))
	require.NoError(t, repo.Close(ctx, "123456"))

	got, err := repo.GetByID(ctx, "123456")
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func testResultsLink(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	assert.ErrorIs(t, repo.AttachResultsLink(ctx, "123456", "https://x"), repository.ErrContestNotFound)

	_, err := repo.Create(ctx, NewContest("123456", 7))
	require.NoError(t, err)
	require.NoError(t, repo.AttachResultsLink(ctx, "123456", "https://example.com/results"))

	got, err := repo.GetByID(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/results", got.ResultsLink)
	assert.True(t, got.Active, "attaching a link does not close the contest")
}

func testCloseWithResults(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	winners := []models.Winner{{Username: "u1", Name: "u1"}, {UserID: 999, Name: "User 999"}}
	assert.ErrorIs(t, repo.CloseWithResults(ctx, "123456", winners, ""), repository.ErrContestNotFound)

	_, err := repo.Create(ctx, NewContest("123456", 7))
	require.NoError(t, err)
	require.NoError(t, repo.CloseWithResults(ctx, "123456", winners, "https://example.com"))

	got, err := repo.GetByID(ctx, "123456")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, winners, got.Winners)
	assert.Equal(t, "https://example.com", got.ResultsLink)

	// reroll without link replaces winners and drops the earlier link
	reroll := []models.Winner{{Username: "u2", Name: "u2"}}
	require.NoError(t, repo.CloseWithResults(ctx, "123456", reroll, ""))
	got, err = repo.GetByID(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, reroll, got.Winners)
	assert.Empty(t, got.ResultsLink)
}

func testStats(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, nil)

	_, err := repo.Create(ctx, NewContest("100001", 1))
	require.NoError(t, err)
	_, err = repo.Create(ctx, NewContest("F100002", 1))
	require.NoError(t, err)

	for _, uid := range []int64{10, 11} {
		require.NoError(t, repo.TouchUser(ctx, uid))
		_, err := repo.AddParticipant(ctx, "100001", models.Participant{UserID: uid, Name: "x"})
		require.NoError(t, err)
	}
	require.NoError(t, repo.TouchUser(ctx, 10))
	_, err = repo.AddParticipant(ctx, "F100002", models.Participant{UserID: 10, Name: "x"})
	require.NoError(t, err)
	require.NoError(t, repo.TouchUser(ctx, 12))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Contests)
	assert.Equal(t, int64(3), stats.Participants)
	assert.Equal(t, int64(3), stats.UniqueUsers)
}

func ids(cs []*models.Contest) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}
