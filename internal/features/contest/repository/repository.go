package repository

import (
	"context"
	"errors"
	"math/rand"

	"contest-bot/internal/features/contest/models"
)

var (
	ErrContestNotFound = errors.New("contest not found")
	ErrDuplicateID     = errors.New("contest id already exists")
	ErrContestClosed   = errors.New("contest is closed")
	ErrIDNotReserved   = errors.New("contest id was not reserved")
)

// JoinOutcome is the result of a successful AddParticipant call.
type JoinOutcome int

const (
	Joined JoinOutcome = iota + 1
	AlreadyJoined
)

func (o JoinOutcome) String() string {
	switch o {
	case Joined:
		return "joined"
	case AlreadyJoined:
		return "already_joined"
	default:
		return "unknown"
	}
}

// ContestRepository is the contest registry. Implementations must make every
// method a single atomic step with respect to concurrent callers.
type ContestRepository interface {
	// GenerateID draws random ids until one is free in both namespaces and
	// reserves it until Create consumes it or ReleaseID frees it.
	GenerateID(ctx context.Context, fast bool) (string, error)
	ReleaseID(ctx context.Context, id string) error

	// Create stores a fully populated contest with an empty participant list.
	Create(ctx context.Context, contest *models.Contest) (string, error)
	// GetByID returns nil, nil when the contest does not exist.
	GetByID(ctx context.Context, id string) (*models.Contest, error)
	ListActiveByCreator(ctx context.Context, creatorID int64) ([]*models.Contest, error)
	ListFinishedByCreator(ctx context.Context, creatorID int64) ([]*models.Contest, error)

	// AddParticipant inserts p unless the user already joined.
	// It fails with ErrContestNotFound or ErrContestClosed.
	AddParticipant(ctx context.Context, contestID string, p models.Participant) (JoinOutcome, error)
	GetParticipants(ctx context.Context, contestID string) ([]models.Participant, error)
	IsParticipant(ctx context.Context, contestID string, userID int64) (bool, error)

	// Close sets active=false. Calling it on a closed contest is a no-op.
	Close(ctx context.Context, id string) error
	AttachResultsLink(ctx context.Context, id, link string) error
	// CloseWithResults closes the contest and replaces winners and the results
	// link as one step. An empty link clears an earlier one.
	CloseWithResults(ctx context.Context, id string, winners []models.Winner, link string) error

	// TouchUser records a user that interacted with a join button.
	TouchUser(ctx context.Context, userID int64) error
	Stats(ctx context.Context) (*models.Stats, error)
}

// RandomIDNumber draws a number in the id range.
func RandomIDNumber() int {
	lo, hi := models.IDRange()
	return lo + rand.Intn(hi-lo+1)
}
