package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/features/contest/mapper"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/contest/repository"
	"contest-bot/internal/features/operator"
	"contest-bot/internal/platform/chat"
)

// JoinStatus is the user-facing result of a join attempt.
type JoinStatus int

const (
	JoinJoined JoinStatus = iota + 1
	JoinAlreadyJoined
	JoinUnavailable
	JoinNotSubscribed
)

// JoinResult carries the join status and, when not subscribed, the unmet channels.
type JoinResult struct {
	Status JoinStatus
	Unmet  []string
}

// Message is the alert text shown to the user.
func (r JoinResult) Message() string {
	switch r.Status {
	case JoinJoined:
		return "You are in the contest!"
	case JoinAlreadyJoined:
		return "You are already participating!"
	case JoinNotSubscribed:
		lines := make([]string, 0, len(r.Unmet)+1)
		lines = append(lines, "Check your subscriptions!")
		for _, ch := range r.Unmet {
			lines = append(lines, "You are not subscribed to @"+strings.TrimLeft(ch, "@"))
		}
		return strings.Join(lines, "\n")
	default:
		return "⚠️ Contest not found or already finished"
	}
}

// Service implements the participant and creator facing contest operations.
type Service struct {
	repo      repository.ContestRepository
	gate      MembershipGate
	operators *operator.Set
}

func NewService(repo repository.ContestRepository, gate MembershipGate, operators *operator.Set) *Service {
	return &Service{repo: repo, gate: gate, operators: operators}
}

// Join registers user in the contest once every required channel is satisfied.
func (s *Service) Join(ctx context.Context, contestID string, user chat.User) (JoinResult, error) {
	c, err := s.repo.GetByID(ctx, contestID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("get contest %s: %w", contestID, err)
	}
	if c == nil || !c.Active {
		return JoinResult{Status: JoinUnavailable}, nil
	}

	if err := s.repo.TouchUser(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to record user")
	}

	joined, err := s.repo.IsParticipant(ctx, contestID, user.ID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("check participant: %w", err)
	}
	if joined {
		return JoinResult{Status: JoinAlreadyJoined}, nil
	}

	if unmet := s.gate.UnmetChannels(ctx, c.Channels, user.ID); len(unmet) > 0 {
		return JoinResult{Status: JoinNotSubscribed, Unmet: unmet}, nil
	}

	name := user.FullName()
	if name == "" {
		name = fmt.Sprintf("User %d", user.ID)
	}
	outcome, err := s.repo.AddParticipant(ctx, contestID, models.Participant{
		UserID:   user.ID,
		Username: user.Username,
		Name:     name,
	})
	switch {
	case errors.Is(err, repository.ErrContestNotFound), errors.Is(err, repository.ErrContestClosed):
		return JoinResult{Status: JoinUnavailable}, nil
	case err != nil:
		return JoinResult{}, fmt.Errorf("add participant: %w", err)
	}

	if outcome == repository.AlreadyJoined {
		return JoinResult{Status: JoinAlreadyJoined}, nil
	}
	logger.Debug().Str("contest_id", contestID).Int64("user_id", user.ID).Msg("Participant joined")
	return JoinResult{Status: JoinJoined}, nil
}

// StartMenu builds the /start keyboard for userID.
func (s *Service) StartMenu(ctx context.Context, userID int64) (chat.Message, error) {
	active, err := s.repo.ListActiveByCreator(ctx, userID)
	if err != nil {
		return chat.Message{}, err
	}
	finished, err := s.repo.ListFinishedByCreator(ctx, userID)
	if err != nil {
		return chat.Message{}, err
	}
	return mapper.StartMenu(len(active) > 0, len(finished) > 0, s.operators.Contains(userID)), nil
}

// ContestMenu lists the creator's active contests, or finished ones for a reroll.
func (s *Service) ContestMenu(ctx context.Context, userID int64, reroll bool) (chat.Message, error) {
	var (
		contests []*models.Contest
		err      error
	)
	if reroll {
		contests, err = s.repo.ListFinishedByCreator(ctx, userID)
	} else {
		contests, err = s.repo.ListActiveByCreator(ctx, userID)
	}
	if err != nil {
		return chat.Message{}, err
	}

	if len(contests) == 0 {
		if reroll {
			return chat.Message{Text: "❌ You have no finished contests."}, nil
		}
		return chat.Message{Text: "❌ You have no active contests."}, nil
	}
	return mapper.ContestMenu(contests, reroll), nil
}

// Stats returns registry statistics to operators only.
func (s *Service) Stats(ctx context.Context, userID int64) (*models.Stats, error) {
	if !s.operators.Contains(userID) {
		return nil, apperrors.NewForbiddenError("statistics are available to operators only")
	}
	return s.repo.Stats(ctx)
}

// Get returns a contest or a not found error.
func (s *Service) Get(ctx context.Context, id string) (*models.Contest, error) {
	if !models.IsValidID(id) {
		return nil, apperrors.NewValidationError("id", "contest id must be ###### or F######")
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperrors.NewNotFoundError("contest", id)
	}
	return c, nil
}

// ParticipantCount returns how many users joined the contest.
func (s *Service) ParticipantCount(ctx context.Context, id string) (int, error) {
	participants, err := s.repo.GetParticipants(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(participants), nil
}

// ListByCreator returns active contests followed by finished ones.
func (s *Service) ListByCreator(ctx context.Context, creatorID int64) ([]*models.Contest, error) {
	active, err := s.repo.ListActiveByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	finished, err := s.repo.ListFinishedByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	return append(active, finished...), nil
}
