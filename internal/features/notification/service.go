package notification

import (
	"context"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/features/contest/mapper"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/operator"
	"contest-bot/internal/platform/chat"
)

// Service reports published contests to bot operators.
type Service struct {
	dispatcher chat.Dispatcher
	operators  *operator.Set
}

func NewService(dispatcher chat.Dispatcher, operators *operator.Set) *Service {
	return &Service{dispatcher: dispatcher, operators: operators}
}

// NotifyPublished sends the new contest to every operator. Delivery failures
// are logged and do not affect the caller.
func (s *Service) NotifyPublished(ctx context.Context, c *models.Contest) {
	if s == nil || c == nil {
		return
	}
	msg := chat.Message{Text: mapper.OperatorNotice(c)}
	for _, id := range s.operators.IDs() {
		if _, err := s.dispatcher.Send(ctx, id, msg); err != nil {
			logger.Error().
				Err(err).
				Int64("operator_id", id).
				Str("contest_id", c.ID).
				Msg("Failed to notify operator")
		}
	}
}
