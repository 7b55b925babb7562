package fast

import (
	"context"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/platform/chat"
)

// Authorizer requires channel ownership.
type Authorizer interface {
	Authorize(ctx context.Context, channel string, userID int64) (*chat.Chat, error)
}

// Publisher posts and stores a contest.
type Publisher interface {
	Publish(ctx context.Context, draft models.Contest, target *chat.Chat) (*models.Contest, error)
}

// Builder creates fast contests without any conversation state.
type Builder struct {
	gate      Authorizer
	publisher Publisher
}

func NewBuilder(gate Authorizer, publisher Publisher) *Builder {
	return &Builder{gate: gate, publisher: publisher}
}

// Build authorizes creatorID on the requested channel and publishes the
// contest. A failed build leaves nothing in the registry.
func (b *Builder) Build(ctx context.Context, creatorID int64, req *Request) (*models.Contest, error) {
	target, err := b.gate.Authorize(ctx, req.Channel, creatorID)
	if err != nil {
		return nil, err
	}

	c, err := b.publisher.Publish(ctx, models.Contest{
		Conditions:      req.Description,
		Channels:        []string{req.Channel},
		WinnerCount:     req.WinnerCount,
		ChannelUsername: req.Channel,
		CreatorID:       creatorID,
		Fast:            true,
		DurationMinutes: req.DurationMinutes,
	}, target)
	if err != nil {
		logger.Error().
			Err(err).
			Int64("creator_id", creatorID).
			Str("channel", req.Channel).
			Msg("Failed to publish fast contest")
		return nil, err
	}
	return c, nil
}
