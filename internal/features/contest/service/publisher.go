package service

import (
	"context"
	"fmt"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/features/contest/mapper"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/contest/repository"
	"contest-bot/internal/platform/chat"
)

// PostChannel is where the announcement goes.
type PostChannel interface {
	chat.Dispatcher
	Delete(ctx context.Context, ref chat.MessageRef) error
}

// Publisher posts a contest to its channel and stores it.
type Publisher struct {
	repo        repository.ContestRepository
	channel     PostChannel
	notifier    Notifier
	botUsername string
}

func NewPublisher(repo repository.ContestRepository, channel PostChannel, notifier Notifier, botUsername string) *Publisher {
	return &Publisher{repo: repo, channel: channel, notifier: notifier, botUsername: botUsername}
}

// Publish assigns an id to draft, posts the announcement to target and stores
// the contest. On failure no contest is stored and the reserved id is freed.
// After success operators are notified and the creator gets a confirmation.
func (p *Publisher) Publish(ctx context.Context, draft models.Contest, target *chat.Chat) (*models.Contest, error) {
	id, err := p.repo.GenerateID(ctx, draft.Fast)
	if err != nil {
		return nil, fmt.Errorf("generate contest id: %w", err)
	}

	c := draft
	c.ID = id
	c.Active = true
	c.ChannelID = target.ID
	if target.Username != "" {
		c.ChannelUsername = target.Username
	}
	if err := c.Validate(); err != nil {
		p.release(ctx, id)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid contest")
	}

	ref, err := p.channel.Send(ctx, target.ID, mapper.Announcement(&c))
	if err != nil {
		p.release(ctx, id)
		return nil, apperrors.NewExternalLookupError("post announcement", err).
			WithDetail("channel", c.ChannelUsername)
	}
	c.MessageID = ref.MessageID

	if _, err := p.repo.Create(ctx, &c); err != nil {
		p.release(ctx, id)
		if delErr := p.channel.Delete(ctx, ref); delErr != nil {
			logger.Error().
				Err(delErr).
				Str("contest_id", id).
				Msg("Failed to delete announcement of unsaved contest")
		}
		return nil, fmt.Errorf("store contest %s: %w", id, err)
	}

	logger.Info().
		Str("contest_id", c.ID).
		Int64("creator_id", c.CreatorID).
		Str("channel", c.ChannelUsername).
		Bool("fast", c.Fast).
		Msg("Contest published")

	p.notifier.NotifyPublished(ctx, &c)
	if _, err := p.channel.Send(ctx, c.CreatorID, chat.Message{Text: mapper.CreatorConfirmation(&c, p.botUsername)}); err != nil {
		logger.Warn().
			Err(err).
			Str("contest_id", c.ID).
			Int64("creator_id", c.CreatorID).
			Msg("Failed to confirm publication to creator")
	}
	return &c, nil
}

func (p *Publisher) release(ctx context.Context, id string) {
	if err := p.repo.ReleaseID(ctx, id); err != nil {
		logger.Warn().Err(err).Str("contest_id", id).Msg("Failed to release contest id")
	}
}
