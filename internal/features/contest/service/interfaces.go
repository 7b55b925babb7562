package service

import (
	"context"

	"contest-bot/internal/features/contest/models"
)

// Notifier is told about every published contest.
type Notifier interface {
	NotifyPublished(ctx context.Context, c *models.Contest)
}

// MembershipGate is the part of the channel gate the join path needs.
type MembershipGate interface {
	UnmetChannels(ctx context.Context, channels []string, userID int64) []string
}
