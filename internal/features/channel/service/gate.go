package service

import (
	"context"
	"fmt"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/platform/chat"
)

// Status is the membership of a user in a channel as seen by the gate.
type Status int

const (
	StatusNotMember Status = iota
	StatusMember
	// StatusOwner covers the creator and administrator roles.
	StatusOwner
	// StatusLookupFailed means the channel or the membership could not be
	// resolved. It never satisfies a check.
	StatusLookupFailed
)

func (s Status) String() string {
	switch s {
	case StatusMember:
		return "member"
	case StatusOwner:
		return "owner"
	case StatusLookupFailed:
		return "lookup_failed"
	default:
		return "not_member"
	}
}

// Subscribed reports whether s passes the join gate.
func (s Status) Subscribed() bool {
	return s == StatusMember || s == StatusOwner
}

// Membership is the result of a single check.
type Membership struct {
	Status Status
	// Chat is set whenever the channel resolved.
	Chat *chat.Chat
	// Err carries the platform error behind StatusLookupFailed.
	Err error
}

// Gate answers subscription and ownership questions for channels.
type Gate struct {
	dir chat.Directory
}

func NewGate(dir chat.Directory) *Gate {
	return &Gate{dir: dir}
}

// Check resolves the channel and classifies the user's membership in it.
func (g *Gate) Check(ctx context.Context, channel string, userID int64) Membership {
	c, err := g.dir.ResolveChat(ctx, chat.NormalizeHandle(channel))
	if err != nil {
		return Membership{Status: StatusLookupFailed, Err: fmt.Errorf("resolve chat %s: %w", channel, err)}
	}

	member, err := g.dir.GetMember(ctx, c.ID, userID)
	if err != nil {
		return Membership{Status: StatusLookupFailed, Chat: c, Err: fmt.Errorf("get member of %s: %w", channel, err)}
	}

	return Membership{Status: classify(member), Chat: c}
}

func classify(m *chat.Member) Status {
	switch m.Status {
	case chat.StatusCreator, chat.StatusAdministrator:
		return StatusOwner
	case chat.StatusMember:
		return StatusMember
	case chat.StatusRestricted:
		if m.IsMember {
			return StatusMember
		}
	}
	return StatusNotMember
}

// Authorize requires the user to own the channel and returns the resolved chat.
// A failed lookup is reported as an external lookup error, anything short of
// ownership as unauthorized.
func (g *Gate) Authorize(ctx context.Context, channel string, userID int64) (*chat.Chat, error) {
	m := g.Check(ctx, channel, userID)
	switch m.Status {
	case StatusOwner:
		return m.Chat, nil
	case StatusLookupFailed:
		logger.Warn().
			Err(m.Err).
			Str("channel", channel).
			Int64("user_id", userID).
			Msg("Channel lookup failed during authorization")
		return nil, apperrors.NewExternalLookupError("check channel ownership", m.Err).
			WithDetail("channel", channel)
	default:
		return nil, apperrors.NewUnauthorizedError("user is not an administrator of the channel").
			WithDetail("channel", channel)
	}
}

// UnmetChannels checks every channel and returns those the user has not
// satisfied, in input order. Failed lookups count as unmet.
func (g *Gate) UnmetChannels(ctx context.Context, channels []string, userID int64) []string {
	var unmet []string
	for _, channel := range channels {
		m := g.Check(ctx, channel, userID)
		if m.Status == StatusLookupFailed {
			logger.Warn().
				Err(m.Err).
				Str("channel", channel).
				Int64("user_id", userID).
				Msg("Channel lookup failed during join check")
		}
		if !m.Status.Subscribed() {
			unmet = append(unmet, channel)
		}
	}
	return unmet
}
