package models

import (
	"fmt"
	"time"
)

// Contest is a giveaway posted to a channel.
type Contest struct {
	ID               string   `json:"id"`
	Conditions       string   `json:"conditions"`
	SubscriptionText string   `json:"subscription_text,omitempty"`
	Channels         []string `json:"channels"`
	WinnerCount      int      `json:"winner_count"`

	// Where the announcement was posted
	ChannelID       int64  `json:"channel_id"`
	ChannelUsername string `json:"channel_username"`
	MessageID       int64  `json:"message_id"`

	CreatorID       int64     `json:"creator_id"`
	Active          bool      `json:"active"`
	Fast            bool      `json:"fast"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	ResultsLink     string    `json:"results_link,omitempty"`
	Winners         []Winner  `json:"winners,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks the invariants a contest must hold before it is stored.
func (c *Contest) Validate() error {
	if !IsValidID(c.ID) {
		return fmt.Errorf("invalid contest id %q", c.ID)
	}
	if IsFastID(c.ID) != c.Fast {
		return fmt.Errorf("contest id %q does not match fast=%v", c.ID, c.Fast)
	}
	if c.WinnerCount < 1 {
		return ErrInvalidWinnersCount
	}
	if !c.Fast && len(c.Channels) == 0 {
		return ErrNoChannels
	}
	if c.Fast && c.DurationMinutes < 1 {
		return fmt.Errorf("fast contest requires a positive duration")
	}
	if c.CreatorID == 0 {
		return fmt.Errorf("creator is required")
	}
	return nil
}

// Participant is a user that passed the subscription gate.
type Participant struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Label is how the participant is shown to the creator.
func (p Participant) Label() string {
	if p.Username != "" {
		return fmt.Sprintf("@%s (%d)", p.Username, p.UserID)
	}
	return fmt.Sprintf("%s (%d)", p.Name, p.UserID)
}

// Winner is a creator-selected winner. UserID is zero when only a handle is known.
type Winner struct {
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name"`
}

// Label renders the winner for the results post.
func (w Winner) Label() string {
	if w.Username != "" {
		return "@" + w.Username
	}
	return w.Name
}

// Stats are the registry-wide counters shown to operators.
type Stats struct {
	Contests     int64 `json:"contests"`
	Participants int64 `json:"participants"`
	UniqueUsers  int64 `json:"unique_users"`
}
