package dto

import (
	"time"

	"contest-bot/internal/features/contest/models"
)

// @Description Public view of a contest
type ContestResponse struct {
	ID               string          `json:"id" example:"123456"`
	Fast             bool            `json:"fast" example:"false"`
	Active           bool            `json:"active" example:"true"`
	Conditions       string          `json:"conditions" example:"Comment under the post"`
	SubscriptionText string          `json:"subscription_text,omitempty" example:"Subscribe to both channels"`
	Channels         []string        `json:"channels" example:"c1,c2"`
	WinnerCount      int             `json:"winner_count" example:"2"`
	Channel          string          `json:"channel" example:"mychannel"`
	DurationMinutes  int             `json:"duration_minutes,omitempty" example:"5"`
	Participants     int             `json:"participants" example:"42"`
	Winners          []models.Winner `json:"winners,omitempty"`
	ResultsLink      string          `json:"results_link,omitempty" example:"https://example.com/results"`
	CreatedAt        time.Time       `json:"created_at"`
}

func NewContestResponse(c *models.Contest, participants int) ContestResponse {
	return ContestResponse{
		ID:               c.ID,
		Fast:             c.Fast,
		Active:           c.Active,
		Conditions:       c.Conditions,
		SubscriptionText: c.SubscriptionText,
		Channels:         c.Channels,
		WinnerCount:      c.WinnerCount,
		Channel:          c.ChannelUsername,
		DurationMinutes:  c.DurationMinutes,
		Participants:     participants,
		Winners:          c.Winners,
		ResultsLink:      c.ResultsLink,
		CreatedAt:        c.CreatedAt,
	}
}

// @Description Registry statistics
type StatsResponse struct {
	Contests     int64 `json:"contests" example:"12"`
	Participants int64 `json:"participants" example:"340"`
	UniqueUsers  int64 `json:"unique_users" example:"290"`
}
