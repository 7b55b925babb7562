// Package flow drives the multi-step conversations: standard contest
// creation and winner selection.
package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/features/contest/mapper"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/contest/repository"
	"contest-bot/internal/features/operator"
	"contest-bot/internal/platform/chat"
)

// NoLink is the answer that publishes results without a link button.
const NoLink = "no"

// Authorizer requires channel ownership.
type Authorizer interface {
	Authorize(ctx context.Context, channel string, userID int64) (*chat.Chat, error)
}

// Publisher posts and stores a new contest.
type Publisher interface {
	Publish(ctx context.Context, draft models.Contest, target *chat.Chat) (*models.Contest, error)
}

// WinnerSelector validates and resolves winner input.
type WinnerSelector interface {
	Select(ctx context.Context, input string, winnerCount int) ([]models.Winner, error)
}

// Controller owns the session store. Every method returns the replies for
// the creator's private chat, in order.
type Controller struct {
	sessions  *Store
	repo      repository.ContestRepository
	gate      Authorizer
	publisher Publisher
	selector  WinnerSelector
	posts     chat.Dispatcher
	operators *operator.Set
}

func NewController(
	sessions *Store,
	repo repository.ContestRepository,
	gate Authorizer,
	publisher Publisher,
	selector WinnerSelector,
	posts chat.Dispatcher,
	operators *operator.Set,
) *Controller {
	return &Controller{
		sessions:  sessions,
		repo:      repo,
		gate:      gate,
		publisher: publisher,
		selector:  selector,
		posts:     posts,
		operators: operators,
	}
}

func text(s string) []chat.Message {
	return []chat.Message{{Text: s}}
}

// HasSession reports whether userID is inside a flow.
func (c *Controller) HasSession(userID int64) bool {
	_, ok := c.sessions.Get(userID)
	return ok
}

// StartCreation begins a standard contest, replacing any previous session.
func (c *Controller) StartCreation(userID int64) []chat.Message {
	c.sessions.Set(userID, CollectingConditions{})
	return text("📝 Send the contest conditions:")
}

// Confirm advances a confirmed summary to target channel collection.
// count must match the draft, otherwise the button is stale.
func (c *Controller) Confirm(userID int64, count int) []chat.Message {
	s, ok := c.sessions.Get(userID)
	confirmation, isConfirmation := s.(AwaitingConfirmation)
	if !ok || !isConfirmation || confirmation.Draft.WinnerCount != count {
		return text("⚠️ This confirmation is no longer valid. Start again with /start.")
	}

	c.sessions.Set(userID, CollectingTarget{Draft: confirmation.Draft})
	return text("📢 Send the channel to publish the contest in (for example @channel). " +
		"You and the bot must be administrators there.")
}

// Cancel ends contest creation without creating anything.
func (c *Controller) Cancel(userID int64) []chat.Message {
	c.sessions.Clear(userID)
	return text("❌ Contest creation cancelled.")
}

// CancelSelection ends winner selection or reroll.
func (c *Controller) CancelSelection(userID int64, reroll bool) []chat.Message {
	c.sessions.Clear(userID)
	if reroll {
		return text("❌ Winner reroll cancelled.")
	}
	return text("❌ Winner selection cancelled.")
}

// HandleText feeds free text into the user's session. ok is false when the
// user has no session.
func (c *Controller) HandleText(ctx context.Context, userID int64, input string) (replies []chat.Message, ok bool) {
	s, ok := c.sessions.Get(userID)
	if !ok {
		return nil, false
	}
	input = strings.TrimSpace(input)

	switch st := s.(type) {
	case CollectingConditions:
		if input == "" {
			return text("❌ Conditions cannot be empty. Send the contest conditions:"), true
		}
		c.sessions.Set(userID, CollectingSubscription{Conditions: input})
		return text("📋 Send the subscription conditions:"), true

	case CollectingSubscription:
		if input == "" {
			return text("❌ Send the subscription conditions:"), true
		}
		c.sessions.Set(userID, CollectingChannels{Conditions: st.Conditions, SubscriptionText: input})
		return text("📢 Send the channels to subscribe to, separated by commas (for example: @channel1, @channel2):"), true

	case CollectingChannels:
		channels := ParseChannels(input)
		if len(channels) == 0 {
			return text("❌ Give at least one channel, separated by commas."), true
		}
		c.sessions.Set(userID, CollectingWinnerCount{
			Conditions:       st.Conditions,
			SubscriptionText: st.SubscriptionText,
			Channels:         channels,
		})
		return text("🏆 How many winners?"), true

	case CollectingWinnerCount:
		count, err := strconv.Atoi(input)
		if err != nil || count < 1 {
			return text("❌ Send a positive whole number."), true
		}
		draft := mapper.Draft{
			Conditions:       st.Conditions,
			SubscriptionText: st.SubscriptionText,
			Channels:         st.Channels,
			WinnerCount:      count,
		}
		c.sessions.Set(userID, AwaitingConfirmation{Draft: draft})
		return []chat.Message{mapper.Confirmation(draft)}, true

	case AwaitingConfirmation:
		return []chat.Message{
			{Text: "☝️ Confirm or cancel using the buttons."},
			mapper.Confirmation(st.Draft),
		}, true

	case CollectingTarget:
		return c.publish(ctx, userID, st.Draft, input), true

	case AwaitingWinnerList:
		return c.selectWinners(ctx, userID, st, input), true

	case AwaitingResultsLink:
		return c.publishResults(ctx, userID, st, input), true
	}

	c.sessions.Clear(userID)
	return nil, false
}

// ParseChannels splits comma separated channels, trimming blanks and "@".
func ParseChannels(input string) []string {
	var channels []string
	for _, part := range strings.Split(input, ",") {
		ch := strings.TrimLeft(strings.TrimSpace(part), "@")
		if ch = strings.TrimSpace(ch); ch != "" {
			channels = append(channels, ch)
		}
	}
	return channels
}

func (c *Controller) publish(ctx context.Context, userID int64, draft mapper.Draft, input string) []chat.Message {
	// Every outcome of this step ends the flow.
	defer c.sessions.Clear(userID)

	target := strings.TrimLeft(input, "@")
	if target == "" {
		return text("❌ No channel given. Start again with /start.")
	}

	channel, err := c.gate.Authorize(ctx, target, userID)
	if err != nil {
		if apperrors.IsExternalLookup(err) {
			return text(fmt.Sprintf("❌ Could not check @%s. Make sure the channel exists and the bot is an administrator there. Start again with /start.", target))
		}
		return text(fmt.Sprintf("❌ You are not an administrator of @%s. Start again with /start.", target))
	}

	_, err = c.publisher.Publish(ctx, models.Contest{
		Conditions:       draft.Conditions,
		SubscriptionText: draft.SubscriptionText,
		Channels:         draft.Channels,
		WinnerCount:      draft.WinnerCount,
		ChannelUsername:  target,
		CreatorID:        userID,
	}, channel)
	if err != nil {
		logger.Error().Err(err).Int64("creator_id", userID).Str("channel", target).Msg("Failed to publish contest")
		return text("❌ Publication failed. Start again with /start.")
	}
	// the publisher already sent the confirmation to the creator
	return nil
}

// EnterSelection starts winner selection (or a reroll) for contestID. The
// caller must be the contest creator and an operator; otherwise nothing changes.
func (c *Controller) EnterSelection(ctx context.Context, userID int64, contestID string, reroll bool) ([]chat.Message, error) {
	contest, msg, err := c.loadOwned(ctx, userID, contestID)
	if err != nil || msg != nil {
		return msg, err
	}

	switch {
	case reroll && contest.Active:
		return text("❌ This contest has no results yet. Use winner selection instead."), nil
	case !reroll && !contest.Active:
		return text("❌ This contest is already finished. Use reroll to change the winners."), nil
	}

	participants, err := c.repo.GetParticipants(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return text("😢 There are no participants to pick winners from."), nil
	}

	c.sessions.Set(userID, AwaitingWinnerList{ContestID: contestID, Reroll: reroll})
	return text(mapper.WinnerPrompt(participants)), nil
}

// loadOwned returns the contest when userID may select its winners, or the
// reply explaining why not.
func (c *Controller) loadOwned(ctx context.Context, userID int64, contestID string) (*models.Contest, []chat.Message, error) {
	contest, err := c.repo.GetByID(ctx, contestID)
	if err != nil {
		return nil, nil, err
	}
	if contest == nil {
		return nil, text("❌ Contest not found."), nil
	}
	if contest.CreatorID != userID {
		return nil, text("❌ You are not the creator of this contest."), nil
	}
	if !c.operators.Contains(userID) {
		return nil, text("⚠️ Only bot operators can publish results. Contact an operator."), nil
	}
	return contest, nil, nil
}

func (c *Controller) selectWinners(ctx context.Context, userID int64, st AwaitingWinnerList, input string) []chat.Message {
	contest, msg, err := c.loadOwned(ctx, userID, st.ContestID)
	if err != nil || msg != nil {
		c.sessions.Clear(userID)
		if err != nil {
			logger.Error().Err(err).Str("contest_id", st.ContestID).Msg("Failed to load contest for winner selection")
			return text("❌ Something went wrong. Start again with /start.")
		}
		return msg
	}

	winners, err := c.selector.Select(ctx, input, contest.WinnerCount)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeValidation {
			return text(fmt.Sprintf("❌ Send exactly %s winners as usernames or IDs separated by commas.", appErr.Detail("expected")))
		}
		c.sessions.Clear(userID)
		logger.Error().Err(err).Str("contest_id", st.ContestID).Msg("Winner resolution failed")
		return text("❌ Something went wrong. Start again with /start.")
	}

	c.sessions.Set(userID, AwaitingResultsLink{ContestID: st.ContestID, Reroll: st.Reroll, Winners: winners})
	return text(mapper.LinkPrompt(winners, NoLink))
}

// ParseResultsLink accepts the NoLink answer or an http(s) URL.
func ParseResultsLink(input string) (link string, ok bool) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, NoLink) {
		return "", true
	}
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return input, true
	}
	return "", false
}

func (c *Controller) publishResults(ctx context.Context, userID int64, st AwaitingResultsLink, input string) []chat.Message {
	link, ok := ParseResultsLink(input)
	if !ok {
		return text(fmt.Sprintf("❌ The link must start with http:// or https:// (or send '%s').", NoLink))
	}

	defer c.sessions.Clear(userID)

	contest, msg, err := c.loadOwned(ctx, userID, st.ContestID)
	if err != nil {
		logger.Error().Err(err).Str("contest_id", st.ContestID).Msg("Failed to load contest for results")
		return text("❌ Something went wrong. Start again with /start.")
	}
	if msg != nil {
		return msg
	}

	log := logger.ForContest(contest.ID)
	post := chat.MessageRef{ChatID: contest.ChannelID, MessageID: contest.MessageID}
	if err := c.posts.Edit(ctx, post, mapper.Results(contest, st.Winners, link)); err != nil {
		log.Error().Err(err).Msg("Failed to edit contest post with results")
		return text("❌ Failed to publish the results. Start again with /start.")
	}

	if err := c.repo.CloseWithResults(ctx, contest.ID, st.Winners, link); err != nil {
		log.Error().Err(err).Msg("Failed to store contest results")
		return text("❌ The post was updated but the results could not be saved. Start again with /start.")
	}

	log.Info().
		Int("winners", len(st.Winners)).
		Bool("reroll", st.Reroll).
		Msg("Contest results published")
	return text("✅ Results published in the original post!")
}
