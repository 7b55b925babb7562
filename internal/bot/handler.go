// Package bot routes inbound chat events to the contest features.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/features/contest/action"
	"contest-bot/internal/features/contest/fast"
	"contest-bot/internal/features/contest/flow"
	"contest-bot/internal/features/contest/mapper"
	"contest-bot/internal/features/contest/service"
	"contest-bot/internal/platform/chat"
)

const startCommand = "/start"

// Handler turns messages, button presses and inline queries into calls on
// the contest features and delivers their replies.
type Handler struct {
	platform    chat.Platform
	contests    *service.Service
	flow        *flow.Controller
	builder     *fast.Builder
	botUsername string
	newID       func() string
}

func NewHandler(
	platform chat.Platform,
	contests *service.Service,
	controller *flow.Controller,
	builder *fast.Builder,
	botUsername string,
) *Handler {
	return &Handler{
		platform:    platform,
		contests:    contests,
		flow:        controller,
		builder:     builder,
		botUsername: botUsername,
		newID:       uuid.NewString,
	}
}

// HandleMessage serves /start and feeds private text into the user's flow.
func (h *Handler) HandleMessage(ctx context.Context, m chat.IncomingMessage) {
	if m.Chat.Type != chat.ChatTypePrivate {
		return
	}

	if isCommand(m.Text, startCommand) {
		menu, err := h.contests.StartMenu(ctx, m.From.ID)
		if err != nil {
			logger.Error().Err(err).Int64("user_id", m.From.ID).Msg("Failed to build start menu")
			h.reply(ctx, m.Chat.ID, chat.Message{Text: "❌ Something went wrong, try again later."})
			return
		}
		h.reply(ctx, m.Chat.ID, menu)
		return
	}

	replies, ok := h.flow.HandleText(ctx, m.From.ID, m.Text)
	if !ok {
		logger.Debug().Int64("user_id", m.From.ID).Msg("Text outside of a conversation ignored")
		return
	}
	h.reply(ctx, m.Chat.ID, replies...)
}

// isCommand matches "/cmd", "/cmd@bot" and "/cmd payload".
func isCommand(text, cmd string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return name == cmd
}

// HandleCallback dispatches a button press. The callback is always answered.
func (h *Handler) HandleCallback(ctx context.Context, cb chat.Callback) {
	a, err := action.Parse(cb.Data)
	if err != nil {
		logger.Warn().Err(err).Int64("user_id", cb.From.ID).Str("data", cb.Data).Msg("Unknown callback")
		h.answer(ctx, cb, "⚠️ This button is no longer supported.", true)
		return
	}

	if j, ok := a.(action.Join); ok {
		h.join(ctx, cb, j.ContestID)
		return
	}
	h.answer(ctx, cb, "", false)

	userID := cb.From.ID
	chatID := userID
	if cb.Message != nil {
		chatID = cb.Message.ChatID
	}

	switch a := a.(type) {
	case action.NewContest:
		if !h.private(ctx, cb, chatID, "❌ Create contests in a private chat with the bot.") {
			return
		}
		h.reply(ctx, chatID, h.flow.StartCreation(userID)...)
		h.deleteMenu(ctx, cb)

	case action.Confirm:
		h.clearKeyboard(ctx, cb)
		h.reply(ctx, chatID, h.flow.Confirm(userID, a.Count)...)

	case action.Cancel:
		h.clearKeyboard(ctx, cb)
		h.reply(ctx, chatID, h.flow.Cancel(userID)...)

	case action.PickMenu, action.RerollMenu:
		if !h.private(ctx, cb, chatID, "ℹ️ Use this command in a private chat with the bot.") {
			return
		}
		_, reroll := a.(action.RerollMenu)
		menu, err := h.contests.ContestMenu(ctx, userID, reroll)
		if err != nil {
			h.fail(ctx, chatID, err, "Failed to list contests")
			return
		}
		h.reply(ctx, chatID, menu)
		h.deleteMenu(ctx, cb)

	case action.Pick:
		h.enterSelection(ctx, cb, chatID, a.ContestID, false)

	case action.Reroll:
		h.enterSelection(ctx, cb, chatID, a.ContestID, true)

	case action.CancelPick:
		h.clearKeyboard(ctx, cb)
		h.reply(ctx, chatID, h.flow.CancelSelection(userID, false)...)

	case action.CancelReroll:
		h.clearKeyboard(ctx, cb)
		h.reply(ctx, chatID, h.flow.CancelSelection(userID, true)...)

	case action.Stats:
		stats, err := h.contests.Stats(ctx, userID)
		if apperrors.IsUnauthorized(err) {
			h.reply(ctx, chatID, chat.Message{Text: "❌ Operators only."})
			return
		}
		if err != nil {
			h.fail(ctx, chatID, err, "Failed to load statistics")
			return
		}
		h.reply(ctx, chatID, chat.Message{Text: mapper.StatsText(stats)})
		h.deleteMenu(ctx, cb)
	}
}

func (h *Handler) join(ctx context.Context, cb chat.Callback, contestID string) {
	res, err := h.contests.Join(ctx, contestID, cb.From)
	if err != nil {
		logger.Error().Err(err).Str("contest_id", contestID).Int64("user_id", cb.From.ID).Msg("Join failed")
		h.answer(ctx, cb, "⚠️ Something went wrong, try again later.", true)
		return
	}
	h.answer(ctx, cb, res.Message(), true)
}

func (h *Handler) enterSelection(ctx context.Context, cb chat.Callback, chatID int64, contestID string, reroll bool) {
	if !h.private(ctx, cb, chatID, "ℹ️ Use this command in a private chat with the bot.") {
		return
	}
	replies, err := h.flow.EnterSelection(ctx, cb.From.ID, contestID, reroll)
	if err != nil {
		h.fail(ctx, chatID, err, "Failed to start winner selection")
		return
	}
	h.clearKeyboard(ctx, cb)
	h.reply(ctx, chatID, replies...)
}

// private reports whether the button was pressed in a private chat and
// explains otherwise.
func (h *Handler) private(ctx context.Context, cb chat.Callback, chatID int64, explain string) bool {
	if cb.Message == nil || cb.ChatType == chat.ChatTypePrivate {
		return true
	}
	h.reply(ctx, chatID, chat.Message{Text: explain})
	return false
}

// HandleInline answers an inline query with exactly one article.
func (h *Handler) HandleInline(ctx context.Context, q chat.InlineQuery) {
	var article chat.InlineArticle

	switch req := ParseInline(q.Query).(type) {
	case InlineFastCreate:
		article = h.fastCreate(ctx, q.From.ID, req.Args)
	case InlineNearMiss:
		article = h.hint("Unknown command",
			"Use 'conc' to create a FAST contest.",
			"❌ Did you mean "+h.fastUsage()+"?\nExample: "+h.fastExample())
	case InlineEmpty:
		article = h.hint("Enter a 6-digit contest ID",
			"Enter a contest ID or use 'conc' to create a contest.",
			fmt.Sprintf("Enter a 6-digit contest ID, for example: @%s 123456\nOr create a FAST contest: %s",
				h.botUsername, h.fastUsage()))
	case InlineLookup:
		article = h.lookup(ctx, req.ContestID)
	case InlineMalformed:
		article = h.hint("Invalid command or ID",
			"Check the ID or use 'conc' to create a contest.",
			fmt.Sprintf("❌ Enter a 6-digit contest ID (for example: @%s 123456) or use %s\nExample: %s",
				h.botUsername, h.fastUsage(), h.fastExample()))
	}

	if err := h.platform.AnswerInline(ctx, q.ID, []chat.InlineArticle{article}); err != nil {
		logger.Error().Err(err).Str("query_id", q.ID).Msg("Failed to answer inline query")
	}
}

func (h *Handler) fastCreate(ctx context.Context, userID int64, args string) chat.InlineArticle {
	req, err := fast.Parse(args)
	if err != nil {
		logger.Debug().Err(err).Int64("user_id", userID).Msg("Invalid fast contest command")
		title := "Invalid format"
		if errors.Is(err, fast.ErrMissingChannel) {
			title = "Channel missing"
		}
		return h.hint(title, "Format: <description> <winners> <minutes> [@channel]",
			fmt.Sprintf("❌ %s\nFormat: %s\nExample: %s", capitalize(errors.Unwrap(err)), h.fastUsage(), h.fastExample()))
	}

	c, err := h.builder.Build(ctx, userID, req)
	switch {
	case apperrors.IsExternalLookup(err):
		return h.hint("Error", "Make sure the channel exists and the bot is added to it.",
			"❌ Could not reach @"+req.Channel+". Try creating the contest through /start.")
	case apperrors.IsUnauthorized(err):
		return h.hint("Error", "Only channel administrators can create contests.",
			"⚠️ Error\n❌ You are not an administrator of @"+req.Channel)
	case err != nil:
		return h.hint("Error", "Publication failed.",
			"❌ Publication failed. Try creating the contest through /start.")
	}
	return mapper.InlineArticle(h.newID(), c)
}

func (h *Handler) lookup(ctx context.Context, contestID string) chat.InlineArticle {
	c, err := h.contests.Get(ctx, contestID)
	switch {
	case apperrors.IsNotFound(err):
		return h.hint("Contest not found", "Check the contest ID or create a new contest.",
			fmt.Sprintf("❌ Contest with ID %s not found.\nOr create a FAST contest: %s", contestID, h.fastUsage()))
	case err != nil:
		logger.Error().Err(err).Str("contest_id", contestID).Msg("Inline lookup failed")
		return h.hint("Error", "Try again or create a new contest.",
			"❌ Could not load the contest.\nOr create a FAST contest: "+h.fastUsage())
	}
	return mapper.InlineArticle(h.newID(), c)
}

func (h *Handler) hint(title, description, text string) chat.InlineArticle {
	return chat.InlineArticle{
		ID:          h.newID(),
		Title:       title,
		Description: description,
		Message:     chat.Message{Text: text},
	}
}

func (h *Handler) fastUsage() string {
	return "@" + h.botUsername + " conc <description> <winners> <minutes> [@channel]"
}

func (h *Handler) fastExample() string {
	return "@" + h.botUsername + " conc Test 3 5 @MyChannel"
}

func capitalize(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	return strings.ToUpper(s[:1]) + s[1:]
}

func (h *Handler) reply(ctx context.Context, chatID int64, msgs ...chat.Message) {
	for _, m := range msgs {
		if _, err := h.platform.Send(ctx, chatID, m); err != nil {
			logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
			return
		}
	}
}

func (h *Handler) fail(ctx context.Context, chatID int64, err error, msg string) {
	logger.Error().Err(err).Int64("chat_id", chatID).Msg(msg)
	h.reply(ctx, chatID, chat.Message{Text: "❌ Something went wrong, try again later."})
}

func (h *Handler) answer(ctx context.Context, cb chat.Callback, text string, alert bool) {
	if err := h.platform.AnswerCallback(ctx, cb.ID, text, alert); err != nil {
		logger.Warn().Err(err).Str("callback_id", cb.ID).Msg("Failed to answer callback")
	}
}

func (h *Handler) clearKeyboard(ctx context.Context, cb chat.Callback) {
	if cb.Message == nil {
		return
	}
	if err := h.platform.ClearKeyboard(ctx, *cb.Message); err != nil {
		logger.Warn().Err(err).Int64("chat_id", cb.Message.ChatID).Msg("Failed to clear keyboard")
	}
}

func (h *Handler) deleteMenu(ctx context.Context, cb chat.Callback) {
	if cb.Message == nil {
		return
	}
	if err := h.platform.Delete(ctx, *cb.Message); err != nil {
		logger.Warn().Err(err).Int64("chat_id", cb.Message.ChatID).Msg("Failed to delete menu")
	}
}
