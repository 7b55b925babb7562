package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	channelservice "contest-bot/internal/features/channel/service"
	"contest-bot/internal/features/contest/fast"
	"contest-bot/internal/features/contest/flow"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/features/contest/repository/memory"
	"contest-bot/internal/features/contest/service"
	"contest-bot/internal/features/contest/winners"
	"contest-bot/internal/features/notification"
	"contest-bot/internal/features/operator"
	"contest-bot/internal/platform/chat"
	"contest-bot/internal/platform/chat/chattest"
)

const (
	creatorID  = int64(7)
	userID     = int64(42)
	chanC1     = int64(-1001)
	chanTarget = int64(-1500)
	groupID    = int64(-2000)
)

type fixture struct {
	platform *chattest.Platform
	repo     *memory.Repository
	handler  *Handler
	ids      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	p := chattest.New()
	p.AddChannel(chanC1, "c1")
	p.AddChannel(chanTarget, "target")
	p.SetMember(chanTarget, creatorID, chat.StatusCreator)

	repo := memory.NewRepository()
	operators := operator.NewSet([]int64{creatorID})
	gate := channelservice.NewGate(p)
	publisher := service.NewPublisher(repo, p, notification.NewService(p, operators), "contestbot")
	controller := flow.NewController(flow.NewStore(time.Hour), repo, gate, publisher,
		winners.NewSelector(p), p, operators)

	f := &fixture{platform: p, repo: repo}
	f.handler = NewHandler(p, service.NewService(repo, gate, operators), controller,
		fast.NewBuilder(gate, publisher), "contestbot")
	f.handler.newID = func() string {
		f.ids++
		return fmt.Sprintf("result-%d", f.ids)
	}
	return f
}

func private(id int64, text string) chat.IncomingMessage {
	return chat.IncomingMessage{
		MessageID: 1,
		Chat:      chat.Chat{ID: id, Type: chat.ChatTypePrivate},
		From:      chat.User{ID: id, FirstName: "Creator"},
		Text:      text,
	}
}

func privateCallback(id int64, data string) chat.Callback {
	return chat.Callback{
		ID:       "cb-" + data,
		From:     chat.User{ID: id},
		Data:     data,
		Message:  &chat.MessageRef{ChatID: id, MessageID: 50},
		ChatType: chat.ChatTypePrivate,
	}
}

func (f *fixture) inline(t *testing.T, query string) chat.InlineArticle {
	t.Helper()
	id := fmt.Sprintf("q-%d", len(f.platform.InlineAnswers))
	f.handler.HandleInline(context.Background(), chat.InlineQuery{ID: id, From: chat.User{ID: creatorID}, Query: query})
	answers := f.platform.InlineAnswers[id]
	require.Len(t, answers, 1)
	return answers[0]
}

func TestStartOnlyInPrivateChats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.handler.HandleMessage(ctx, private(userID, "/start"))
	menu, ok := f.platform.LastSentTo(userID)
	require.True(t, ok)
	assert.Equal(t, "new_contest", menu.Keyboard[0][0].Data)

	f.handler.HandleMessage(ctx, chat.IncomingMessage{
		Chat: chat.Chat{ID: groupID, Type: "group"},
		From: chat.User{ID: userID},
		Text: "/start@contestbot",
	})
	assert.Empty(t, f.platform.SentTo(groupID))
}

func TestTextWithoutSessionIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.handler.HandleMessage(context.Background(), private(userID, "hello"))
	assert.Empty(t, f.platform.Sent)
}

func TestCreateAndJoinThroughHandler(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.handler.HandleCallback(ctx, privateCallback(creatorID, "new_contest"))
	require.Len(t, f.platform.Deleted, 1)
	for _, text := range []string{"Comment under the post", "Subscribe to c1", "@c1", "1"} {
		f.handler.HandleMessage(ctx, private(creatorID, text))
	}
	summary, _ := f.platform.LastSentTo(creatorID)
	assert.Equal(t, "confirm:1", summary.Keyboard[0][0].Data)

	f.handler.HandleCallback(ctx, privateCallback(creatorID, "confirm:1"))
	assert.Len(t, f.platform.Cleared, 1)
	f.handler.HandleMessage(ctx, private(creatorID, "@target"))

	active, err := f.repo.ListActiveByCreator(ctx, creatorID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	c := active[0]

	join := chat.Callback{
		ID:       "join-1",
		From:     chat.User{ID: userID, Username: "alice"},
		Data:     "join:" + c.ID,
		Message:  &chat.MessageRef{ChatID: chanTarget, MessageID: c.MessageID},
		ChatType: "channel",
	}
	f.handler.HandleCallback(ctx, join)
	last := f.platform.CallbackAnswers[len(f.platform.CallbackAnswers)-1]
	assert.True(t, last.Alert)
	assert.Contains(t, last.Text, "You are not subscribed to @c1")

	f.platform.SetMember(chanC1, userID, chat.StatusMember)
	f.handler.HandleCallback(ctx, join)
	last = f.platform.CallbackAnswers[len(f.platform.CallbackAnswers)-1]
	assert.Equal(t, "You are in the contest!", last.Text)

	f.handler.HandleCallback(ctx, join)
	last = f.platform.CallbackAnswers[len(f.platform.CallbackAnswers)-1]
	assert.Equal(t, "You are already participating!", last.Text)
}

func TestCallbacksAreAlwaysAnswered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.handler.HandleCallback(ctx, privateCallback(userID, "bogus"))
	f.handler.HandleCallback(ctx, privateCallback(userID, "cancel"))
	require.Len(t, f.platform.CallbackAnswers, 2)
	assert.True(t, f.platform.CallbackAnswers[0].Alert)
	assert.Equal(t, "cb-cancel", f.platform.CallbackAnswers[1].ID)

	reply, ok := f.platform.LastSentTo(userID)
	require.True(t, ok)
	assert.Contains(t, reply.Text, "cancelled")
}

func TestPrivateOnlyCallbacks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, data := range []string{"new_contest", "pick", "reroll_winners"} {
		f.handler.HandleCallback(ctx, chat.Callback{
			ID:       data,
			From:     chat.User{ID: creatorID},
			Data:     data,
			Message:  &chat.MessageRef{ChatID: groupID, MessageID: 9},
			ChatType: "group",
		})
	}
	assert.Len(t, f.platform.SentTo(groupID), 3)
	assert.Empty(t, f.platform.Deleted)

	f.handler.HandleMessage(ctx, private(creatorID, "Some text"))
	assert.Empty(t, f.platform.SentTo(creatorID), "no session must have started")
}

func TestStatsCallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.handler.HandleCallback(ctx, privateCallback(userID, "stats"))
	reply, _ := f.platform.LastSentTo(userID)
	assert.Equal(t, "❌ Operators only.", reply.Text)

	f.handler.HandleCallback(ctx, privateCallback(creatorID, "stats"))
	reply, _ = f.platform.LastSentTo(creatorID)
	assert.Contains(t, reply.Text, "Total contests: 0")
}

func TestPickCallbackEntersSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.inline(t, "conc Quick one 1 5 @target")
	active, err := f.repo.ListActiveByCreator(ctx, creatorID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	c := active[0]

	f.handler.HandleCallback(ctx, privateCallback(creatorID, "pick"))
	menu, _ := f.platform.LastSentTo(creatorID)
	assert.Equal(t, "pick:"+c.ID, menu.Keyboard[0][0].Data)

	f.handler.HandleCallback(ctx, privateCallback(creatorID, "pick:"+c.ID))
	reply, _ := f.platform.LastSentTo(creatorID)
	assert.Contains(t, reply.Text, "no participants")

	_, err = f.repo.AddParticipant(ctx, c.ID, models.Participant{UserID: userID, Name: "Alice"})
	require.NoError(t, err)
	f.handler.HandleCallback(ctx, privateCallback(creatorID, "pick:"+c.ID))
	reply, _ = f.platform.LastSentTo(creatorID)
	assert.Contains(t, reply.Text, "1. Alice (42)")

	f.handler.HandleMessage(ctx, private(creatorID, "42"))
	f.handler.HandleMessage(ctx, private(creatorID, "no"))

	got, err := f.repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	require.Len(t, got.Winners, 1)
	assert.Equal(t, userID, got.Winners[0].UserID)
}

func TestInlineHints(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "Enter a 6-digit contest ID", f.inline(t, "  ").Title)
	assert.Equal(t, "Unknown command", f.inline(t, "CONCU").Title)
	assert.Equal(t, "Invalid command or ID", f.inline(t, "12345").Title)
	assert.Equal(t, "Contest not found", f.inline(t, "F000001").Title)

	missing := f.inline(t, "conc Test 3 5")
	assert.Equal(t, "Channel missing", missing.Title)
	assert.Contains(t, missing.Message.Text, "Channel is required")

	bad := f.inline(t, "conc Test 0 5 @target")
	assert.Equal(t, "Invalid format", bad.Title)

	assert.Empty(t, f.platform.SentTo(chanTarget))
}

func TestInlineFastCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := f.inline(t, "conc Test 3 5 @target")
	assert.Regexp(t, `^Fast contest in @target \(ID: F\d{6}\)$`, created.Title)
	assert.Equal(t, "Test", created.Description)
	require.NotEmpty(t, created.Message.Keyboard)

	active, err := f.repo.ListActiveByCreator(ctx, creatorID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	c := active[0]
	assert.True(t, c.Fast)
	assert.Equal(t, 3, c.WinnerCount)
	assert.Equal(t, 5, c.DurationMinutes)
	assert.Equal(t, []string{"target"}, c.Channels)

	post, ok := f.platform.LastSentTo(chanTarget)
	require.True(t, ok)
	assert.Equal(t, "join:"+c.ID, post.Keyboard[0][0].Data)

	found := f.inline(t, c.ID)
	assert.Equal(t, created.Title, found.Title)
	assert.NotEqual(t, created.ID, found.ID)

	require.NoError(t, f.repo.Close(ctx, c.ID))
	assert.Empty(t, f.inline(t, c.ID).Message.Keyboard)
}

func TestInlineFastCreateRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	f.platform.AddChannel(-1600, "other")

	denied := f.inline(t, "conc Test 3 5 @other")
	assert.Equal(t, "Error", denied.Title)
	assert.Contains(t, denied.Message.Text, "not an administrator of @other")

	f.platform.FailChat("broken")
	failed := f.inline(t, "conc Test 3 5 @broken")
	assert.Contains(t, failed.Message.Text, "Could not reach @broken")

	assert.Empty(t, f.platform.SentTo(-1600))
	active, err := f.repo.ListActiveByCreator(context.Background(), creatorID)
	require.NoError(t, err)
	assert.Empty(t, active)
}
