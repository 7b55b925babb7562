package mapper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/platform/chat"
)

func standard() *models.Contest {
	return &models.Contest{
		ID:               "123456",
		Conditions:       "Comment under the post",
		SubscriptionText: "Subscribe to both channels",
		Channels:         []string{"c1", "c2"},
		WinnerCount:      2,
		ChannelUsername:  "target",
		CreatorID:        7,
		Active:           true,
	}
}

func fast() *models.Contest {
	return &models.Contest{
		ID:              "F123456",
		Conditions:      "Test",
		Channels:        []string{"MyChannel"},
		WinnerCount:     3,
		ChannelUsername: "MyChannel",
		CreatorID:       7,
		Active:          true,
		Fast:            true,
		DurationMinutes: 5,
	}
}

func TestSummaryCarriesDraftFields(t *testing.T) {
	d := Draft{
		Conditions:       "Comment under the post",
		SubscriptionText: "Subscribe to both channels",
		Channels:         []string{"c1", "c2"},
		WinnerCount:      2,
	}
	msg := Confirmation(d)

	assert.Contains(t, msg.Text, "Comment under the post")
	assert.Contains(t, msg.Text, "Subscribe to both channels")
	assert.Contains(t, msg.Text, "@c1, @c2")
	assert.Contains(t, msg.Text, "Winners: 2")
	require.Len(t, msg.Keyboard, 1)
	assert.Equal(t, "confirm:2", msg.Keyboard[0][0].Data)
	assert.Equal(t, "cancel", msg.Keyboard[0][1].Data)
}

func TestAnnouncement(t *testing.T) {
	c := standard()
	msg := Announcement(c)

	assert.Contains(t, msg.Text, "Comment under the post")
	assert.Contains(t, msg.Text, "Subscribe to both channels")
	assert.Contains(t, msg.Text, "Subscribe to: @c1, @c2")
	assert.Contains(t, msg.Text, "Winners: 2")
	assert.Equal(t, chat.Column(chat.Button{Text: "🎁 Join", Data: "join:123456"}), msg.Keyboard)

	c.Active = false
	assert.Empty(t, Announcement(c).Keyboard)
}

func TestFastAnnouncement(t *testing.T) {
	msg := Announcement(fast())

	assert.Contains(t, msg.Text, "FAST CONTEST")
	assert.Contains(t, msg.Text, "Conditions: Test")
	assert.Contains(t, msg.Text, "Subscribe to: @MyChannel")
	assert.Contains(t, msg.Text, "Winners: 3")
	assert.Contains(t, msg.Text, "Duration: 5 minutes")
	assert.Equal(t, "join:F123456", msg.Keyboard[0][0].Data)
}

func TestResults(t *testing.T) {
	c := standard()
	winners := []models.Winner{{Username: "u1", Name: "u1"}, {UserID: 999, Name: "User 999"}}

	msg := Results(c, winners, "")
	assert.Contains(t, msg.Text, AnnouncementText(c))
	assert.Contains(t, msg.Text, "🏆 Contest winners: @u1, User 999")
	assert.Empty(t, msg.Keyboard)

	msg = Results(c, winners, "https://example.com/r")
	require.Len(t, msg.Keyboard, 1)
	assert.Equal(t, "https://example.com/r", msg.Keyboard[0][0].URL)
	assert.Empty(t, msg.Keyboard[0][0].Data)
}

func TestContestMenu(t *testing.T) {
	msg := ContestMenu([]*models.Contest{standard(), fast()}, false)
	require.Len(t, msg.Keyboard, 3)
	assert.Equal(t, "Contest in @target (ID: 123456)", msg.Keyboard[0][0].Text)
	assert.Equal(t, "pick:123456", msg.Keyboard[0][0].Data)
	assert.Equal(t, "Fast contest in @MyChannel (ID: F123456)", msg.Keyboard[1][0].Text)
	assert.Equal(t, "cancel_pick", msg.Keyboard[2][0].Data)

	msg = ContestMenu([]*models.Contest{standard()}, true)
	assert.Equal(t, "reroll:123456", msg.Keyboard[0][0].Data)
	assert.Equal(t, "cancel_reroll", msg.Keyboard[1][0].Data)
}

func TestStartMenu(t *testing.T) {
	data := func(m chat.Message) []string {
		var out []string
		for _, row := range m.Keyboard {
			out = append(out, row[0].Data)
		}
		return out
	}

	assert.Equal(t, []string{"new_contest"}, data(StartMenu(false, false, false)))
	assert.Equal(t, []string{"new_contest", "pick", "reroll_winners", "stats"}, data(StartMenu(true, true, true)))
	assert.Equal(t, []string{"new_contest", "reroll_winners"}, data(StartMenu(false, true, false)))
}

func TestParticipantList(t *testing.T) {
	text := ParticipantList([]models.Participant{
		{UserID: 1, Username: "alice", Name: "Alice"},
		{UserID: 2, Name: "Bob"},
	})
	assert.Contains(t, text, "1. @alice (1)\n2. Bob (2)")
}

func TestOperatorNoticeAndConfirmation(t *testing.T) {
	notice := OperatorNotice(fast())
	assert.Contains(t, notice, "FAST contest created (ID: F123456)")
	assert.Contains(t, notice, "Duration: 5 minutes")

	assert.NotContains(t, OperatorNotice(standard()), "Duration")

	text := CreatorConfirmation(standard(), "giveawaybot")
	assert.Contains(t, text, "@target")
	assert.Contains(t, text, "@giveawaybot 123456")
}

func TestStatsText(t *testing.T) {
	text := StatsText(&models.Stats{Contests: 2, Participants: 5, UniqueUsers: 4})
	assert.Contains(t, text, "Total contests: 2")
	assert.Contains(t, text, "Total participants: 5")
	assert.Contains(t, text, "Unique users: 4")
}

func TestInlineArticle(t *testing.T) {
	c := standard()
	article := InlineArticle("r1", c)
	assert.Equal(t, "r1", article.ID)
	assert.Equal(t, "Contest in @target (ID: 123456)", article.Title)
	assert.Equal(t, c.Conditions, article.Description)
	assert.Equal(t, Announcement(c), article.Message)

	c.Conditions = strings.Repeat("я", 120)
	article = InlineArticle("r2", c)
	assert.Equal(t, strings.Repeat("я", 100)+"...", article.Description)
}
