// Package mapper renders contests into chat content.
package mapper

import (
	"fmt"
	"strings"

	"contest-bot/internal/features/contest/action"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/platform/chat"
)

// Draft is what the creation flow collected before publication.
type Draft struct {
	Conditions       string
	SubscriptionText string
	Channels         []string
	WinnerCount      int
}

// Handles renders channels as "@a, @b".
func Handles(channels []string) string {
	out := make([]string, len(channels))
	for i, ch := range channels {
		out[i] = "@" + strings.TrimLeft(ch, "@")
	}
	return strings.Join(out, ", ")
}

// Summary is the confirmation text shown to the creator.
func Summary(d Draft) string {
	return fmt.Sprintf("📋 Check the contest details:\n\n"+
		"📌 Text: %s\n"+
		"📋 Subscription conditions: %s\n"+
		"📢 Channels: %s\n"+
		"🏆 Winners: %d",
		d.Conditions, d.SubscriptionText, Handles(d.Channels), d.WinnerCount)
}

// Confirmation is the summary with confirm and cancel buttons.
func Confirmation(d Draft) chat.Message {
	return chat.Message{
		Text: Summary(d),
		Keyboard: chat.Keyboard{{
			{Text: "✅ Confirm", Data: action.Confirm{Count: d.WinnerCount}.Data()},
			{Text: "❌ Cancel", Data: action.Cancel{}.Data()},
		}},
	}
}

// AnnouncementText is the body of the channel post.
func AnnouncementText(c *models.Contest) string {
	if c.Fast {
		return fmt.Sprintf("🎉 FAST CONTEST 🎉\n\n"+
			"Conditions: %s\n\n"+
			"Subscribe to: %s\n\n"+
			"Winners: %d\n\n"+
			"Duration: %d minutes",
			c.Conditions, Handles(c.Channels), c.WinnerCount, c.DurationMinutes)
	}

	var b strings.Builder
	b.WriteString("🎉 CONTEST 🎉\n\n")
	fmt.Fprintf(&b, "Conditions: %s\n\n", c.Conditions)
	if c.SubscriptionText != "" {
		fmt.Fprintf(&b, "%s\n\n", c.SubscriptionText)
	}
	fmt.Fprintf(&b, "Subscribe to: %s\n\n", Handles(c.Channels))
	fmt.Fprintf(&b, "Winners: %d", c.WinnerCount)
	return b.String()
}

// JoinButton is the participation button for contestID.
func JoinButton(contestID string) chat.Button {
	return chat.Button{Text: "🎁 Join", Data: action.Join{ContestID: contestID}.Data()}
}

// Announcement is the channel post. Only active contests carry the join button.
func Announcement(c *models.Contest) chat.Message {
	msg := chat.Message{Text: AnnouncementText(c)}
	if c.Active {
		msg.Keyboard = chat.Column(JoinButton(c.ID))
	}
	return msg
}

// WinnersText lists winners in input order.
func WinnersText(winners []models.Winner) string {
	labels := make([]string, len(winners))
	for i, w := range winners {
		labels[i] = w.Label()
	}
	return "🏆 Contest winners: " + strings.Join(labels, ", ")
}

// Results is the edited channel post after winners are published.
func Results(c *models.Contest, winners []models.Winner, link string) chat.Message {
	msg := chat.Message{Text: AnnouncementText(c) + "\n\n" + WinnersText(winners)}
	if link != "" {
		msg.Keyboard = chat.Column(chat.Button{Text: "🔍 Check results", URL: link})
	}
	return msg
}

// Label names a contest in menus and inline results.
func Label(c *models.Contest) string {
	kind := "Contest"
	if c.Fast {
		kind = "Fast contest"
	}
	return fmt.Sprintf("%s in @%s (ID: %s)", kind, c.ChannelUsername, c.ID)
}

// ContestMenu lists contests for winner selection or reroll.
func ContestMenu(contests []*models.Contest, reroll bool) chat.Message {
	text := "📋 Choose a contest to pick winners:"
	cancel := chat.Button{Text: "Cancel", Data: action.CancelPick{}.Data()}
	if reroll {
		text = "📋 Choose a contest to reroll winners:"
		cancel = chat.Button{Text: "Cancel", Data: action.CancelReroll{}.Data()}
	}

	buttons := make([]chat.Button, 0, len(contests)+1)
	for _, c := range contests {
		var a action.Action = action.Pick{ContestID: c.ID}
		if reroll {
			a = action.Reroll{ContestID: c.ID}
		}
		buttons = append(buttons, chat.Button{Text: Label(c), Data: a.Data()})
	}
	buttons = append(buttons, cancel)
	return chat.Message{Text: text, Keyboard: chat.Column(buttons...)}
}

// StartMenu is the /start keyboard.
func StartMenu(hasActive, hasFinished, operator bool) chat.Message {
	buttons := []chat.Button{{Text: "🎉 Create contest", Data: action.NewContest{}.Data()}}
	if hasActive {
		buttons = append(buttons, chat.Button{Text: "🏆 Pick winners", Data: action.PickMenu{}.Data()})
	}
	if hasFinished {
		buttons = append(buttons, chat.Button{Text: "🔄 Reroll winners", Data: action.RerollMenu{}.Data()})
	}
	if operator {
		buttons = append(buttons, chat.Button{Text: "📊 Statistics", Data: action.Stats{}.Data()})
	}
	return chat.Message{Text: "👋 Hi! I run contests in your channels.", Keyboard: chat.Column(buttons...)}
}

// ParticipantList is the numbered reference list shown before winner input.
func ParticipantList(participants []models.Participant) string {
	var b strings.Builder
	b.WriteString("📋 Contest participants (for reference):\n\n")
	for i, p := range participants {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, p.Label())
	}
	return b.String()
}

// WinnerPrompt asks the creator for winners.
func WinnerPrompt(participants []models.Participant) string {
	return ParticipantList(participants) + "\n\n" +
		"🔢 Send the winners' usernames or IDs separated by commas " +
		"(for example: @username1, @username2 or 123456789, 987654321):"
}

// LinkPrompt confirms the chosen winners and asks for a results link.
func LinkPrompt(winners []models.Winner, noLink string) string {
	return fmt.Sprintf("📋 You picked:\n\n%s\n\n🔗 Send a link for the 'Check results' button (or '%s' if there is none):",
		WinnersText(winners), noLink)
}

// StatsText renders operator statistics.
func StatsText(s *models.Stats) string {
	return fmt.Sprintf("📊 Bot statistics:\n"+
		"Total contests: %d\n"+
		"Total participants: %d\n"+
		"Unique users: %d",
		s.Contests, s.Participants, s.UniqueUsers)
}

// OperatorNotice reports a new contest to operators.
func OperatorNotice(c *models.Contest) string {
	kind := "contest"
	if c.Fast {
		kind = "FAST contest"
	}
	text := fmt.Sprintf("🆕 New %s created (ID: %s)\n"+
		"Channel: @%s\n"+
		"Conditions: %s\n"+
		"Subscribe to: %s\n"+
		"Winners: %d",
		kind, c.ID, c.ChannelUsername, c.Conditions, Handles(c.Channels), c.WinnerCount)
	if c.Fast {
		text += fmt.Sprintf("\nDuration: %d minutes", c.DurationMinutes)
	}
	return text
}

// CreatorConfirmation tells the creator where the contest went and how to share it.
func CreatorConfirmation(c *models.Contest, botUsername string) string {
	kind := "Contest"
	if c.Fast {
		kind = "FAST contest"
	}
	return fmt.Sprintf("✅ %s published in @%s!\nContest ID: %s\nUse @%s %s in inline mode to share the contest.",
		kind, c.ChannelUsername, c.ID, botUsername, c.ID)
}

// InlineArticle is the inline lookup result for a contest.
func InlineArticle(resultID string, c *models.Contest) chat.InlineArticle {
	return chat.InlineArticle{
		ID:          resultID,
		Title:       Label(c),
		Description: truncate(c.Conditions, inlineDescriptionLimit),
		Message:     Announcement(c),
	}
}

const inlineDescriptionLimit = 100

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
