// Package chat describes the chat platform capabilities the contest core
// consumes. Implementations live in platform/telegram; tests use chattest.
package chat

import (
	"context"
	"strconv"
	"strings"
)

// Chat is a resolved channel, group or private chat.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// User is a platform identity with display data.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// FullName joins first and last name the way the platform displays them.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// MemberStatus is the raw membership status reported for (chat, user).
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// Member is the membership record of a user in a chat.
type Member struct {
	Status MemberStatus `json:"status"`
	// IsMember is only meaningful for restricted members.
	IsMember bool `json:"is_member"`
}

// Button is an inline keyboard button: either a callback or a URL button.
type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

// Column lays buttons out one per row.
func Column(buttons ...Button) Keyboard {
	kb := make(Keyboard, 0, len(buttons))
	for _, b := range buttons {
		kb = append(kb, []Button{b})
	}
	return kb
}

// Message is finished content: text plus optional buttons.
type Message struct {
	Text     string
	Keyboard Keyboard
}

// MessageRef identifies a delivered message.
type MessageRef struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

// InlineArticle is one inline query result.
type InlineArticle struct {
	ID          string
	Title       string
	Description string
	Message     Message
}

// Dispatcher delivers and edits content.
type Dispatcher interface {
	Send(ctx context.Context, chatID int64, msg Message) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, msg Message) error
}

// Directory resolves identities and memberships.
type Directory interface {
	// ResolveChat accepts "@username", "username" or a numeric chat id.
	ResolveChat(ctx context.Context, handle string) (*Chat, error)
	GetMember(ctx context.Context, chatID, userID int64) (*Member, error)
	ResolveIdentity(ctx context.Context, userID int64) (*User, error)
}

// Responder answers interactive requests.
type Responder interface {
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	AnswerInline(ctx context.Context, queryID string, results []InlineArticle) error
	ClearKeyboard(ctx context.Context, ref MessageRef) error
	Delete(ctx context.Context, ref MessageRef) error
}

// Platform is everything the bot needs from the chat platform.
type Platform interface {
	Dispatcher
	Directory
	Responder
}

// NormalizeHandle turns user input into a ResolveChat argument:
// numeric ids pass through, names get a single leading "@".
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if _, err := strconv.ParseInt(handle, 10, 64); err == nil {
		return handle
	}
	return "@" + strings.TrimLeft(handle, "@")
}
