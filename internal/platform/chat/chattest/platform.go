// Package chattest provides an in-memory chat platform for tests.
package chattest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"contest-bot/internal/platform/chat"
)

var ErrUnavailable = errors.New("chattest: unavailable")

// Sent is a message delivered through the fake.
type Sent struct {
	Ref     chat.MessageRef
	Message chat.Message
}

// CallbackAnswer records an AnswerCallback call.
type CallbackAnswer struct {
	ID    string
	Text  string
	Alert bool
}

// Platform implements chat.Platform in memory.
type Platform struct {
	mu sync.Mutex

	chats      map[string]*chat.Chat
	members    map[[2]int64]chat.MemberStatus
	identities map[int64]*chat.User

	failChats   map[string]bool
	failMembers map[int64]bool
	failSendTo  map[int64]bool
	failEdit    bool

	nextMessageID int64

	Sent            []Sent
	Edits           []Sent
	Cleared         []chat.MessageRef
	Deleted         []chat.MessageRef
	CallbackAnswers []CallbackAnswer
	InlineAnswers   map[string][]chat.InlineArticle
}

func New() *Platform {
	return &Platform{
		chats:         make(map[string]*chat.Chat),
		members:       make(map[[2]int64]chat.MemberStatus),
		identities:    make(map[int64]*chat.User),
		failChats:     make(map[string]bool),
		failMembers:   make(map[int64]bool),
		failSendTo:    make(map[int64]bool),
		nextMessageID: 100,
		InlineAnswers: make(map[string][]chat.InlineArticle),
	}
}

// AddChannel registers a resolvable channel.
func (p *Platform) AddChannel(id int64, username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &chat.Chat{ID: id, Type: "channel", Title: username, Username: username}
	p.chats[strings.ToLower(username)] = c
	p.chats[fmt.Sprint(id)] = c
}

// SetMember sets the status of userID in chatID.
func (p *Platform) SetMember(chatID, userID int64, status chat.MemberStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[[2]int64{chatID, userID}] = status
}

// AddIdentity registers a resolvable user.
func (p *Platform) AddIdentity(u chat.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identities[u.ID] = &u
}

// FailChat makes ResolveChat fail for the handle.
func (p *Platform) FailChat(handle string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failChats[strings.ToLower(strings.TrimPrefix(handle, "@"))] = true
}

// FailMembers makes GetMember fail for chatID.
func (p *Platform) FailMembers(chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failMembers[chatID] = true
}

// FailSendTo makes Send fail for chatID.
func (p *Platform) FailSendTo(chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failSendTo[chatID] = true
}

// FailEdits makes every Edit fail.
func (p *Platform) FailEdits() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failEdit = true
}

func (p *Platform) ResolveChat(_ context.Context, handle string) (*chat.Chat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := strings.ToLower(strings.TrimPrefix(handle, "@"))
	if p.failChats[key] {
		return nil, ErrUnavailable
	}
	c, ok := p.chats[key]
	if !ok {
		return nil, fmt.Errorf("chat %s not found", handle)
	}
	cp := *c
	return &cp, nil
}

func (p *Platform) GetMember(_ context.Context, chatID, userID int64) (*chat.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failMembers[chatID] {
		return nil, ErrUnavailable
	}
	status, ok := p.members[[2]int64{chatID, userID}]
	if !ok {
		status = chat.StatusLeft
	}
	return &chat.Member{Status: status}, nil
}

func (p *Platform) ResolveIdentity(_ context.Context, userID int64) (*chat.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.identities[userID]
	if !ok {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	cp := *u
	return &cp, nil
}

func (p *Platform) Send(_ context.Context, chatID int64, msg chat.Message) (chat.MessageRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failSendTo[chatID] {
		return chat.MessageRef{}, ErrUnavailable
	}
	p.nextMessageID++
	ref := chat.MessageRef{ChatID: chatID, MessageID: p.nextMessageID}
	p.Sent = append(p.Sent, Sent{Ref: ref, Message: msg})
	return ref, nil
}

func (p *Platform) Edit(_ context.Context, ref chat.MessageRef, msg chat.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failEdit {
		return ErrUnavailable
	}
	p.Edits = append(p.Edits, Sent{Ref: ref, Message: msg})
	return nil
}

func (p *Platform) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallbackAnswers = append(p.CallbackAnswers, CallbackAnswer{ID: callbackID, Text: text, Alert: alert})
	return nil
}

func (p *Platform) AnswerInline(_ context.Context, queryID string, results []chat.InlineArticle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.InlineAnswers[queryID] = results
	return nil
}

func (p *Platform) ClearKeyboard(_ context.Context, ref chat.MessageRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cleared = append(p.Cleared, ref)
	return nil
}

func (p *Platform) Delete(_ context.Context, ref chat.MessageRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Deleted = append(p.Deleted, ref)
	return nil
}

// SentTo returns messages delivered to chatID in order.
func (p *Platform) SentTo(chatID int64) []chat.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []chat.Message
	for _, s := range p.Sent {
		if s.Ref.ChatID == chatID {
			out = append(out, s.Message)
		}
	}
	return out
}

// LastSentTo returns the last message delivered to chatID.
func (p *Platform) LastSentTo(chatID int64) (chat.Message, bool) {
	msgs := p.SentTo(chatID)
	if len(msgs) == 0 {
		return chat.Message{}, false
	}
	return msgs[len(msgs)-1], true
}

var _ chat.Platform = (*Platform)(nil)
