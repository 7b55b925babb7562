package telegram

import "contest-bot/internal/platform/chat"

// Update is one getUpdates entry. Only the kinds the bot subscribes to are decoded.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
	InlineQuery   *InlineQuery   `json:"inline_query,omitempty"`
}

type Message struct {
	MessageID int64      `json:"message_id"`
	From      *chat.User `json:"from,omitempty"`
	Chat      chat.Chat  `json:"chat"`
	Text      string     `json:"text,omitempty"`
}

type CallbackQuery struct {
	ID      string    `json:"id"`
	From    chat.User `json:"from"`
	Message *Message  `json:"message,omitempty"`
	Data    string    `json:"data,omitempty"`
}

type InlineQuery struct {
	ID    string    `json:"id"`
	From  chat.User `json:"from"`
	Query string    `json:"query"`
}

func (m *Message) incoming() chat.IncomingMessage {
	in := chat.IncomingMessage{MessageID: m.MessageID, Chat: m.Chat, Text: m.Text}
	if m.From != nil {
		in.From = *m.From
	}
	return in
}

func (q *CallbackQuery) callback() chat.Callback {
	cb := chat.Callback{ID: q.ID, From: q.From, Data: q.Data}
	if q.Message != nil {
		cb.Message = &chat.MessageRef{ChatID: q.Message.Chat.ID, MessageID: q.Message.MessageID}
		cb.ChatType = q.Message.Chat.Type
	}
	return cb
}

func (q *InlineQuery) inline() chat.InlineQuery {
	return chat.InlineQuery{ID: q.ID, From: q.From, Query: q.Query}
}
