package chat

// ChatTypePrivate is the type of a one-to-one chat with the bot.
const ChatTypePrivate = "private"

// IncomingMessage is a text message addressed to the bot.
type IncomingMessage struct {
	MessageID int64
	Chat      Chat
	From      User
	Text      string
}

// Callback is a button press. Message is nil for buttons on messages
// sent through inline mode.
type Callback struct {
	ID       string
	From     User
	Data     string
	Message  *MessageRef
	ChatType string
}

// InlineQuery is text typed after the bot's username in any chat.
type InlineQuery struct {
	ID    string
	From  User
	Query string
}
