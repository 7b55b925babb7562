// Package telegram is a small Bot API client implementing the chat platform
// capabilities used by the contest bot.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/platform/chat"
)

const DefaultAPIURL = "https://api.telegram.org"

// APIError is a response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// RPSError is returned when Telegram rejects a request with 429.
type RPSError struct {
	Msg        string
	RetryAfter time.Duration
}

func (e *RPSError) Error() string {
	return e.Msg
}

type response struct {
	Ok          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL points the client at another Bot API server.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout must exceed the
// long-poll timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 40 * time.Second},
		token:      token,
		baseURL:    DefaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type replyMarkup struct {
	InlineKeyboard chat.Keyboard `json:"inline_keyboard"`
}

func withKeyboard(params url.Values, kb chat.Keyboard) error {
	if len(kb) == 0 {
		return nil
	}
	raw, err := json.Marshal(replyMarkup{InlineKeyboard: kb})
	if err != nil {
		return fmt.Errorf("failed to encode keyboard: %w", err)
	}
	params.Set("reply_markup", string(raw))
	return nil
}

func (c *Client) Send(ctx context.Context, chatID int64, msg chat.Message) (chat.MessageRef, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {msg.Text},
	}
	if err := withKeyboard(params, msg.Keyboard); err != nil {
		return chat.MessageRef{}, err
	}

	var sent Message
	if err := c.call(ctx, "sendMessage", params, &sent); err != nil {
		return chat.MessageRef{}, err
	}
	return chat.MessageRef{ChatID: sent.Chat.ID, MessageID: sent.MessageID}, nil
}

// Edit replaces text and buttons. An empty keyboard removes the buttons.
func (c *Client) Edit(ctx context.Context, ref chat.MessageRef, msg chat.Message) error {
	params := messageParams(ref)
	params.Set("text", msg.Text)
	if err := withKeyboard(params, msg.Keyboard); err != nil {
		return err
	}
	return c.call(ctx, "editMessageText", params, nil)
}

func (c *Client) ResolveChat(ctx context.Context, handle string) (*chat.Chat, error) {
	var result chat.Chat
	if err := c.call(ctx, "getChat", url.Values{"chat_id": {chat.NormalizeHandle(handle)}}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetMember(ctx context.Context, chatID, userID int64) (*chat.Member, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}
	var result chat.Member
	if err := c.call(ctx, "getChatMember", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResolveIdentity reads the private chat of userID, which is available once
// the user has talked to the bot.
func (c *Client) ResolveIdentity(ctx context.Context, userID int64) (*chat.User, error) {
	var result struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.call(ctx, "getChat", url.Values{"chat_id": {strconv.FormatInt(userID, 10)}}, &result); err != nil {
		return nil, err
	}
	return &chat.User{
		ID:        result.ID,
		Username:  result.Username,
		FirstName: result.FirstName,
		LastName:  result.LastName,
	}, nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	params := url.Values{"callback_query_id": {callbackID}}
	if text != "" {
		params.Set("text", text)
		params.Set("show_alert", strconv.FormatBool(alert))
	}
	return c.call(ctx, "answerCallbackQuery", params, nil)
}

type inlineArticle struct {
	Type                string       `json:"type"`
	ID                  string       `json:"id"`
	Title               string       `json:"title"`
	Description         string       `json:"description,omitempty"`
	InputMessageContent inputContent `json:"input_message_content"`
	ReplyMarkup         *replyMarkup `json:"reply_markup,omitempty"`
}

type inputContent struct {
	MessageText string `json:"message_text"`
}

func (c *Client) AnswerInline(ctx context.Context, queryID string, results []chat.InlineArticle) error {
	articles := make([]inlineArticle, 0, len(results))
	for _, r := range results {
		a := inlineArticle{
			Type:                "article",
			ID:                  r.ID,
			Title:               r.Title,
			Description:         r.Description,
			InputMessageContent: inputContent{MessageText: r.Message.Text},
		}
		if len(r.Message.Keyboard) > 0 {
			a.ReplyMarkup = &replyMarkup{InlineKeyboard: r.Message.Keyboard}
		}
		articles = append(articles, a)
	}
	raw, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("failed to encode inline results: %w", err)
	}

	params := url.Values{
		"inline_query_id": {queryID},
		"results":         {string(raw)},
		"cache_time":      {"1"},
		"is_personal":     {"true"},
	}
	return c.call(ctx, "answerInlineQuery", params, nil)
}

func (c *Client) ClearKeyboard(ctx context.Context, ref chat.MessageRef) error {
	return c.call(ctx, "editMessageReplyMarkup", messageParams(ref), nil)
}

func (c *Client) Delete(ctx context.Context, ref chat.MessageRef) error {
	return c.call(ctx, "deleteMessage", messageParams(ref), nil)
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(int(timeout.Seconds()))},
		"allowed_updates": {`["message","callback_query","inline_query"]`},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func messageParams(ref chat.MessageRef) url.Values {
	return url.Values{
		"chat_id":    {strconv.FormatInt(ref.ChatID, 10)},
		"message_id": {strconv.FormatInt(ref.MessageID, 10)},
	}
}

// call posts a form-encoded request and decodes the result into result
// (which may be nil).
func (c *Client) call(ctx context.Context, method string, params url.Values, result interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the token is part of the URL
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram %s: failed to send request: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram %s: failed to read response: %w", method, err)
	}

	var envelope response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("telegram %s: failed to parse response (status %d): %w", method, resp.StatusCode, err)
	}

	if !envelope.Ok {
		if envelope.ErrorCode == http.StatusTooManyRequests {
			rpsErr := &RPSError{Msg: "telegram " + method + ": " + envelope.Description}
			if envelope.Parameters != nil {
				rpsErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
			}
			return rpsErr
		}
		logger.Debug().
			Str("method", method).
			Int("code", envelope.ErrorCode).
			Str("description", envelope.Description).
			Msg("Telegram API error")
		return &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}

	if result == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("telegram %s: failed to decode result: %w", method, err)
	}
	return nil
}

var _ chat.Platform = (*Client)(nil)
