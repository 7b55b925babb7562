package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/platform/chat"
)

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]Update
	errs    []error
	offsets []int64
	cancel  context.CancelFunc
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, offset)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	if len(s.batches) == 0 {
		s.cancel()
		return nil, ctx.Err()
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

type recordingHandler struct {
	mu        sync.Mutex
	messages  []chat.IncomingMessage
	callbacks []chat.Callback
	inline    []chat.InlineQuery
}

func (h *recordingHandler) HandleMessage(_ context.Context, m chat.IncomingMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, m)
}

func (h *recordingHandler) HandleCallback(_ context.Context, cb chat.Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, cb)
}

func (h *recordingHandler) HandleInline(_ context.Context, q chat.InlineQuery) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if q.Query == "panic" {
		panic("boom")
	}
	h.inline = append(h.inline, q)
}

func TestPollerDispatchesAndAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &scriptedSource{
		cancel: cancel,
		errs:   []error{&RPSError{Msg: "slow down"}},
		batches: [][]Update{
			{
				{UpdateID: 5, Message: &Message{MessageID: 1, Chat: chat.Chat{ID: 7, Type: "private"}, Text: "/start"}},
				{UpdateID: 6, InlineQuery: &InlineQuery{ID: "iq", Query: "panic"}},
			},
			{
				{UpdateID: 7, CallbackQuery: &CallbackQuery{ID: "cb", Data: "stats"}},
				{UpdateID: 8},
			},
		},
	}
	handler := &recordingHandler{}
	poller := NewPoller(source, handler, time.Second)
	poller.backoff = time.Millisecond

	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	assert.Equal(t, []int64{0, 0, 7, 9}, source.offsets)
	require.Len(t, handler.messages, 1)
	assert.Equal(t, "/start", handler.messages[0].Text)
	require.Len(t, handler.callbacks, 1)
	assert.Nil(t, handler.callbacks[0].Message)
	assert.Empty(t, handler.inline)
}

func TestPollerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &scriptedSource{cancel: cancel, errs: []error{errors.New("never reached")}}
	NewPoller(source, &recordingHandler{}, time.Second).Run(ctx)
	assert.Empty(t, source.offsets)
}
