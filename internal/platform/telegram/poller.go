package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	"contest-bot/internal/common/logger"
	"contest-bot/internal/platform/chat"
)

// UpdateHandler receives decoded updates. Calls may run concurrently.
type UpdateHandler interface {
	HandleMessage(ctx context.Context, m chat.IncomingMessage)
	HandleCallback(ctx context.Context, cb chat.Callback)
	HandleInline(ctx context.Context, q chat.InlineQuery)
}

// UpdateSource is the getUpdates side of the client.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller long-polls for updates and handles each one in its own goroutine.
type Poller struct {
	source  UpdateSource
	handler UpdateHandler
	timeout time.Duration
	backoff time.Duration

	wg sync.WaitGroup
}

func NewPoller(source UpdateSource, handler UpdateHandler, timeout time.Duration) *Poller {
	return &Poller{
		source:  source,
		handler: handler,
		timeout: timeout,
		backoff: time.Second,
	}
}

// Run polls until ctx is cancelled, then waits for in-flight handlers.
func (p *Poller) Run(ctx context.Context) {
	logger.Info().Dur("timeout", p.timeout).Msg("Starting update poller")
	defer func() {
		p.wg.Wait()
		logger.Info().Msg("Update poller stopped")
	}()

	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := p.backoff
			var rpsErr *RPSError
			if errors.As(err, &rpsErr) && rpsErr.RetryAfter > wait {
				wait = rpsErr.RetryAfter
			}
			logger.Warn().Err(err).Dur("retry_in", wait).Msg("Failed to fetch updates")
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.dispatch(ctx, u)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u Update) {
	// handlers run to completion after ctx is cancelled
	hctx := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Int64("update_id", u.UpdateID).Msg("Update handler panicked")
			}
		}()

		switch {
		case u.Message != nil:
			p.handler.HandleMessage(hctx, u.Message.incoming())
		case u.CallbackQuery != nil:
			p.handler.HandleCallback(hctx, u.CallbackQuery.callback())
		case u.InlineQuery != nil:
			p.handler.HandleInline(hctx, u.InlineQuery.inline())
		default:
			logger.Debug().Int64("update_id", u.UpdateID).Msg("Skipping unsupported update")
		}
	}()
}
