// Package fast builds single-shot contests from one inline command.
package fast

import (
	"errors"
	"strconv"
	"strings"

	apperrors "contest-bot/internal/common/errors"
)

var (
	ErrTooFewTokens   = errors.New("description, winner count and duration are required")
	ErrMissingNumbers = errors.New("winner count and duration must precede the channel")
	ErrInvalidNumbers = errors.New("winner count and duration must be positive integers")
	ErrMissingChannel = errors.New("channel is required")
)

// Request is a parsed fast contest command.
type Request struct {
	Description     string
	WinnerCount     int
	DurationMinutes int
	Channel         string
}

// Parse reads "<description...> <winner_count> <duration_minutes> [@channel]".
// Reading non-handle tokens from the end, the first is the duration and the
// second the winner count. Errors are validation errors wrapping one of the
// Err* values above.
func Parse(text string) (*Request, error) {
	tokens := strings.Fields(text)
	if len(tokens) < 3 {
		return nil, invalid(ErrTooFewTokens)
	}

	var numbers []string
	for i := len(tokens) - 1; i >= 0 && len(numbers) < 2; i-- {
		if !strings.HasPrefix(tokens[i], "@") {
			numbers = append(numbers, tokens[i])
		}
	}
	if len(numbers) < 2 {
		return nil, invalid(ErrMissingNumbers)
	}

	// Only plain digit tokens count as numbers, matching what the description drops.
	if !isDigits(numbers[0]) || !isDigits(numbers[1]) {
		return nil, invalid(ErrInvalidNumbers)
	}

	minutes, err := strconv.Atoi(numbers[0])
	if err != nil || minutes < 1 {
		return nil, invalid(ErrInvalidNumbers)
	}
	count, err := strconv.Atoi(numbers[1])
	if err != nil || count < 1 {
		return nil, invalid(ErrInvalidNumbers)
	}

	var (
		description []string
		channel     string
	)
	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "@"):
			if channel == "" {
				channel = strings.TrimLeft(tok, "@")
			}
		case isDigits(tok):
		default:
			description = append(description, tok)
		}
	}
	if channel == "" {
		return nil, invalid(ErrMissingChannel)
	}

	return &Request{
		Description:     strings.Join(description, " "),
		WinnerCount:     count,
		DurationMinutes: minutes,
		Channel:         channel,
	}, nil
}

func invalid(err error) error {
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
