// Package winners turns creator input into winner records.
package winners

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/platform/chat"
)

// IdentityResolver looks up display data for a numeric user id.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID int64) (*chat.User, error)
}

type Selector struct {
	identities IdentityResolver
}

func NewSelector(identities IdentityResolver) *Selector {
	return &Selector{identities: identities}
}

// Split breaks comma separated input into trimmed, non-empty tokens.
func Split(input string) []string {
	var tokens []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// Select validates the token count against winnerCount and resolves every token.
// More tokens than winnerCount is a validation error; fewer are accepted.
func (s *Selector) Select(ctx context.Context, input string, winnerCount int) ([]models.Winner, error) {
	tokens := Split(input)
	if len(tokens) == 0 {
		return nil, apperrors.NewValidationError("winners", "no winners given").
			WithDetail("expected", winnerCount)
	}

	expected := min(winnerCount, len(tokens))
	if len(tokens) != expected {
		return nil, apperrors.NewValidationError("winners", fmt.Sprintf("exactly %d winners required", expected)).
			WithDetail("expected", expected)
	}

	for _, token := range tokens {
		if handle(token) == "" {
			return nil, apperrors.NewValidationError("winners", "empty username").
				WithDetail("expected", expected)
		}
	}

	return s.ResolveAll(ctx, tokens), nil
}

func handle(token string) string {
	return strings.TrimLeft(strings.TrimSpace(token), "@")
}

// ResolveAll resolves tokens in order. Duplicates are kept.
func (s *Selector) ResolveAll(ctx context.Context, tokens []string) []models.Winner {
	out := make([]models.Winner, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, s.Resolve(ctx, token))
	}
	return out
}

// Resolve maps one token to a winner. Numeric tokens are looked up; a failed
// lookup keeps the id with a placeholder name. Anything else is a handle.
func (s *Selector) Resolve(ctx context.Context, token string) models.Winner {
	token = handle(token)

	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return models.Winner{Username: token, Name: token}
	}

	placeholder := fmt.Sprintf("User %d", id)
	u, err := s.identities.ResolveIdentity(ctx, id)
	if err != nil {
		logger.Warn().
			Err(err).
			Int64("user_id", id).
			Msg("Winner identity lookup failed, using placeholder")
		return models.Winner{UserID: id, Name: placeholder}
	}

	name := u.FullName()
	if name == "" {
		name = placeholder
	}
	return models.Winner{UserID: id, Username: u.Username, Name: name}
}
