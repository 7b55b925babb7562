package bot

import (
	"strings"

	"contest-bot/internal/features/contest/models"
)

const (
	fastPrefix   = "conc "
	nearMissText = "concu"
)

// InlineRequest is a decoded inline query. The set of implementations is closed.
type InlineRequest interface {
	isInline()
}

type (
	// InlineFastCreate carries everything after the "conc " prefix.
	InlineFastCreate struct{ Args string }
	// InlineNearMiss is the "concu" typo of the fast prefix.
	InlineNearMiss struct{}
	InlineEmpty    struct{}
	InlineLookup   struct{ ContestID string }
	// InlineMalformed is anything else.
	InlineMalformed struct{ Text string }
)

func (InlineFastCreate) isInline() {}
func (InlineNearMiss) isInline() {}
func (InlineEmpty) isInline() {}
func (InlineLookup) isInline() {}
func (InlineMalformed) isInline() {}

// ParseInline classifies inline query text. It never fails.
func ParseInline(query string) InlineRequest {
	q := strings.TrimSpace(query)
	switch {
	case strings.HasPrefix(q, fastPrefix):
		return InlineFastCreate{Args: strings.TrimSpace(q[len(fastPrefix):])}
	case strings.EqualFold(q, nearMissText):
		return InlineNearMiss{}
	case q == "":
		return InlineEmpty{}
	case models.IsValidID(q):
		return InlineLookup{ContestID: q}
	}
	return InlineMalformed{Text: q}
}
