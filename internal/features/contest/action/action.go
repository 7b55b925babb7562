// Package action defines the callback actions carried by inline buttons.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"contest-bot/internal/features/contest/models"
)

var ErrUnknown = errors.New("unknown action")

// Action is a decoded callback payload. The set of implementations is closed.
type Action interface {
	// Data encodes the action as button callback data.
	Data() string
	isAction()
}

type (
	NewContest   struct{}
	Confirm      struct{ Count int }
	Cancel       struct{}
	Join         struct{ ContestID string }
	PickMenu     struct{}
	RerollMenu   struct{}
	Pick         struct{ ContestID string }
	Reroll       struct{ ContestID string }
	CancelPick   struct{}
	CancelReroll struct{}
	Stats        struct{}
)

const (
	dataNewContest   = "new_contest"
	dataCancel       = "cancel"
	dataPickMenu     = "pick"
	dataRerollMenu   = "reroll_winners"
	dataCancelPick   = "cancel_pick"
	dataCancelReroll = "cancel_reroll"
	dataStats        = "stats"

	prefixConfirm = "confirm"
	prefixJoin    = "join"
	prefixPick    = "pick"
	prefixReroll  = "reroll"
)

func (NewContest) Data() string { return dataNewContest }
func (a Confirm) Data() string { return prefixConfirm + ":" + strconv.Itoa(a.Count) }
func (Cancel) Data() string { return dataCancel }
func (a Join) Data() string { return prefixJoin + ":" + a.ContestID }
func (PickMenu) Data() string { return dataPickMenu }
func (RerollMenu) Data() string { return dataRerollMenu }
func (a Pick) Data() string { return prefixPick + ":" + a.ContestID }
func (a Reroll) Data() string { return prefixReroll + ":" + a.ContestID }
func (CancelPick) Data() string { return dataCancelPick }
func (CancelReroll) Data() string { return dataCancelReroll }
func (Stats) Data() string { return dataStats }

func (NewContest) isAction() {}
func (Confirm) isAction() {}
func (Cancel) isAction() {}
func (Join) isAction() {}
func (PickMenu) isAction() {}
func (RerollMenu) isAction() {}
func (Pick) isAction() {}
func (Reroll) isAction() {}
func (CancelPick) isAction() {}
func (CancelReroll) isAction() {}
func (Stats) isAction() {}

// Parse decodes callback data. Suffixes are a contest id or a count.
func Parse(data string) (Action, error) {
	switch data {
	case dataNewContest:
		return NewContest{}, nil
	case dataCancel:
		return Cancel{}, nil
	case dataPickMenu:
		return PickMenu{}, nil
	case dataRerollMenu:
		return RerollMenu{}, nil
	case dataCancelPick:
		return CancelPick{}, nil
	case dataCancelReroll:
		return CancelReroll{}, nil
	case dataStats:
		return Stats{}, nil
	}

	prefix, suffix, ok := strings.Cut(data, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, data)
	}

	switch prefix {
	case prefixConfirm:
		count, err := strconv.Atoi(suffix)
		if err != nil || count < 1 {
			return nil, fmt.Errorf("invalid confirm count %q", suffix)
		}
		return Confirm{Count: count}, nil
	case prefixJoin, prefixPick, prefixReroll:
		if !models.IsValidID(suffix) {
			return nil, fmt.Errorf("invalid contest id %q", suffix)
		}
		switch prefix {
		case prefixJoin:
			return Join{ContestID: suffix}, nil
		case prefixPick:
			return Pick{ContestID: suffix}, nil
		default:
			return Reroll{ContestID: suffix}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, data)
}
