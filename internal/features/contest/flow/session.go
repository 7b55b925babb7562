package flow

import (
	"sync"
	"time"

	"contest-bot/internal/features/contest/mapper"
	"contest-bot/internal/features/contest/models"
)

// Session is the state of one creator's conversation. Each variant carries
// only the fields collected so far.
type Session interface {
	isSession()
}

// Standard contest creation.
type (
	CollectingConditions struct{}

	CollectingSubscription struct {
		Conditions string
	}

	CollectingChannels struct {
		Conditions       string
		SubscriptionText string
	}

	CollectingWinnerCount struct {
		Conditions       string
		SubscriptionText string
		Channels         []string
	}

	AwaitingConfirmation struct {
		Draft mapper.Draft
	}

	CollectingTarget struct {
		Draft mapper.Draft
	}
)

// Winner selection and reroll.
type (
	AwaitingWinnerList struct {
		ContestID string
		Reroll    bool
	}

	AwaitingResultsLink struct {
		ContestID string
		Reroll    bool
		Winners   []models.Winner
	}
)

func (CollectingConditions) isSession() {}
func (CollectingSubscription) isSession() {}
func (CollectingChannels) isSession() {}
func (CollectingWinnerCount) isSession() {}
func (AwaitingConfirmation) isSession() {}
func (CollectingTarget) isSession() {}
func (AwaitingWinnerList) isSession() {}
func (AwaitingResultsLink) isSession() {}

type storedSession struct {
	session Session
	updated time.Time
}

// Store keeps sessions per creator. Sessions not updated within the ttl are
// dropped on the next access.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]storedSession
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[int64]storedSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Store) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[userID]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(st.updated) > s.ttl {
		delete(s.sessions, userID)
		return nil, false
	}
	return st.session, true
}

func (s *Store) Set(userID int64, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = storedSession{session: session, updated: s.now()}
}

func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len counts stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
