// Package operator holds the bot-operator allow-list.
package operator

// Set is an immutable allow-list of operator user ids.
type Set struct {
	ids   map[int64]struct{}
	order []int64
}

func NewSet(ids []int64) *Set {
	s := &Set{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if _, dup := s.ids[id]; dup {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
	return s
}

// Contains reports whether userID is an operator. A nil set contains nobody.
func (s *Set) Contains(userID int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[userID]
	return ok
}

// IDs returns operators in configuration order.
func (s *Set) IDs() []int64 {
	if s == nil {
		return nil
	}
	return append([]int64(nil), s.order...)
}
