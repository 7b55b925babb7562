package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := NewSet([]int64{3, 1, 3, 2})

	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
	assert.Equal(t, []int64{3, 1, 2}, s.IDs())

	ids := s.IDs()
	ids[0] = 99
	assert.False(t, s.Contains(99))
}

func TestNilSet(t *testing.T) {
	var s *Set
	assert.False(t, s.Contains(1))
	assert.Empty(t, s.IDs())
}
