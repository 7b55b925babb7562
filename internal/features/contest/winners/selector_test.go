package winners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/features/contest/models"
	"contest-bot/internal/platform/chat"
	"contest-bot/internal/platform/chat/chattest"
)

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"@u1", "999"}, Split("@u1, 999"))
	assert.Equal(t, []string{"a", "b"}, Split(" a ,, b ,"))
	assert.Empty(t, Split(" , ,"))
}

func TestResolve(t *testing.T) {
	p := chattest.New()
	p.AddIdentity(chat.User{ID: 555, Username: "carol", FirstName: "Carol", LastName: "King"})
	p.AddIdentity(chat.User{ID: 777})
	s := NewSelector(p)
	ctx := context.Background()

	tests := []struct {
		token string
		want  models.Winner
	}{
		{"@u1", models.Winner{Username: "u1", Name: "u1"}},
		{"u1", models.Winner{Username: "u1", Name: "u1"}},
		{"@@u1", models.Winner{Username: "u1", Name: "u1"}},
		{"555", models.Winner{UserID: 555, Username: "carol", Name: "Carol King"}},
		{"@555", models.Winner{UserID: 555, Username: "carol", Name: "Carol King"}},
		{"777", models.Winner{UserID: 777, Name: "User 777"}},
		{"123456", models.Winner{UserID: 123456, Name: "User 123456"}},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Resolve(ctx, tt.token))
		})
	}
}

func TestSelect(t *testing.T) {
	s := NewSelector(chattest.New())
	ctx := context.Background()

	got, err := s.Select(ctx, "@u1, 999", 2)
	require.NoError(t, err)
	assert.Equal(t, []models.Winner{
		{Username: "u1", Name: "u1"},
		{UserID: 999, Name: "User 999"},
	}, got)

	got, err = s.Select(ctx, "@u1", 3)
	require.NoError(t, err, "fewer winners than required are accepted")
	assert.Len(t, got, 1)

	got, err = s.Select(ctx, "@u1, @u1", 2)
	require.NoError(t, err)
	assert.Equal(t, got[0], got[1], "duplicates are kept")

	_, err = s.Select(ctx, "a, b, c", 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "2", appErr.Detail("expected"))

	_, err = s.Select(ctx, " , ", 2)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSelectRejectsEmptyHandles(t *testing.T) {
	s := NewSelector(chattest.New())
	ctx := context.Background()

	for _, input := range []string{"@, u2", "u1, @@", "@"} {
		t.Run(input, func(t *testing.T) {
			got, err := s.Select(ctx, input, 2)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}
