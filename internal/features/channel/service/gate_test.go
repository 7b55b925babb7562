package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot/internal/common/cache"
	apperrors "contest-bot/internal/common/errors"
	"contest-bot/internal/platform/chat"
	"contest-bot/internal/platform/chat/chattest"
)

const (
	chanA  = int64(-1001)
	chanB  = int64(-1002)
	userID = int64(42)
)

func newPlatform() *chattest.Platform {
	p := chattest.New()
	p.AddChannel(chanA, "alpha")
	p.AddChannel(chanB, "beta")
	return p
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	p := newPlatform()
	p.SetMember(chanA, userID, chat.StatusAdministrator)
	p.SetMember(chanB, userID, chat.StatusMember)
	p.AddChannel(-1003, "gamma")
	p.SetMember(-1003, userID, chat.StatusCreator)
	gate := NewGate(p)

	tests := []struct {
		channel string
		want    Status
	}{
		{"alpha", StatusOwner},
		{"@alpha", StatusOwner},
		{"beta", StatusMember},
		{"gamma", StatusOwner},
		{"-1001", StatusOwner},
		{"unknown", StatusLookupFailed},
	}
	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			m := gate.Check(ctx, tt.channel, userID)
			assert.Equal(t, tt.want, m.Status)
		})
	}

	m := gate.Check(ctx, "alpha", 7)
	assert.Equal(t, StatusNotMember, m.Status)
	require.NotNil(t, m.Chat)
	assert.Equal(t, chanA, m.Chat.ID)
}

func TestCheckMembershipLookupFails(t *testing.T) {
	p := newPlatform()
	p.FailMembers(chanA)

	m := NewGate(p).Check(context.Background(), "alpha", userID)
	assert.Equal(t, StatusLookupFailed, m.Status)
	assert.ErrorIs(t, m.Err, chattest.ErrUnavailable)
	assert.False(t, m.Status.Subscribed())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		member chat.Member
		want   Status
	}{
		{chat.Member{Status: chat.StatusCreator}, StatusOwner},
		{chat.Member{Status: chat.StatusAdministrator}, StatusOwner},
		{chat.Member{Status: chat.StatusMember}, StatusMember},
		{chat.Member{Status: chat.StatusRestricted, IsMember: true}, StatusMember},
		{chat.Member{Status: chat.StatusRestricted}, StatusNotMember},
		{chat.Member{Status: chat.StatusLeft}, StatusNotMember},
		{chat.Member{Status: chat.StatusKicked}, StatusNotMember},
	}
	for _, tt := range tests {
		t.Run(string(tt.member.Status), func(t *testing.T) {
			m := tt.member
			assert.Equal(t, tt.want, classify(&m))
		})
	}
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	p := newPlatform()
	p.SetMember(chanA, userID, chat.StatusCreator)
	p.SetMember(chanB, userID, chat.StatusMember)
	p.AddChannel(-1009, "broken")
	p.FailMembers(-1009)
	gate := NewGate(p)

	c, err := gate.Authorize(ctx, "@alpha", userID)
	require.NoError(t, err)
	assert.Equal(t, chanA, c.ID)

	_, err = gate.Authorize(ctx, "beta", userID)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.False(t, apperrors.IsExternalLookup(err))

	_, err = gate.Authorize(ctx, "broken", userID)
	assert.True(t, apperrors.IsExternalLookup(err))

	_, err = gate.Authorize(ctx, "missing", userID)
	assert.True(t, apperrors.IsExternalLookup(err))
}

func TestUnmetChannelsAccumulates(t *testing.T) {
	ctx := context.Background()
	p := newPlatform()
	p.SetMember(chanA, userID, chat.StatusMember)
	gate := NewGate(p)

	assert.Equal(t, []string{"beta"}, gate.UnmetChannels(ctx, []string{"alpha", "beta"}, userID))
	assert.Equal(t, []string{"alpha", "beta"}, gate.UnmetChannels(ctx, []string{"alpha", "beta"}, 7))

	p.SetMember(chanB, userID, chat.StatusAdministrator)
	assert.Empty(t, gate.UnmetChannels(ctx, []string{"alpha", "beta"}, userID))

	p.FailMembers(chanB)
	assert.Equal(t, []string{"beta"}, gate.UnmetChannels(ctx, []string{"alpha", "beta"}, userID))
}

type countingDirectory struct {
	chat.Directory
	chats      int
	identities int
}

func (d *countingDirectory) ResolveChat(ctx context.Context, handle string) (*chat.Chat, error) {
	d.chats++
	return d.Directory.ResolveChat(ctx, handle)
}

func (d *countingDirectory) ResolveIdentity(ctx context.Context, userID int64) (*chat.User, error) {
	d.identities++
	return d.Directory.ResolveIdentity(ctx, userID)
}

func TestCachedDirectory(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := newPlatform()
	p.AddIdentity(chat.User{ID: userID, Username: "alice", FirstName: "Alice"})
	p.SetMember(chanA, userID, chat.StatusMember)
	counting := &countingDirectory{Directory: p}
	dir := NewCachedDirectory(counting, cache.NewCacheService(client, "test:"), time.Minute)

	for i := 0; i < 3; i++ {
		c, err := dir.ResolveChat(ctx, "@alpha")
		require.NoError(t, err)
		assert.Equal(t, chanA, c.ID)

		u, err := dir.ResolveIdentity(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	}
	assert.Equal(t, 1, counting.chats)
	assert.Equal(t, 1, counting.identities)

	_, err := dir.ResolveChat(ctx, "@missing")
	assert.Error(t, err)

	// membership goes straight to the platform
	m := NewGate(dir).Check(ctx, "alpha", userID)
	assert.Equal(t, StatusMember, m.Status)

	mr.FastForward(2 * time.Minute)
	_, err = dir.ResolveChat(ctx, "@alpha")
	require.NoError(t, err)
	assert.Equal(t, 3, counting.chats)
}
