package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"contest-bot/internal/common/cache"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/platform/chat"
)

// CachedDirectory caches chat and identity resolution in redis. Membership
// is always read from the platform.
type CachedDirectory struct {
	chat.Directory
	cache *cache.CacheService
	ttl   time.Duration
}

func NewCachedDirectory(dir chat.Directory, cacheService *cache.CacheService, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{Directory: dir, cache: cacheService, ttl: ttl}
}

func (d *CachedDirectory) ResolveChat(ctx context.Context, handle string) (*chat.Chat, error) {
	var c chat.Chat
	key := "chat:" + strings.ToLower(handle)
	err := d.cache.GetOrSet(ctx, key, &c, d.ttl, func() (interface{}, error) {
		logger.Debug().Str("handle", handle).Msg("Resolving chat")
		return d.Directory.ResolveChat(ctx, handle)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *CachedDirectory) ResolveIdentity(ctx context.Context, userID int64) (*chat.User, error) {
	var u chat.User
	key := fmt.Sprintf("user:%d", userID)
	err := d.cache.GetOrSet(ctx, key, &u, d.ttl, func() (interface{}, error) {
		return d.Directory.ResolveIdentity(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

var _ chat.Directory = (*CachedDirectory)(nil)
