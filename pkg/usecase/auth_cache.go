package usecase

import (
	"sync"
	"time"

	"github.com/secmon-lab/kottos/pkg/domain/types"
)

const (
	authCacheTTL = 5 * time.Minute
)

type cachedIdentity struct {
	userID    types.UserID
	expiresAt time.Time
}

// authCache remembers verified tokens by digest
type authCache struct {
	cache sync.Map
}

func newAuthCache() *authCache {
	return &authCache{}
}

func (c *authCache) get(key string) (types.UserID, bool) {
	val, ok := c.cache.Load(key)
	if !ok {
		return "", false
	}

	cached := val.(*cachedIdentity)
	if time.Now().After(cached.expiresAt) {
		c.cache.Delete(key)
		return "", false
	}

	return cached.userID, true
}

func (c *authCache) set(key string, userID types.UserID, expiresAt time.Time) {
	c.cache.Store(key, &cachedIdentity{
		userID:    userID,
		expiresAt: expiresAt,
	})
}
