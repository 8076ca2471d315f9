package gate

import (
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	// TokenCache remembers tokens that already passed VerifyToken so
	// repeated requests skip the HMAC. Only successes are ever stored.
	TokenCache struct {
		key   *Key
		cache *bigcache.BigCache
	}
)

// NewTokenCache returns a cache that forgets entries after ttl,
// a zero ttl disables caching
func NewTokenCache(key *Key, ttl time.Duration) (*TokenCache, error) {
	tc := &TokenCache{key: key}
	if ttl <= 0 {
		return tc, nil
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, err
	}
	tc.cache = cache
	return tc, nil
}

// Verify has the same contract as VerifyToken
func (tc *TokenCache) Verify(token string) error {
	if tc.cache != nil {
		if buf, err := tc.cache.Get(token); err == nil && len(buf) > 0 && buf[0] == 1 {
			return nil
		}
	}
	if err := VerifyToken(tc.key, token); err != nil {
		return err
	}
	if tc.cache != nil {
		tc.cache.Set(token, []byte{1})
	}
	return nil
}

func (tc *TokenCache) Close() error {
	if tc.cache == nil {
		return nil
	}
	return tc.cache.Close()
}
