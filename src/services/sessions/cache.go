package sessions

import (
	"context"
	"errors"
	"log"
	"time"

	"Backend-Attendance/src/models"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "attendance:session:"

// CachedStore is a read-through Redis cache in front of a Store. Entries live
// no longer than the session itself; expiry is still decided by the caller
// against ExpiresAt, never by cache presence.
type CachedStore struct {
	Store
	rdb *redis.Client
	now func() time.Time
}

// NewCachedStore wraps store. A nil client makes the wrapper a pass-through.
func NewCachedStore(store Store, rdb *redis.Client) *CachedStore {
	return &CachedStore{Store: store, rdb: rdb, now: time.Now}
}

func cacheKey(sessionID string) string {
	return cacheKeyPrefix + sessionID
}

func (c *CachedStore) Create(ctx context.Context, s *models.Session) error {
	if err := c.Store.Create(ctx, s); err != nil {
		return err
	}
	c.put(ctx, s)
	return nil
}

func (c *CachedStore) FindByID(ctx context.Context, sessionID string) (*models.Session, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, cacheKey(sessionID)).Bytes()
		switch {
		case err == nil:
			var s models.Session
			if jsonErr := sonic.Unmarshal(raw, &s); jsonErr == nil {
				s.ExpiresAtMirror = s.ExpiresAtTime()
				return &s, nil
			}
			log.Printf("⚠️ [SessionCache] Corrupt entry for %s, falling back to store", sessionID)
		case !errors.Is(err, redis.Nil):
			log.Printf("⚠️ [SessionCache] Redis get failed, falling back to store: %v", err)
		}
	}

	s, err := c.Store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, s)
	return s, nil
}

func (c *CachedStore) put(ctx context.Context, s *models.Session) {
	if c.rdb == nil {
		return
	}
	ttl := s.ExpiresAtTime().Sub(c.now())
	if ttl <= 0 {
		return
	}
	raw, err := sonic.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(s.SessionID), raw, ttl).Err(); err != nil {
		log.Printf("⚠️ [SessionCache] Redis set failed: %v", err)
	}
}
