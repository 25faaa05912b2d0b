package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"murajaa-backend/internal/repository"
	"murajaa-backend/internal/session"
)

const dueCountTTL = 5 * time.Minute

// DueCountCache caches per-deck due counts in Redis. The session manager
// invalidates it whenever a grade is committed, so a short TTL only has to
// cover cards becoming due by the clock ticking.
type DueCountCache struct {
	reviewRepo *repository.ReviewRepo
	redis      *redis.Client
}

func NewDueCountCache(reviewRepo *repository.ReviewRepo, redisClient *redis.Client) *DueCountCache {
	return &DueCountCache{reviewRepo: reviewRepo, redis: redisClient}
}

func (c *DueCountCache) Get(ctx context.Context, userID uuid.UUID, now time.Time) (map[uuid.UUID]int, error) {
	key := session.DueCountsKey(userID)

	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		counts := make(map[uuid.UUID]int)
		if json.Unmarshal(raw, &counts) == nil {
			return counts, nil
		}
	}

	counts, err := c.reviewRepo.CountDueByDeck(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(counts); err == nil {
		c.redis.Set(ctx, key, raw, dueCountTTL)
	}
	return counts, nil
}

func (c *DueCountCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	c.redis.Del(ctx, session.DueCountsKey(userID))
}
