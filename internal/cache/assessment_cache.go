// Package cache holds Redis read-through layers in front of the stores.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/safehaven/safehaven-api/internal/services"
)

const DefaultTTL = 10 * time.Minute

// AssessmentCache serves GetAssessment from Redis and invalidates on writes.
// Redis failures fall through to the wrapped store.
type AssessmentCache struct {
	next   services.AssessmentStore
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewAssessmentCache(next services.AssessmentStore, client *redis.Client, ttl time.Duration, log *zap.Logger) *AssessmentCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AssessmentCache{next: next, client: client, ttl: ttl, log: log.Named("cache")}
}

var _ services.AssessmentStore = (*AssessmentCache)(nil)

func (c *AssessmentCache) key(id string) string {
	return fmt.Sprintf("assessment:%s", id)
}

func (c *AssessmentCache) get(ctx context.Context, id string) (*services.Assessment, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a services.Assessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *AssessmentCache) set(ctx context.Context, a *services.Assessment) {
	data, err := json.Marshal(a)
	if err != nil {
		c.log.Warn("encode assessment", zap.String("id", a.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(a.ID), data, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("id", a.ID), zap.Error(err))
	}
}

func (c *AssessmentCache) invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.Warn("cache invalidate failed", zap.String("id", id), zap.Error(err))
	}
}

func (c *AssessmentCache) GetAssessment(ctx context.Context, id string) (*services.Assessment, error) {
	cached, err := c.get(ctx, id)
	if err != nil {
		c.log.Warn("cache get failed", zap.String("id", id), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}
	a, err := c.next.GetAssessment(ctx, id)
	if err != nil || a == nil {
		return a, err
	}
	c.set(ctx, a)
	return a, nil
}

func (c *AssessmentCache) InsertAssessment(ctx context.Context, a *services.Assessment) (*services.Assessment, error) {
	created, err := c.next.InsertAssessment(ctx, a)
	if err != nil {
		return nil, err
	}
	if created != nil {
		c.set(ctx, created)
	}
	return created, nil
}

func (c *AssessmentCache) ListAssessments(ctx context.Context, filter services.AssessmentFilter) ([]*services.Assessment, error) {
	return c.next.ListAssessments(ctx, filter)
}

func (c *AssessmentCache) UpdateAssessmentMeta(ctx context.Context, a *services.Assessment) error {
	if err := c.next.UpdateAssessmentMeta(ctx, a); err != nil {
		return err
	}
	c.invalidate(ctx, a.ID)
	return nil
}

func (c *AssessmentCache) DeleteAssessment(ctx context.Context, id string) error {
	if err := c.next.DeleteAssessment(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}
