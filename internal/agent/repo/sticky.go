package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobscout-ai/jobscout/internal/agent/model"
	errx "github.com/jobscout-ai/jobscout/internal/core/error"
	logx "github.com/jobscout-ai/jobscout/pkg/logger"
)

type RedisStickyStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStickyStore(rdb redis.Cmdable, ttl time.Duration) *RedisStickyStore {
	return &RedisStickyStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStickyStore) stickyKey(tier model.Tier) string {
	return fmt.Sprintf("sticky:%s", tier)
}

func (s *RedisStickyStore) GetLastSuccessful(ctx context.Context, tier model.Tier) (string, error) {
	id, err := s.rdb.Get(ctx, s.stickyKey(tier)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		logx.Error().Err(err).Str("tier", tier.String()).Msg("failed to load sticky model from redis")
		return "", errx.WrapRedis(err)
	}
	return id, nil
}

func (s *RedisStickyStore) SetLastSuccessful(ctx context.Context, tier model.Tier, modelID string) error {
	if err := s.rdb.Set(ctx, s.stickyKey(tier), modelID, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("tier", tier.String()).Str("model", modelID).Msg("failed to persist sticky model")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.StickyStore = (*RedisStickyStore)(nil)

// MemoryStickyStore keeps the sticky model per tier in process memory.
type MemoryStickyStore struct {
	mu   sync.RWMutex
	last map[model.Tier]string
}

func NewMemoryStickyStore() *MemoryStickyStore {
	return &MemoryStickyStore{last: map[model.Tier]string{}}
}

func (s *MemoryStickyStore) GetLastSuccessful(ctx context.Context, tier model.Tier) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last[tier], nil
}

func (s *MemoryStickyStore) SetLastSuccessful(ctx context.Context, tier model.Tier, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[tier] = modelID
	return nil
}

var _ model.StickyStore = (*MemoryStickyStore)(nil)
