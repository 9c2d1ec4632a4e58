package cache

import (
	"context"
	"errors"
	"time"
)

// 幂等重放 key
const (
	IdempotencyKeyPrefix  = "idem:"
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultPendingTTL     = 2 * time.Minute
)

// IdempotencyCacheKey 生成幂等缓存 key
// scope 区分客户端，避免不同客户端使用相同 Idempotency-Key 时互相读到对方的结果
func IdempotencyCacheKey(scope, key string) string {
	return IdempotencyKeyPrefix + scope + ":" + key
}

// CachedResponse 幂等记录
// Pending 为 true 表示首个请求仍在处理，此时没有响应内容
type CachedResponse struct {
	Pending     bool   `json:"pending,omitempty"`
	Fingerprint string `json:"fingerprint"` // 请求体摘要
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// IdempotencyStore 基于 Redis 的幂等存储
type IdempotencyStore struct {
	cache      *RedisCache
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewIdempotencyStore 创建幂等存储
// pendingTTL 是处理中标记的有效期，应覆盖一次完整的模型瀑布
func NewIdempotencyStore(c *RedisCache, ttl, pendingTTL time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	return &IdempotencyStore{cache: c, ttl: ttl, pendingTTL: pendingTTL}
}

// Claim 尝试占用 key
// 占用成功返回 (nil, true)；key 已被占用时返回已有记录（处理中或已完成）
func (s *IdempotencyStore) Claim(ctx context.Context, key, fingerprint string) (*CachedResponse, bool, error) {
	pending := &CachedResponse{Pending: true, Fingerprint: fingerprint}

	// 已有记录可能在 SetNX 与 Get 之间过期或被释放，重试一次
	for i := 0; i < 2; i++ {
		ok, err := s.cache.SetNX(ctx, key, pending, s.pendingTTL)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return nil, true, nil
		}

		var existing CachedResponse
		err = s.cache.Get(ctx, key, &existing)
		if errors.Is(err, ErrMiss) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	return nil, false, errors.New("idempotency key contended")
}

// Complete 用最终响应覆盖处理中标记
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp *CachedResponse) error {
	resp.Pending = false
	return s.cache.Set(ctx, key, resp, s.ttl)
}

// Release 删除处理中标记，允许客户端重试
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}
