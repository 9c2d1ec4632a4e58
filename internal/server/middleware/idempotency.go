package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gridscape/internal/model"
	"gridscape/internal/pkg/cache"
)

// 幂等相关请求/响应头
const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 255
)

// ReplayStore 幂等存储
type ReplayStore interface {
	Claim(ctx context.Context, key, fingerprint string) (*cache.CachedResponse, bool, error)
	Complete(ctx context.Context, key string, resp *cache.CachedResponse) error
	Release(ctx context.Context, key string) error
}

// Idempotency 幂等重放中间件
// 首个请求占用 key，处理期间的重复提交返回 409，完成后的重复提交直接返回首次的成功响应
// 同一 key 携带不同请求体时返回 422
// 只缓存 200 响应，失败时释放 key 允许客户端重试
// 存储不可用时放行，不影响正常请求
func Idempotency(store ReplayStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || len(key) > maxIdempotencyKeyLen || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		requestID := c.GetString("request_id")
		cacheKey := cache.IdempotencyCacheKey(c.ClientIP(), key)

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		fingerprint := bodyFingerprint(body)

		existing, claimed, err := store.Claim(c.Request.Context(), cacheKey, fingerprint)
		if err != nil {
			log.Warn().Err(err).Str("request_id", requestID).Msg("idempotency claim failed")
			c.Next()
			return
		}

		if !claimed {
			switch {
			case existing.Fingerprint != fingerprint:
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, model.ErrorResponse{
					Error: "Idempotency-Key reused with a different request body",
				})
			case existing.Pending:
				c.AbortWithStatusJSON(http.StatusConflict, model.ErrorResponse{Error: "request in progress"})
			default:
				c.Header(ReplayedHeader, "true")
				c.Data(existing.Status, existing.ContentType, existing.Body)
				c.Abort()
			}
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		// 客户端可能已经断开，使用独立的 context 保存
		ctx := context.WithoutCancel(c.Request.Context())
		if c.Writer.Status() != http.StatusOK {
			if err := store.Release(ctx, cacheKey); err != nil {
				log.Warn().Err(err).Str("request_id", requestID).Msg("idempotency release failed")
			}
			return
		}
		resp := &cache.CachedResponse{
			Fingerprint: fingerprint,
			Status:      http.StatusOK,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}
		if err := store.Complete(ctx, cacheKey, resp); err != nil {
			log.Warn().Err(err).Str("request_id", requestID).Msg("idempotency save failed")
		}
	}
}

func bodyFingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// bodyRecorder 在写出响应的同时保留一份副本
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
