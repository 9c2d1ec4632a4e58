package middleware

import (
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/gin-gonic/gin"

	"gridscape/internal/config"
	"gridscape/internal/model"
)

const defaultMaxClients = 10000

// RateLimit 按客户端 IP 的令牌桶限流
// 限流器保存在 LRU 中，最久未访问的客户端会被淘汰
func RateLimit(cfg *config.RateLimitConfig) (gin.HandlerFunc, error) {
	size := cfg.MaxClients
	if size <= 0 {
		size = defaultMaxClients
	}
	limiters, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if l, ok := limiters.Get(ip); ok {
			return l
		}
		l := rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst)
		limiters.Add(ip, l)
		return l
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error: "Too many requests",
			})
			return
		}
		c.Next()
	}, nil
}
