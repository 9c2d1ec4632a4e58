package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridscape/internal/config"
	"gridscape/internal/model"
	"gridscape/internal/pkg/cache"
	"gridscape/internal/pkg/ctxutil"
	"gridscape/internal/pkg/id"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(engine *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	var fromCtx string
	engine.GET("/", func(c *gin.Context) {
		fromCtx, _ = ctxutil.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := perform(engine, http.MethodGet, "/", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.True(t, id.IsValid(generated))
	assert.Equal(t, generated, fromCtx)

	given := id.New()
	w = perform(engine, http.MethodGet, "/", map[string]string{RequestIDHeader: given})
	assert.Equal(t, given, w.Header().Get(RequestIDHeader))

	w = perform(engine, http.MethodGet, "/", map[string]string{RequestIDHeader: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS([]string{"https://gridscape.app"}))
	engine.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(engine, http.MethodOptions, "/", map[string]string{"Origin": "https://gridscape.app"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://gridscape.app", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(engine, http.MethodPost, "/", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	open := gin.New()
	open.Use(CORS(nil))
	open.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = perform(open, http.MethodPost, "/", map[string]string{"Origin": "https://any.example"})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	mw, err := RateLimit(&config.RateLimitConfig{Enabled: true, RequestsPerSec: 0.001, Burst: 2, MaxClients: 4})
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(mw)
	engine.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/", nil).Code)
	assert.Equal(t, http.StatusOK, perform(engine, http.MethodPost, "/", nil).Code)

	w := perform(engine, http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Too many requests", body.Error)
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(Recovery())
	engine.POST("/", func(c *gin.Context) { panic("boom") })

	w := perform(engine, http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"boom"}`, w.Body.String())
}

// memoryStore 内存版幂等存储
type memoryStore struct {
	mu    sync.Mutex
	items map[string]*cache.CachedResponse
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: map[string]*cache.CachedResponse{}}
}

func (s *memoryStore) Claim(_ context.Context, key, fingerprint string) (*cache.CachedResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok {
		cp := *existing
		return &cp, false, nil
	}
	s.items[key] = &cache.CachedResponse{Pending: true, Fingerprint: fingerprint}
	return nil, true, nil
}

func (s *memoryStore) Complete(_ context.Context, key string, resp *cache.CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *resp
	cp.Pending = false
	s.items[key] = &cp
	return nil
}

func (s *memoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func performBody(engine *gin.Engine, body, idempotencyKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(IdempotencyKeyHeader, idempotencyKey)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	status := http.StatusOK

	engine := gin.New()
	engine.Use(Idempotency(store))
	engine.POST("/", func(c *gin.Context) {
		calls++
		c.JSON(status, gin.H{"call": calls})
	})

	key := map[string]string{IdempotencyKeyHeader: "edit-1"}

	first := perform(engine, http.MethodPost, "/", key)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get(ReplayedHeader))

	second := perform(engine, http.MethodPost, "/", key)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	// 没有 key 的请求不缓存
	perform(engine, http.MethodPost, "/", nil)
	assert.Equal(t, 2, calls)

	// 失败响应不缓存
	status = http.StatusBadGateway
	failKey := map[string]string{IdempotencyKeyHeader: "edit-2"}
	perform(engine, http.MethodPost, "/", failKey)
	perform(engine, http.MethodPost, "/", failKey)
	assert.Equal(t, 4, calls)
}

func TestIdempotency_RetryWhileInFlight(t *testing.T) {
	store := newMemoryStore()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	engine := gin.New()
	engine.Use(Idempotency(store))
	engine.POST("/", func(c *gin.Context) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		var in map[string]string
		_ = c.ShouldBindJSON(&in)
		c.JSON(http.StatusOK, gin.H{"echo": in["text"]})
	})

	body := `{"text":"I am really hungry"}`
	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		firstDone <- performBody(engine, body, "edit-1")
	}()
	<-started

	retry := performBody(engine, body, "edit-1")
	assert.Equal(t, http.StatusConflict, retry.Code)
	assert.JSONEq(t, `{"error":"request in progress"}`, retry.Body.String())

	close(release)
	first := <-firstDone
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, `{"echo":"I am really hungry"}`, first.Body.String())

	replay := performBody(engine, body, "edit-1")
	assert.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(ReplayedHeader))
	assert.Equal(t, first.Body.String(), replay.Body.String())

	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_ConcurrentRetriesRunOnce(t *testing.T) {
	store := newMemoryStore()
	var calls atomic.Int32

	engine := gin.New()
	engine.Use(Idempotency(store))
	engine.POST("/", func(c *gin.Context) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var wg sync.WaitGroup
	codes := make([]int, 5)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = performBody(engine, "{}", "edit-1").Code
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, code := range codes {
		assert.Contains(t, []int{http.StatusOK, http.StatusConflict}, code)
	}
	assert.Contains(t, codes, http.StatusConflict)
}

func TestIdempotency_DifferentBody(t *testing.T) {
	store := newMemoryStore()
	calls := 0

	engine := gin.New()
	engine.Use(Idempotency(store))
	engine.POST("/", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"call": calls})
	})

	first := performBody(engine, `{"text":"I am really hungry"}`, "edit-1")
	require.Equal(t, http.StatusOK, first.Code)

	reused := performBody(engine, `{"text":"I am very tired"}`, "edit-1")
	assert.Equal(t, http.StatusUnprocessableEntity, reused.Code)
	assert.Contains(t, reused.Body.String(), "different request body")
	assert.Equal(t, 1, calls)
}

func TestIdempotency_FailureReleasesKey(t *testing.T) {
	store := newMemoryStore()
	status := http.StatusBadGateway

	engine := gin.New()
	engine.Use(Idempotency(store))
	engine.POST("/", func(c *gin.Context) {
		c.JSON(status, gin.H{})
	})

	assert.Equal(t, http.StatusBadGateway, performBody(engine, "{}", "edit-1").Code)
	assert.Empty(t, store.items)

	status = http.StatusOK
	assert.Equal(t, http.StatusOK, performBody(engine, "{}", "edit-1").Code)
	assert.False(t, store.items[cache.IdempotencyCacheKey("192.0.2.1", "edit-1")].Pending)
}
