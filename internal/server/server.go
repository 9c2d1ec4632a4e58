package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gridscape/docs"
	"gridscape/internal/ai"
	"gridscape/internal/ai/cascade"
	"gridscape/internal/config"
	"gridscape/internal/handler"
	"gridscape/internal/pkg/cache"
	"gridscape/internal/server/middleware"
	"gridscape/internal/service"
)

// NetlifyUpgradePath 现有前端使用的路径
const NetlifyUpgradePath = "/.netlify/functions/upgrade"

// Server HTTP 服务器
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	redis      *cache.RedisCache
	aiClient   *ai.Client
	rewriteSvc *service.RewriteService
	sentry     bool
}

// Option 服务器选项
type Option func(*Server)

// WithSentry 启用 Sentry 中间件
func WithSentry(enabled bool) Option {
	return func(s *Server) {
		s.sentry = enabled
	}
}

// New 创建服务器实例
// recorder 接收每次模型尝试的诊断记录，可为 nil
func New(ctx context.Context, cfg *config.Config, recorder cascade.Recorder, opts ...Option) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 初始化 Redis (可选，用于幂等重放)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, idempotent replay disabled")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	// 初始化模型瀑布
	aiClient, err := ai.NewClient(ctx, &cfg.Gateway, &cfg.Cascade, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	srv := &Server{
		cfg:        cfg,
		engine:     engine,
		redis:      redisCache,
		aiClient:   aiClient,
		rewriteSvc: service.NewRewriteService(aiClient.RewriteChain(), cfg.Gateway.HasAPIKey(), service.NewInflight()),
	}
	for _, opt := range opts {
		opt(srv)
	}

	// 设置路由
	if err := srv.setupRoutes(); err != nil {
		return nil, err
	}

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() error {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	if s.sentry {
		s.engine.Use(middleware.Sentry())
	}
	s.engine.Use(middleware.Logger("/health", "/ready"))
	s.engine.Use(middleware.CORS(s.cfg.Server.CORSOrigins))

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.rewriteSvc.Ready, s.aiClient.RewriteChain().Models())
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 改写接口
	upgrade := []gin.HandlerFunc{}
	if s.cfg.RateLimit.Enabled {
		limiter, err := middleware.RateLimit(&s.cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("failed to create rate limiter: %w", err)
		}
		upgrade = append(upgrade, limiter)
	}
	if s.redis != nil {
		// 处理中标记不超过单个响应的写超时
		store := cache.NewIdempotencyStore(s.redis, s.cfg.Redis.IdempotencyTTL, s.cfg.Server.WriteTimeout)
		upgrade = append(upgrade, middleware.Idempotency(store))
	}

	rewriteHandler := handler.NewRewriteHandler(s.rewriteSvc)
	upgrade = append(upgrade, rewriteHandler.Upgrade)
	s.engine.Any("/api/upgrade", upgrade...)
	s.engine.Any(NetlifyUpgradePath, upgrade...)

	return nil
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		err := srv.Shutdown(context.Background())
		s.close()
		return err
	case err := <-errCh:
		s.close()
		return err
	}
}

func (s *Server) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
	if err := s.aiClient.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close AI client")
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
