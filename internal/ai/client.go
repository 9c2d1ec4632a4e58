package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/ai/chain"
	"gridscape/internal/ai/component"
	"gridscape/internal/config"
)

// Client AI 能力层客户端
// 职责: 根据配置组装模型瀑布和改写链
type Client struct {
	rewriteChain *chain.RewriteChain
}

// NewClient 创建 AI 客户端
func NewClient(ctx context.Context, gw *config.GatewayConfig, cc *config.CascadeConfig, recorder cascade.Recorder) (*Client, error) {
	if !gw.HasAPIKey() {
		log.Warn().Msg("gateway API key not configured, rewrite requests will be rejected")
	}

	candidates, err := component.NewCandidates(ctx, gw, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create model candidates: %w", err)
	}

	opts := []cascade.Option{cascade.WithAttemptTimeout(cc.AttemptTimeout)}
	if recorder != nil {
		opts = append(opts, cascade.WithRecorder(recorder))
	}
	executor := cascade.NewExecutor(candidates, opts...)

	log.Info().
		Str("provider", gw.Provider).
		Strs("models", executor.Models()).
		Dur("attempt_timeout", cc.AttemptTimeout).
		Msg("model cascade ready")

	return &Client{
		rewriteChain: chain.NewRewriteChain(executor, cc.Temperature, cc.CreativeTemperature),
	}, nil
}

// RewriteChain 返回改写链
func (c *Client) RewriteChain() *chain.RewriteChain {
	return c.rewriteChain
}

// Close 关闭客户端
func (c *Client) Close() error {
	return nil
}
