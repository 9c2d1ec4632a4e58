package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/ai/chain"
	"gridscape/internal/ai/prompt"
	"gridscape/internal/model"
	"gridscape/internal/pkg/id"
)

// Rewriter 改写链抽象，便于测试替换
type Rewriter interface {
	Run(ctx context.Context, req *prompt.RewriteRequest) (*chain.RewriteResponse, error)
}

// RewriteService 改写服务
type RewriteService struct {
	rewriter Rewriter
	hasKey   bool
	inflight *Inflight
	now      func() time.Time
}

// NewRewriteService 创建改写服务
// hasKey 为 false 时所有请求都返回配置错误，不会调用上游
func NewRewriteService(rewriter Rewriter, hasKey bool, inflight *Inflight) *RewriteService {
	return &RewriteService{
		rewriter: rewriter,
		hasKey:   hasKey,
		inflight: inflight,
		now:      time.Now,
	}
}

// Ready 网关凭证是否可用
func (s *RewriteService) Ready() bool {
	return s.hasKey
}

// Rewrite 执行改写或释义
// scope 标识客户端会话，和 nodeId 一起决定哪些请求互相取代
func (s *RewriteService) Rewrite(ctx context.Context, req *model.UpgradeRequest, scope string) (*model.ChatCompletion, error) {
	if !s.hasKey {
		return nil, fmt.Errorf("%w: gateway api key missing", cascade.ErrConfiguration)
	}

	rewriteReq, err := ToRewriteRequest(req)
	if err != nil {
		return nil, err
	}

	logger := log.With().
		Str("operation", string(rewriteReq.Operation)).
		Str("register", string(rewriteReq.Register)).
		Int("level", rewriteReq.Level).
		Str("node_id", req.NodeID).
		Logger()

	if req.NodeID != "" && s.inflight != nil {
		var release func()
		ctx, release = s.inflight.Acquire(ctx, scope+"|"+req.NodeID)
		defer release()
	}

	resp, err := s.rewriter.Run(ctx, rewriteReq)
	if err != nil {
		if errors.Is(context.Cause(ctx), ErrSuperseded) {
			logger.Info().Msg("rewrite superseded")
			return nil, ErrSuperseded
		}
		logger.Error().Err(err).Msg("rewrite failed")
		return nil, err
	}

	logger.Info().
		Str("model", resp.ModelID).
		Int("attempts", len(resp.Attempts)).
		Int("prompt_tokens", resp.PromptTokens).
		Int("output_tokens", resp.OutputTokens).
		Msg("rewrite completed")

	finishReason := resp.FinishReason
	if finishReason == "" {
		finishReason = "stop"
	}

	// 上游 id 优先，created 为本服务完成时间
	completionID := resp.UpstreamID
	if completionID == "" {
		completionID = "gen-" + id.New()
	}

	return &model.ChatCompletion{
		ID:      completionID,
		Object:  "chat.completion",
		Created: s.now().Unix(),
		Model:   resp.ModelID,
		Choices: []model.ChatChoice{{
			Index:        0,
			Message:      model.ChatMessage{Role: "assistant", Content: resp.Content},
			FinishReason: finishReason,
		}},
		Usage: &model.TokenUsage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.OutputTokens,
			TotalTokens:      resp.PromptTokens + resp.OutputTokens,
		},
	}, nil
}

// ToRewriteRequest 把入站请求转换为领域请求
func ToRewriteRequest(req *model.UpgradeRequest) (*prompt.RewriteRequest, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &prompt.ValidationError{Field: "text", Reason: "is required"}
	}

	op, err := prompt.ParseOperation(req.Mode, req.Task)
	if err != nil {
		return nil, err
	}

	return &prompt.RewriteRequest{
		Text:              req.Text,
		Operation:         op,
		Register:          prompt.ParseRegister(req.ContextMode),
		Level:             prompt.ClampLevel(req.Level),
		CustomInstruction: req.CustomPrompt,
		ContextHint:       req.Context,
	}, nil
}
