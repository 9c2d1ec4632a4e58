package chain

import (
	"context"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/ai/component"
	"gridscape/internal/ai/prompt"
)

// RewriteChain 改写链
// 工作流: 请求 -> Composer 组装提示词 -> Executor 模型瀑布 -> 清理后的 JSON
type RewriteChain struct {
	composer *prompt.Composer
	executor *cascade.Executor

	temperature         float32
	creativeTemperature float32
}

// RewriteResponse 改写结果
type RewriteResponse struct {
	Content      string // 清理后的 JSON 字符串
	ModelID      string // 最终成功的模型
	UpstreamID   string // 上游分配的生成 id，可能为空
	FinishReason string
	PromptTokens int
	OutputTokens int
	Attempts     []cascade.ModelAttempt
}

// NewRewriteChain 创建改写链
func NewRewriteChain(executor *cascade.Executor, temperature, creativeTemperature float64) *RewriteChain {
	return &RewriteChain{
		composer:            prompt.NewComposer(),
		executor:            executor,
		temperature:         float32(temperature),
		creativeTemperature: float32(creativeTemperature),
	}
}

// Run 执行改写
func (c *RewriteChain) Run(ctx context.Context, req *prompt.RewriteRequest) (*RewriteResponse, error) {
	composed, err := c.composer.Compose(*req)
	if err != nil {
		return nil, err
	}

	temperature := c.temperature
	if prompt.Creative(req.Operation) {
		temperature = c.creativeTemperature
	}

	res, err := c.executor.Run(ctx, &cascade.Request{
		Prompt:       composed,
		Temperature:  temperature,
		RequiredKeys: prompt.RequiredKeys(req.Operation),
	})
	if err != nil {
		return nil, err
	}

	resp := &RewriteResponse{
		Content:  res.Content,
		ModelID:  res.ModelID,
		Attempts: res.Attempts,
	}
	resp.UpstreamID = component.ResponseID(res.Message)
	if meta := res.Message.ResponseMeta; meta != nil {
		resp.FinishReason = meta.FinishReason
		if meta.Usage != nil {
			resp.PromptTokens = meta.Usage.PromptTokens
			resp.OutputTokens = meta.Usage.CompletionTokens
		}
	}
	return resp, nil
}

// Models 返回瀑布中的模型顺序
func (c *RewriteChain) Models() []string {
	return c.executor.Models()
}
