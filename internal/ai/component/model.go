package component

import (
	"context"
	"fmt"
	"net/http"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	aclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/config"
)

// DefaultOpenRouterBaseURL OpenRouter 的 OpenAI 兼容入口
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// NewCandidates 按配置顺序为每个模型创建 ChatModel
func NewCandidates(ctx context.Context, gw *config.GatewayConfig, cc *config.CascadeConfig) ([]cascade.Candidate, error) {
	candidates := make([]cascade.Candidate, 0, len(cc.Models))
	for _, id := range cc.Models {
		cm, err := NewChatModel(ctx, gw, cc, id)
		if err != nil {
			return nil, fmt.Errorf("create chat model %s: %w", id, err)
		}
		candidates = append(candidates, cascade.Candidate{ModelID: id, Model: cm})
	}
	return candidates, nil
}

// ResponseID 返回上游为本次生成分配的 id，没有时返回空字符串
func ResponseID(msg *schema.Message) string {
	if msg == nil || msg.Extra == nil {
		return ""
	}
	if id := aclopenai.GetRequestID(msg); id != "" {
		return id
	}
	return arkext.GetArkRequestID(msg)
}

// NewChatModel 创建 ChatModel
// 支持多种 Provider: openrouter, openai, azure, ark
func NewChatModel(ctx context.Context, gw *config.GatewayConfig, cc *config.CascadeConfig, modelID string) (model.BaseChatModel, error) {
	switch gw.Provider {
	case "openrouter", "openai", "":
		return newOpenAIChatModel(ctx, gw, cc, modelID)
	case "azure":
		return newAzureChatModel(ctx, gw, cc, modelID)
	case "ark":
		return newArkChatModel(ctx, gw, cc, modelID)
	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", gw.Provider)
	}
}

// newOpenAIChatModel 创建 OpenAI 兼容 ChatModel（OpenRouter 默认走这里）
func newOpenAIChatModel(ctx context.Context, gw *config.GatewayConfig, cc *config.CascadeConfig, modelID string) (model.BaseChatModel, error) {
	baseURL := gw.BaseURL
	if baseURL == "" && gw.Provider != "openai" {
		baseURL = DefaultOpenRouterBaseURL
	}

	modelCfg := &openai.ChatModelConfig{
		Model:      modelID,
		APIKey:     gw.APIKey,
		BaseURL:    baseURL,
		HTTPClient: newHTTPClient(gw),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	applyOptions(cc, &modelCfg.Temperature, &modelCfg.MaxTokens)

	return openai.NewChatModel(ctx, modelCfg)
}

// newAzureChatModel 创建 Azure OpenAI ChatModel
func newAzureChatModel(ctx context.Context, gw *config.GatewayConfig, cc *config.CascadeConfig, modelID string) (model.BaseChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:      modelID,
		APIKey:     gw.APIKey,
		BaseURL:    gw.BaseURL,
		ByAzure:    true,
		HTTPClient: newHTTPClient(gw),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	applyOptions(cc, &modelCfg.Temperature, &modelCfg.MaxTokens)

	return openai.NewChatModel(ctx, modelCfg)
}

// newArkChatModel 创建 Ark ChatModel（使用 eino-ext 模块）
func newArkChatModel(ctx context.Context, gw *config.GatewayConfig, cc *config.CascadeConfig, modelID string) (model.BaseChatModel, error) {
	baseURL := gw.BaseURL
	if baseURL == "" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	modelCfg := &arkext.ChatModelConfig{
		Model:   modelID,
		APIKey:  gw.APIKey,
		BaseURL: baseURL,
	}
	applyOptions(cc, &modelCfg.Temperature, &modelCfg.MaxTokens)

	return arkext.NewChatModel(ctx, modelCfg)
}

// applyOptions 设置默认模型参数，单次调用可通过 model.WithTemperature 覆盖
func applyOptions(cc *config.CascadeConfig, temperature **float32, maxTokens **int) {
	if cc == nil {
		return
	}
	if cc.Temperature > 0 {
		temp := float32(cc.Temperature)
		*temperature = &temp
	}
	if cc.MaxTokens > 0 {
		n := cc.MaxTokens
		*maxTokens = &n
	}
}

// newHTTPClient 为网关请求附加来源标识头
// 不设置 Timeout，单次尝试的超时由 context 控制
func newHTTPClient(gw *config.GatewayConfig) *http.Client {
	headers := http.Header{}
	if gw.Referer != "" {
		headers.Set("HTTP-Referer", gw.Referer)
	}
	if gw.Title != "" {
		headers.Set("X-Title", gw.Title)
	}
	return &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: headers}}
}

type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header[k] = v
	}
	return t.base.RoundTrip(req)
}
