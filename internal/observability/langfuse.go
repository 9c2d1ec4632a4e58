package observability

import (
	"context"

	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
	"github.com/rs/zerolog/log"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/pkg/ctxutil"
)

// LangfuseRecorder 把每次模型尝试记录为 Langfuse generation
// 同一请求的尝试挂在以 request_id 为 ID 的 trace 下
// 凭证由 SDK 从 LANGFUSE_HOST / LANGFUSE_PUBLIC_KEY / LANGFUSE_SECRET_KEY 读取
type LangfuseRecorder struct {
	client *langfuse.Langfuse
}

// NewLangfuseRecorder 创建 Langfuse 记录器
func NewLangfuseRecorder(ctx context.Context) *LangfuseRecorder {
	return &LangfuseRecorder{client: langfuse.New(ctx)}
}

// Record 实现 cascade.Recorder
func (r *LangfuseRecorder) Record(ctx context.Context, attempt cascade.ModelAttempt) {
	requestID, _ := ctxutil.GetRequestID(ctx)

	trace, err := r.client.Trace(&model.Trace{
		ID:       requestID,
		Name:     "rewrite",
		Metadata: map[string]any{"request_id": requestID},
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to create langfuse trace")
		return
	}

	start := attempt.StartedAt
	end := start.Add(attempt.Duration)
	gen := &model.Generation{
		TraceID:   trace.ID,
		Name:      "cascade-attempt",
		StartTime: &start,
		Model:     attempt.ModelID,
		Output:    attempt.RawContent,
		Usage: model.Usage{
			Input:  attempt.PromptTokens,
			Output: attempt.CompletionTokens,
			Total:  attempt.PromptTokens + attempt.CompletionTokens,
			Unit:   model.ModelUsageUnitTokens,
		},
		Metadata: map[string]any{"outcome": string(attempt.Outcome)},
	}
	if attempt.Outcome != cascade.OutcomeSuccess {
		gen.Level = model.ObservationLevel("WARNING")
		if attempt.Err != nil {
			gen.StatusMessage = attempt.Err.Error()
		}
	}

	gen, err = r.client.Generation(gen, nil)
	if err != nil {
		log.Warn().Err(err).Msg("failed to create langfuse generation")
		return
	}
	gen.EndTime = &end
	if _, err := r.client.GenerationEnd(gen); err != nil {
		log.Warn().Err(err).Msg("failed to end langfuse generation")
	}
}

// Flush 发送排队中的事件
func (r *LangfuseRecorder) Flush(ctx context.Context) {
	r.client.Flush(ctx)
}
