package cascade

import (
	"context"
	"time"

	"gridscape/internal/pkg/ctxutil"
	"gridscape/internal/pkg/logger"
)

// Outcome 单次尝试的结果分类
type Outcome string

const (
	OutcomeSuccess      Outcome = "SUCCESS"
	OutcomeHTTPError    Outcome = "HTTP_ERROR"
	OutcomeTimeout      Outcome = "TIMEOUT"
	OutcomeEmptyContent Outcome = "EMPTY_CONTENT"
	OutcomeInvalidJSON  Outcome = "INVALID_JSON"
	OutcomeMissingKeys  Outcome = "MISSING_KEYS"
	OutcomeCanceled     Outcome = "CANCELED"
)

func (o Outcome) class() error {
	switch o {
	case OutcomeHTTPError, OutcomeTimeout:
		return ErrTransientUpstream
	case OutcomeEmptyContent, OutcomeInvalidJSON, OutcomeMissingKeys:
		return ErrMalformedResponse
	case OutcomeCanceled:
		return context.Canceled
	default:
		return nil
	}
}

// ModelAttempt 一次模型调用的诊断记录，只用于日志和追踪
type ModelAttempt struct {
	ModelID    string
	StartedAt  time.Time
	Duration   time.Duration
	Outcome    Outcome
	RawContent string
	Err        error

	PromptTokens     int
	CompletionTokens int
}

// Recorder 接收每次尝试的诊断记录
type Recorder interface {
	Record(ctx context.Context, attempt ModelAttempt)
}

// RecorderFunc 函数适配器
type RecorderFunc func(ctx context.Context, attempt ModelAttempt)

func (f RecorderFunc) Record(ctx context.Context, attempt ModelAttempt) {
	f(ctx, attempt)
}

// MultiRecorder 依次分发给多个 Recorder
type MultiRecorder []Recorder

func (m MultiRecorder) Record(ctx context.Context, attempt ModelAttempt) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, attempt)
		}
	}
}

// LogRecorder 使用全局 zerolog 输出尝试记录
type LogRecorder struct{}

func (LogRecorder) Record(ctx context.Context, attempt ModelAttempt) {
	requestID, _ := ctxutil.GetRequestID(ctx)
	l := logger.WithRequestID(requestID)

	event := l.Info()
	if attempt.Outcome != OutcomeSuccess {
		event = l.Warn().Err(attempt.Err)
	}
	event.
		Str("model", attempt.ModelID).
		Str("outcome", string(attempt.Outcome)).
		Dur("latency", attempt.Duration).
		Int("prompt_tokens", attempt.PromptTokens).
		Int("completion_tokens", attempt.CompletionTokens).
		Msg("model attempt")
}
