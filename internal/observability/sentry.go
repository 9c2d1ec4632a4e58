package observability

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/config"
)

// SentryFlushTimeout 退出时等待事件发送的时间
const SentryFlushTimeout = 2 * time.Second

// sensitiveHeaders 上报前移除的请求头
var sensitiveHeaders = []string{"authorization", "cookie", "x-api-key", "idempotency-key"}

// InitSentry 初始化 Sentry，DSN 为空时返回 false
func InitSentry(cfg *config.SentryConfig, release string) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     "gridscape@" + release,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil {
				event.Request.Headers = FilterSensitiveHeaders(event.Request.Headers)
			}
			return event
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// FilterSensitiveHeaders 移除认证类请求头
func FilterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string, len(headers))
	for k, v := range headers {
		if isSensitive(k) {
			continue
		}
		filtered[k] = v
	}
	return filtered
}

func isSensitive(header string) bool {
	for _, h := range sensitiveHeaders {
		if strings.EqualFold(header, h) {
			return true
		}
	}
	return false
}

// SentryRecorder 把失败的模型尝试记录为 breadcrumb
type SentryRecorder struct{}

// Record 实现 cascade.Recorder
func (SentryRecorder) Record(ctx context.Context, attempt cascade.ModelAttempt) {
	if attempt.Outcome == cascade.OutcomeSuccess {
		return
	}
	data := map[string]any{
		"model":      attempt.ModelID,
		"outcome":    string(attempt.Outcome),
		"latency_ms": attempt.Duration.Milliseconds(),
	}
	if attempt.Err != nil {
		data["error"] = attempt.Err.Error()
	}
	hubFromContext(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category: "cascade",
		Message:  "model attempt failed",
		Level:    sentry.LevelWarning,
		Data:     data,
	}, nil)
}

// CaptureError 上报错误，使用请求 context 中的 hub
func CaptureError(ctx context.Context, err error) {
	hubFromContext(ctx).CaptureException(err)
}

func hubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}
