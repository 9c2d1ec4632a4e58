package observability

import (
	"context"

	"github.com/rs/zerolog/log"

	"gridscape/internal/ai/cascade"
	"gridscape/internal/config"
)

// Recorders 根据配置组装尝试记录器
// 返回的 flush 在退出前调用
func Recorders(ctx context.Context, cfg *config.Config, sentryEnabled bool) (cascade.Recorder, func(context.Context)) {
	recorders := cascade.MultiRecorder{cascade.LogRecorder{}}
	flush := func(context.Context) {}

	if sentryEnabled {
		recorders = append(recorders, SentryRecorder{})
	}

	if cfg.Langfuse.Enabled {
		lf := NewLangfuseRecorder(ctx)
		recorders = append(recorders, lf)
		flush = lf.Flush
		log.Info().Msg("langfuse tracing enabled")
	}

	return recorders, flush
}
