package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"gridscape/internal/ai/prompt"
)

// DefaultAttemptTimeout 单次尝试默认超时
const DefaultAttemptTimeout = 10 * time.Second

// Candidate 瀑布中的一个候选模型
type Candidate struct {
	ModelID string
	Model   model.BaseChatModel
}

// Request 一次瀑布执行的输入
type Request struct {
	Prompt       prompt.ComposedPrompt
	Temperature  float32
	RequiredKeys [][]string
}

// Result 成功结果
type Result struct {
	ModelID  string
	Content  string // 清理后的 JSON 字符串
	Message  *schema.Message
	Attempts []ModelAttempt
}

// Executor 按顺序尝试候选模型，返回第一个合法结果
// 无状态，可被并发调用
type Executor struct {
	candidates []Candidate
	timeout    time.Duration
	recorder   Recorder
	now        func() time.Time
}

// Option 执行器选项
type Option func(*Executor)

// WithAttemptTimeout 设置单次尝试超时
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRecorder 设置尝试记录器
func WithRecorder(r Recorder) Option {
	return func(e *Executor) {
		e.recorder = r
	}
}

// NewExecutor 创建瀑布执行器
func NewExecutor(candidates []Candidate, opts ...Option) *Executor {
	e := &Executor{
		candidates: candidates,
		timeout:    DefaultAttemptTimeout,
		recorder:   LogRecorder{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Models 返回候选模型 ID 列表
func (e *Executor) Models() []string {
	ids := make([]string, len(e.candidates))
	for i, c := range e.candidates {
		ids[i] = c.ModelID
	}
	return ids
}

// Run 执行瀑布
// 调用方取消时立即返回 ctx.Err()，不视为耗尽
func (e *Executor) Run(ctx context.Context, req *Request) (*Result, error) {
	messages := []*schema.Message{
		schema.SystemMessage(req.Prompt.SystemInstructions),
		schema.UserMessage(req.Prompt.UserMessage),
	}
	opts := []model.Option{model.WithTemperature(req.Temperature)}

	attempts := make([]ModelAttempt, 0, len(e.candidates))
	var last error

	for _, c := range e.candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempt, cleaned, msg := e.attempt(ctx, c, messages, opts, req.RequiredKeys)
		attempts = append(attempts, attempt)
		if e.recorder != nil {
			e.recorder.Record(ctx, attempt)
		}

		switch attempt.Outcome {
		case OutcomeSuccess:
			return &Result{
				ModelID:  c.ModelID,
				Content:  cleaned,
				Message:  msg,
				Attempts: attempts,
			}, nil
		case OutcomeCanceled:
			return nil, ctx.Err()
		}

		last = &AttemptError{Model: c.ModelID, Outcome: attempt.Outcome, Err: attempt.Err}
	}

	return nil, &ExhaustionError{Attempts: attempts, Last: last}
}

type generateResult struct {
	msg *schema.Message
	err error
}

// attempt 在独立的超时 context 中调用一次模型
// 超时后 context 被取消，迟到的结果写入带缓冲的 channel 后被丢弃
func (e *Executor) attempt(ctx context.Context, c Candidate, messages []*schema.Message, opts []model.Option, required [][]string) (ModelAttempt, string, *schema.Message) {
	attempt := ModelAttempt{ModelID: c.ModelID, StartedAt: e.now()}

	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan generateResult, 1)
	go func() {
		msg, err := c.Model.Generate(attemptCtx, messages, opts...)
		done <- generateResult{msg: msg, err: err}
	}()

	var res generateResult
	select {
	case res = <-done:
	case <-attemptCtx.Done():
		res.err = attemptCtx.Err()
	}
	attempt.Duration = e.now().Sub(attempt.StartedAt)

	if res.err != nil {
		attempt.Err = res.err
		switch {
		case ctx.Err() != nil:
			attempt.Outcome = OutcomeCanceled
		case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
			attempt.Outcome = OutcomeTimeout
			attempt.Err = fmt.Errorf("no response within %s: %w", e.timeout, res.err)
		default:
			attempt.Outcome = OutcomeHTTPError
		}
		return attempt, "", nil
	}

	if res.msg == nil {
		attempt.Outcome = OutcomeEmptyContent
		attempt.Err = errors.New("empty response")
		return attempt, "", nil
	}
	if usage := res.msg.ResponseMeta; usage != nil && usage.Usage != nil {
		attempt.PromptTokens = usage.Usage.PromptTokens
		attempt.CompletionTokens = usage.Usage.CompletionTokens
	}
	attempt.RawContent = res.msg.Content

	cleaned := Clean(res.msg.Content)
	outcome, err := Validate(cleaned, required)
	attempt.Outcome = outcome
	attempt.Err = err
	if outcome != OutcomeSuccess {
		return attempt, "", nil
	}
	return attempt, cleaned, res.msg
}
