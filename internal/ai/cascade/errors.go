package cascade

import (
	"errors"
	"fmt"
)

// 错误分类，配合 errors.Is 使用
var (
	ErrTransientUpstream = errors.New("transient upstream error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrExhausted         = errors.New("all models failed")
	ErrConfiguration     = errors.New("configuration error")
)

// AttemptError 单次尝试失败的原因
type AttemptError struct {
	Model   string
	Outcome Outcome
	Err     error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Outcome, e.Err)
}

func (e *AttemptError) Unwrap() []error {
	return []error{e.Outcome.class(), e.Err}
}

// ExhaustionError 所有候选模型都失败
// Last 为最后一次尝试的原因
type ExhaustionError struct {
	Attempts []ModelAttempt
	Last     error
}

func (e *ExhaustionError) Error() string {
	if e.Last == nil {
		return ErrExhausted.Error()
	}
	return ErrExhausted.Error() + ": " + e.Last.Error()
}

func (e *ExhaustionError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrExhausted}
	}
	return []error{ErrExhausted, e.Last}
}

// Details 面向客户端的失败说明
func (e *ExhaustionError) Details() string {
	if e.Last == nil {
		return "no models configured"
	}
	return e.Last.Error()
}
