package prompt

import (
	"fmt"
	"strings"
)

// Operation 改写操作族
type Operation string

const (
	OperationElevate Operation = "ELEVATE" // sophisticate
	OperationGround  Operation = "GROUND"  // simplify
	OperationExpand  Operation = "EXPAND"  // emotional
	OperationCustom  Operation = "CUSTOM"
	OperationDefine  Operation = "DEFINE"
)

// Register 文本语域
type Register string

const (
	RegisterSpeaking Register = "SPEAKING"
	RegisterWriting  Register = "WRITING"
)

// 支持的强度区间，超出范围时夹紧而不是报错
const (
	MinLevel     = 1
	MaxLevel     = 2
	DefaultLevel = MinLevel
)

// RewriteRequest 一次改写/释义请求的描述
type RewriteRequest struct {
	Text              string
	Operation         Operation
	Register          Register
	Level             int
	CustomInstruction string // 仅 CUSTOM 有意义：人设名称或自由指令
	ContextHint       string // 上一步的改写理由；DEFINE 时为单词所在的句子
}

// ComposedPrompt 组装好的 system/user 消息对
type ComposedPrompt struct {
	SystemInstructions string
	UserMessage        string
}

// modeOperations 前端 mode 字段到操作的映射
var modeOperations = map[string]Operation{
	"sophisticate": OperationElevate,
	"simplify":     OperationGround,
	"emotional":    OperationExpand,
	"custom":       OperationCustom,
}

// TaskDefine task 字段为 define 时覆盖 mode
const TaskDefine = "define"

// ParseOperation 根据 mode/task 字段解析操作
func ParseOperation(mode, task string) (Operation, error) {
	if strings.EqualFold(strings.TrimSpace(task), TaskDefine) {
		return OperationDefine, nil
	}

	op, ok := modeOperations[strings.ToLower(strings.TrimSpace(mode))]
	if !ok {
		if mode == "" {
			return "", &ValidationError{Field: "mode", Reason: "is required"}
		}
		return "", &ValidationError{
			Field:  "mode",
			Reason: fmt.Sprintf("unsupported value %q (allowed: sophisticate, simplify, emotional, custom)", mode),
		}
	}
	return op, nil
}

// ParseRegister 解析 contextMode 字段，未知值回落到 SPEAKING
func ParseRegister(contextMode string) Register {
	if strings.EqualFold(strings.TrimSpace(contextMode), "writing") {
		return RegisterWriting
	}
	return RegisterSpeaking
}

// ClampLevel 把强度夹紧到支持的区间，0 表示未指定
func ClampLevel(level int) int {
	switch {
	case level < MinLevel:
		return DefaultLevel
	case level > MaxLevel:
		return MaxLevel
	default:
		return level
	}
}

// ValidationError 入站请求不合法，不会触发任何上游调用
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}
