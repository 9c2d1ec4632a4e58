package prompt

import (
	"strings"
)

const (
	rewriteSystemPrompt = `You are an expert Applied Linguist and Writing Coach.
Your goal is to rewrite user text to help language learners understand different registers and styles.

CRITICAL RULES:
1. PRESERVE MEANING: Do not change the facts or the fundamental truth of the sentence.
2. EDUCATIONAL VALUE: The 'reason' field must name the linguistic mechanism used (e.g. "Used a participial phrase", "Nominalization for weight").
3. BREVITY: The 'reason' field must be at most 15 words.
4. OUTPUT FORMAT: Respond with a single JSON object containing exactly these fields: 'text' (the rewritten sentence) and 'reason'. No surrounding prose, no markdown, no code fences.`

	defineSystemPrompt = `You are an Etymologist and Lexicographer.
CRITICAL RULES:
1. PRESERVE MEANING: Define the word exactly as it is used in the given context; do not invent facts.
2. BREVITY: 'definition' at most 15 words; 'nuance' at most 10 words, explaining the flavor, connotation, or register of the word.
3. OUTPUT FORMAT: Respond with a single JSON object containing exactly these fields: 'definition' and 'nuance'. No surrounding prose, no markdown, no code fences.`

	closingDirective = "Final Constraint: Ensure the output is distinctly different from the input. Never return the original text unchanged. Do not loop."
)

// registerNote 语域对措辞的影响
var registerNote = map[Register]string{
	RegisterSpeaking: "Register: SPEAKING. The result should sound natural when said aloud.",
	RegisterWriting:  "Register: WRITING. The result should read well on the page.",
}

// Composer 提示词组装器，无状态、无 I/O
type Composer struct{}

// NewComposer 创建提示词组装器
func NewComposer() *Composer {
	return &Composer{}
}

// Compose 把请求翻译为 system/user 消息对
// 同一请求多次调用得到的结果逐字节相同
func (c *Composer) Compose(req RewriteRequest) (ComposedPrompt, error) {
	if strings.TrimSpace(req.Text) == "" {
		return ComposedPrompt{}, &ValidationError{Field: "text", Reason: "must not be empty"}
	}

	switch req.Operation {
	case OperationDefine:
		return composeDefine(req), nil
	case OperationElevate, OperationGround, OperationExpand, OperationCustom:
		return composeRewrite(req), nil
	default:
		return ComposedPrompt{}, &ValidationError{Field: "operation", Reason: "is not supported"}
	}
}

func composeRewrite(req RewriteRequest) ComposedPrompt {
	register := req.Register
	if _, ok := registerNote[register]; !ok {
		register = RegisterSpeaking
	}

	var block string
	if req.Operation == OperationCustom {
		block = customBlock(req.CustomInstruction)
	} else {
		block = lookupLadder(req.Operation, register, ClampLevel(req.Level))
	}

	var b strings.Builder
	b.WriteString(`Original Text: "`)
	b.WriteString(req.Text)
	b.WriteString("\".\n")
	b.WriteString(block)
	b.WriteString("\n")
	b.WriteString(registerNote[register])
	b.WriteString("\n")
	if hint := strings.TrimSpace(req.ContextHint); hint != "" {
		b.WriteString(`Context from previous step: "`)
		b.WriteString(hint)
		b.WriteString("\".\n")
	}
	b.WriteString(closingDirective)

	return ComposedPrompt{
		SystemInstructions: rewriteSystemPrompt,
		UserMessage:        b.String(),
	}
}

func composeDefine(req RewriteRequest) ComposedPrompt {
	var b strings.Builder
	b.WriteString(`Define the word "`)
	b.WriteString(req.Text)
	b.WriteString(`"`)
	if hint := strings.TrimSpace(req.ContextHint); hint != "" {
		b.WriteString(` as it is used in this specific context: "`)
		b.WriteString(req.ContextHint)
		b.WriteString(`"`)
	}
	b.WriteString(".")

	return ComposedPrompt{
		SystemInstructions: defineSystemPrompt,
		UserMessage:        b.String(),
	}
}

// RequiredKeys 结果 JSON 必须包含的字段
// 每组内任意一个字段非空即可满足
func RequiredKeys(op Operation) [][]string {
	if op == OperationDefine {
		return [][]string{{"definition"}, {"nuance", "transcription"}}
	}
	return [][]string{{"text"}, {"reason"}}
}

// Creative 是否为偏重多样性的任务
func Creative(op Operation) bool {
	return op == OperationExpand || op == OperationCustom
}
