package cascade

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// 代码块标记，允许带语言标签（```json、```JSON 等）
	fencePattern = regexp.MustCompile("```[A-Za-z0-9_+-]*")

	// 推理模型输出的思考块，标签必须成对
	thinkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<think>.*?</think>`),
		regexp.MustCompile(`(?is)<thinking>.*?</thinking>`),
		regexp.MustCompile(`(?is)<reasoning>.*?</reasoning>`),
	}
)

// Clean 清理模型返回内容
// 顺序：移除思考块 -> 截取第一个 { 到最后一个 } -> 去除首尾空白
// 代码块标记只出现在 JSON 之外，截取即可去掉；JSON 字符串值中的 ``` 保持原样
// 没有花括号时才移除代码块标记
// Clean(Clean(s)) == Clean(s)
func Clean(content string) string {
	content = stripThink(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(content[start : end+1])
	}

	return strings.TrimSpace(stripAll(content))
}

// stripThink 反复移除思考块直到不再变化，避免删除后拼出新的标记
func stripThink(content string) string {
	for {
		next := content
		for _, p := range thinkPatterns {
			next = p.ReplaceAllString(next, "")
		}
		if next == content {
			return content
		}
		content = next
	}
}

// stripAll 同时移除代码块标记和思考块，直到不再变化
func stripAll(content string) string {
	for {
		next := stripThink(fencePattern.ReplaceAllString(content, ""))
		if next == content {
			return content
		}
		content = next
	}
}

// Validate 检查清理后的内容是否为合法结果
// required 中每组字段至少有一个是非空字符串
func Validate(cleaned string, required [][]string) (Outcome, error) {
	if cleaned == "" {
		return OutcomeEmptyContent, errors.New("empty content after cleaning")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return OutcomeInvalidJSON, fmt.Errorf("parse json: %w", err)
	}
	if obj == nil {
		return OutcomeInvalidJSON, errors.New("parse json: not an object")
	}

	for _, group := range required {
		if !anyNonEmpty(obj, group) {
			return OutcomeMissingKeys, fmt.Errorf("missing required key %s", strings.Join(group, " or "))
		}
	}

	return OutcomeSuccess, nil
}

func anyNonEmpty(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
