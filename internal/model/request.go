package model

// UpgradeRequest 改写/释义请求
// 字段名与现有前端保持一致
type UpgradeRequest struct {
	Text         string `json:"text"`                   // 原文；task=define 时为单词
	Mode         string `json:"mode"`                   // sophisticate, simplify, emotional, custom
	CustomPrompt string `json:"customPrompt,omitempty"` // custom 模式的人设或指令
	Task         string `json:"task,omitempty"`         // define 时覆盖 mode
	Level        int    `json:"level,omitempty"`        // 强度 1..2，超出范围时夹紧
	ContextMode  string `json:"contextMode,omitempty"`  // speaking 或 writing
	Context      string `json:"context,omitempty"`      // 上一步的改写理由，或单词所在句子
	NodeID       string `json:"nodeId,omitempty"`       // 编辑图中的节点，用于取消过期请求
}
