package wallet

import (
	"strings"

	xerrors "OpenMCP-Wallet/internal/errors"
)

// Content 是结果中的一个文本块。
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result 是每个工具调用唯一的返回形态。Code 与 Retryable 只在失败时设置。
type Result struct {
	Content   []Content    `json:"content"`
	IsError   bool         `json:"isError"`
	Code      xerrors.Code `json:"code,omitempty"`
	Retryable bool         `json:"retryable,omitempty"`
}

// Success 构造成功信封。
func Success(message string) Result {
	return Result{Content: []Content{{Type: "text", Text: message}}}
}

// FailureWithCode 构造带错误码的失败信封。
func FailureWithCode(code xerrors.Code, message string) Result {
	return Result{
		Content: []Content{{Type: "text", Text: message}},
		IsError: true,
		Code:    code,
	}
}

// Text 拼接所有文本块。
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n")
}
