// Package mcpserver 通过 Model Context Protocol 暴露钱包工具。每个工具调用
// 都返回一个结果信封：失败时 isError 为 true，错误码放在 structuredContent
// 中，传输层错误只在协议本身出错时出现。
package mcpserver
