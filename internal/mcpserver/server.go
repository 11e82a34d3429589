package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"OpenMCP-Wallet/internal/wallet"
	"OpenMCP-Wallet/pkg/logger"
)

// Name 是 MCP 握手时上报的实现名称。
const Name = "solwallet"

// Server 把钱包服务暴露为 MCP 工具。
type Server struct {
	svc     *wallet.Service
	server  *mcp.Server
	version string
	logger  *slog.Logger
}

// Option 定义可选配置。
type Option func(*Server)

// WithVersion 设置握手时上报的版本号。
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// WithLogger 指定日志输出。
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer 构造 MCP 服务并注册全部工具。
func NewServer(svc *wallet.Service, opts ...Option) *Server {
	s := &Server{svc: svc, version: "dev", logger: logger.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.server = mcp.NewServer(&mcp.Implementation{Name: Name, Version: s.version}, nil)
	handlers := bindings(svc)
	for _, tool := range Catalogue() {
		s.server.AddTool(tool, handlers[tool.Name])
	}
	return s
}

// Start 通过 stdio 提供服务，直到客户端断开或上下文取消。
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("MCP 服务已启动", slog.String("transport", "stdio"), slog.String("version", s.version))
	err := s.server.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Info("MCP 服务已停止")
	return nil
}

// Connect 在任意传输上建立一个会话。
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// bindings 把每个工具名映射到对应的 Service 方法。
func bindings(svc *wallet.Service) map[string]mcp.ToolHandler {
	return map[string]mcp.ToolHandler{
		wallet.ToolGetBalance:        bind(svc, wallet.ToolGetBalance, svc.GetBalance),
		wallet.ToolGetTokenAccounts:  bind(svc, wallet.ToolGetTokenAccounts, svc.GetTokenAccounts),
		wallet.ToolGetTokenBalance:   bind(svc, wallet.ToolGetTokenBalance, svc.GetTokenBalance),
		wallet.ToolCreateTransaction: bind(svc, wallet.ToolCreateTransaction, svc.CreateTransaction),
		wallet.ToolSignTransaction:   bind(svc, wallet.ToolSignTransaction, svc.SignTransaction),
		wallet.ToolSendTransaction:   bind(svc, wallet.ToolSendTransaction, svc.SendTransaction),
		wallet.ToolCheckTransaction:  bind(svc, wallet.ToolCheckTransaction, svc.CheckTransaction),
		wallet.ToolGenerateKeyPair:   bind(svc, wallet.ToolGenerateKeyPair, svc.GenerateKeyPair),
		wallet.ToolImportPrivateKey:  bind(svc, wallet.ToolImportPrivateKey, svc.ImportPrivateKey),
		wallet.ToolValidateAddress:   bind(svc, wallet.ToolValidateAddress, svc.ValidateAddress),
		wallet.ToolSwitchNetwork:     bind(svc, wallet.ToolSwitchNetwork, svc.SwitchNetwork),
		wallet.ToolGetCurrentNetwork: bind(svc, wallet.ToolGetCurrentNetwork, svc.GetCurrentNetwork),
		wallet.ToolSetDefaultWallet:  bind(svc, wallet.ToolSetDefaultWallet, svc.SetDefaultWallet),
		wallet.ToolGenerateMnemonic:  bind(svc, wallet.ToolGenerateMnemonic, svc.GenerateMnemonic),
		wallet.ToolImportMnemonic:    bind(svc, wallet.ToolImportMnemonic, svc.ImportMnemonic),
	}
}

// bind 解码工具参数并调用 fn。参数无法解码时仍返回失败信封，而不是协议错误。
func bind[T any](svc *wallet.Service, tool string, fn func(context.Context, T) wallet.Result) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var in T
		if raw := req.Params.Arguments; len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &in); err != nil {
				return toolResult(svc.InvalidArguments(ctx, tool, err)), nil
			}
		}
		return toolResult(fn(ctx, in)), nil
	}
}

// toolResult 转换信封。失败时错误码与是否可重试放在 structuredContent 中。
func toolResult(res wallet.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: res.IsError}
	for _, c := range res.Content {
		out.Content = append(out.Content, &mcp.TextContent{Text: c.Text})
	}
	if res.IsError {
		out.StructuredContent = map[string]any{"code": string(res.Code), "retryable": res.Retryable}
	}
	return out
}
