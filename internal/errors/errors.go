package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code 表示钱包工具返回给调用方的统一错误码。
type Code string

// Severity 描述错误的严重程度，用于告警和审计。
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Attributes 为错误码提供默认行为。
type Attributes struct {
	Message   string
	Severity  Severity
	Retryable bool
	Alert     bool
}

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeInvalidAddress   Code = "INVALID_ADDRESS"
	CodeInvalidAmount    Code = "INVALID_AMOUNT"
	CodeInvalidKey       Code = "INVALID_KEY"
	CodeNoDefaultWallet  Code = "NO_DEFAULT_WALLET"
	CodeDecodeFailure    Code = "DECODE_FAILURE"
	CodeStageMismatch    Code = "STAGE_MISMATCH"
	CodeNotFound         Code = "NOT_FOUND"
	CodeRPCFailure       Code = "RPC_FAILURE"
	CodeSigningFailure   Code = "SIGNING_FAILURE"
	CodeTimeout          Code = "TIMEOUT"
	CodeCacheFailure     Code = "CACHE_FAILURE"
	CodeConfigureFailure Code = "CONFIGURE_FAILURE"
)

var registry = map[Code]Attributes{
	CodeUnknown:          {Message: "unknown error", Severity: SeverityCritical, Alert: true},
	CodeInvalidArgument:  {Message: "invalid input", Severity: SeverityInfo},
	CodeInvalidAddress:   {Message: "invalid address", Severity: SeverityInfo},
	CodeInvalidAmount:    {Message: "invalid amount", Severity: SeverityInfo},
	CodeInvalidKey:       {Message: "invalid private key", Severity: SeverityInfo},
	CodeNoDefaultWallet:  {Message: "no default wallet configured", Severity: SeverityInfo},
	CodeDecodeFailure:    {Message: "malformed transaction encoding", Severity: SeverityInfo},
	CodeStageMismatch:    {Message: "transaction is in the wrong stage", Severity: SeverityInfo},
	CodeNotFound:         {Message: "resource not found", Severity: SeverityInfo},
	CodeRPCFailure:       {Message: "ledger rpc failure", Severity: SeverityWarning, Retryable: true},
	CodeSigningFailure:   {Message: "signing failure", Severity: SeverityCritical, Alert: true},
	CodeTimeout:          {Message: "operation timed out", Severity: SeverityWarning, Retryable: true, Alert: true},
	CodeCacheFailure:     {Message: "anchor cache failure", Severity: SeverityWarning, Retryable: true},
	CodeConfigureFailure: {Message: "service misconfigured", Severity: SeverityCritical, Alert: true},
}

// AttributesOf 返回错误码对应的属性。若未注册则返回 UNKNOWN 的属性。
func AttributesOf(code Code) Attributes {
	if attr, ok := registry[code]; ok {
		return attr
	}
	return registry[CodeUnknown]
}

// Error 是系统内统一的错误类型。
type Error struct {
	code     Code
	message  string
	cause    error
	metadata map[string]string
	alert    *bool
	severity *Severity
}

// Option 定义可选配置。
type Option func(*Error)

// WithMetadata 附加额外信息，例如出错的字段名。
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithAlert 指定错误是否需要告警。
func WithAlert(alert bool) Option {
	return func(e *Error) {
		e.alert = &alert
	}
}

// WithSeverity 覆盖默认严重程度。
func WithSeverity(sev Severity) Option {
	return func(e *Error) {
		e.severity = &sev
	}
}

// New 创建一个新的错误实例。
func New(code Code, message string, opts ...Option) *Error {
	if message == "" {
		message = AttributesOf(code).Message
	}
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Newf 与 New 相同，但支持格式化消息。
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 在已有错误外包裹统一错误类型。
func Wrap(code Code, cause error, message string, opts ...Option) *Error {
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Unwrap 实现 errors.Unwrap。
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is 允许通过 errors.Is 判断是否相同错误码。
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// Code 返回错误码。
func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

// Message 返回错误信息。
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Metadata 返回附加信息的副本。
func (e *Error) Metadata() map[string]string {
	if e == nil || len(e.metadata) == 0 {
		return nil
	}
	clone := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		clone[k] = v
	}
	return clone
}

// Retryable 判断是否可重试。钱包工具本身从不重试，该属性仅供调用方参考。
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	return AttributesOf(e.code).Retryable
}

// ShouldAlert 判断是否需要告警。
func (e *Error) ShouldAlert() bool {
	if e == nil {
		return false
	}
	if e.alert != nil {
		return *e.alert
	}
	return AttributesOf(e.code).Alert
}

// Severity 返回错误严重程度。
func (e *Error) Severity() Severity {
	if e == nil {
		return SeverityInfo
	}
	if e.severity != nil {
		return *e.severity
	}
	return AttributesOf(e.code).Severity
}

// From 尝试从 error 中解析统一错误类型。
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf 返回错误对应的错误码。
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.Code()
	}
	return CodeUnknown
}

// RetryableError 判断任意 error 是否可重试。
func RetryableError(err error) bool {
	if e, ok := From(err); ok {
		return e.Retryable()
	}
	return false
}

// ShouldAlert 判断是否需要触发告警。
func ShouldAlert(err error) bool {
	if e, ok := From(err); ok {
		return e.ShouldAlert()
	}
	return AttributesOf(CodeUnknown).Alert
}

// SeverityOf 返回错误严重程度。
func SeverityOf(err error) Severity {
	if e, ok := From(err); ok {
		return e.Severity()
	}
	return AttributesOf(CodeUnknown).Severity
}

// Describe 返回不带错误码前缀的可读描述，用于拼接展示给调用方的文本。
func Describe(err error) string {
	if err == nil {
		return ""
	}
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + Describe(e.cause)
}
