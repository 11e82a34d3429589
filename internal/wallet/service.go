package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	xerrors "OpenMCP-Wallet/internal/errors"
	"OpenMCP-Wallet/internal/observability/alerting"
	"OpenMCP-Wallet/internal/solana"
	"OpenMCP-Wallet/pkg/logger"
)

// Tool names.
const (
	ToolGetBalance        = "get_balance"
	ToolGetTokenAccounts  = "get_token_accounts"
	ToolGetTokenBalance   = "get_token_balance"
	ToolCreateTransaction = "create_transaction"
	ToolSignTransaction   = "sign_transaction"
	ToolSendTransaction   = "send_transaction"
	ToolCheckTransaction  = "check_transaction"
	ToolGenerateKeyPair   = "generate_keypair"
	ToolImportPrivateKey  = "import_private_key"
	ToolValidateAddress   = "validate_address"
	ToolSwitchNetwork     = "switch_network"
	ToolGetCurrentNetwork = "get_current_network"
	ToolSetDefaultWallet  = "set_default_wallet"
	ToolGenerateMnemonic  = "generate_mnemonic"
	ToolImportMnemonic    = "import_mnemonic"
)

// 失败信封的文本前缀。
var failureLabels = map[string]string{
	ToolGetBalance:        "Error getting balance",
	ToolGetTokenAccounts:  "Error getting token accounts",
	ToolGetTokenBalance:   "Error getting token balance",
	ToolCreateTransaction: "Error creating transaction",
	ToolSignTransaction:   "Error signing transaction",
	ToolSendTransaction:   "Error sending transaction",
	ToolCheckTransaction:  "Error checking transaction",
	ToolGenerateKeyPair:   "Error generating keypair",
	ToolImportPrivateKey:  "Error importing private key",
	ToolValidateAddress:   "Error validating address",
	ToolSwitchNetwork:     "Error switching network",
	ToolGetCurrentNetwork: "Error getting current network",
	ToolSetDefaultWallet:  "Error setting default wallet",
	ToolGenerateMnemonic:  "Error generating mnemonic",
	ToolImportMnemonic:    "Error importing mnemonic",
}

// FailureLabel returns the prefix used for failures of tool.
func FailureLabel(tool string) string {
	if label, ok := failureLabels[tool]; ok {
		return label
	}
	return "Error calling " + tool
}

// LedgerProvider 根据 RPC 地址返回账本客户端。调用方用完后必须调用 release。
type LedgerProvider interface {
	Ledger(ctx context.Context, endpoint string) (ledger solana.Ledger, release func(), err error)
}

// Recorder 记录工具调用指标。
type Recorder interface {
	ObserveToolCall(tool string, failed bool, code string, duration time.Duration)
}

// Service 是工具编排器，每个工具对应一个方法。
type Service struct {
	settings     *Settings
	ledgers      LedgerProvider
	signer       Signer
	logger       *slog.Logger
	recorder     Recorder
	alerter      alerting.Dispatcher
	alertTimeout time.Duration
}

// Option 定义可选配置。
type Option func(*Service)

// WithLogger 指定日志输出。
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder 配置指标记录器。
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithAlertDispatcher 配置告警派发器。
func WithAlertDispatcher(d alerting.Dispatcher) Option {
	return func(s *Service) {
		s.alerter = d
	}
}

// WithAlertTimeout 限制单次告警投递的耗时。
func WithAlertTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.alertTimeout = d
		}
	}
}

// NewService 构造 Service。
func NewService(settings *Settings, ledgers LedgerProvider, signer Signer, opts ...Option) *Service {
	s := &Service{
		settings:     settings,
		ledgers:      ledgers,
		signer:       signer,
		logger:       logger.Discard(),
		alertTimeout: 5 * time.Second,
	}
	if s.signer == nil {
		s.signer = Ed25519Signer{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Settings exposes the shared state the service reads.
func (s *Service) Settings() *Settings { return s.settings }

// InvalidArguments 为无法解码的工具参数生成失败信封。
func (s *Service) InvalidArguments(ctx context.Context, tool string, cause error) Result {
	return s.run(ctx, tool, func(context.Context) (string, error) {
		return "", xerrors.Wrap(xerrors.CodeInvalidArgument, cause, "Invalid input")
	})
}

// run 是所有工具唯一的错误转换点：记录日志与指标，必要时告警，并生成信封。
func (s *Service) run(ctx context.Context, tool string, op func(context.Context) (string, error)) Result {
	callID := uuid.NewString()
	network := string(s.settings.Selection().Network)
	started := time.Now()

	message, err := invoke(ctx, op)
	elapsed := time.Since(started)

	if err == nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "工具调用成功",
			slog.String("call_id", callID),
			slog.String("tool", tool),
			slog.String("network", network),
			slog.Duration("duration", elapsed),
		)
		if s.recorder != nil {
			s.recorder.ObserveToolCall(tool, false, "", elapsed)
		}
		return Success(message)
	}

	code := xerrors.CodeOf(err)
	text := FailureLabel(tool) + ": " + xerrors.Describe(err)
	level := slog.LevelInfo
	switch xerrors.SeverityOf(err) {
	case xerrors.SeverityWarning:
		level = slog.LevelWarn
	case xerrors.SeverityCritical:
		level = slog.LevelError
	}
	var metadata map[string]string
	if e, ok := xerrors.From(err); ok {
		metadata = e.Metadata()
	}
	attrs := []slog.Attr{
		slog.String("call_id", callID),
		slog.String("tool", tool),
		slog.String("network", network),
		slog.String("code", string(code)),
		slog.String("error", xerrors.Describe(err)),
		slog.Duration("duration", elapsed),
	}
	for k, v := range metadata {
		attrs = append(attrs, slog.String(k, v))
	}
	s.logger.LogAttrs(ctx, level, "工具调用失败", attrs...)
	if s.recorder != nil {
		s.recorder.ObserveToolCall(tool, true, string(code), elapsed)
	}
	if xerrors.ShouldAlert(err) {
		s.emitAlert(ctx, alerting.Event{
			Code:       code,
			Message:    xerrors.Describe(err),
			Severity:   xerrors.SeverityOf(err),
			Tool:       tool,
			CallID:     callID,
			Network:    network,
			Metadata:   withDuration(metadata, elapsed),
			OccurredAt: time.Now(),
		})
	}
	res := FailureWithCode(code, text)
	res.Retryable = xerrors.RetryableError(err)
	return res
}

func withDuration(metadata map[string]string, elapsed time.Duration) map[string]string {
	out := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["duration"] = elapsed.String()
	return out
}

// invoke 把 panic 转为 UNKNOWN 错误，保证每次调用都有信封。
func invoke(ctx context.Context, op func(context.Context) (string, error)) (message string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Newf(xerrors.CodeUnknown, "internal error: %v", r)
		}
	}()
	return op(ctx)
}

func (s *Service) emitAlert(ctx context.Context, event alerting.Event) {
	if s.alerter == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		alertCtx, cancel := context.WithTimeout(ctx, s.alertTimeout)
		defer cancel()
		if err := s.alerter.Notify(alertCtx, event); err != nil {
			s.logger.Error("告警通知失败",
				slog.Any("error", err),
				slog.String("call_id", event.CallID),
				slog.String("tool", event.Tool),
			)
		}
	}()
}

// ledgerFor 返回当前网络或 override 指定地址的账本。release 永不为 nil。
func (s *Service) ledgerFor(ctx context.Context, override string) (solana.Ledger, func(), error) {
	endpoint := s.settings.Selection().Endpoint
	if override != "" {
		parsed, err := parseEndpoint(override)
		if err != nil {
			return nil, func() {}, err
		}
		endpoint = parsed
	}
	ledger, release, err := s.ledgers.Ledger(ctx, endpoint)
	if err != nil {
		return nil, func() {}, xerrors.Wrap(xerrors.CodeRPCFailure, err, "")
	}
	if release == nil {
		release = func() {}
	}
	return ledger, release, nil
}

// GetBalance 查询 SOL 余额。
func (s *Service) GetBalance(ctx context.Context, in BalanceInput) Result {
	return s.run(ctx, ToolGetBalance, func(ctx context.Context) (string, error) {
		owner, err := s.ownerAddress(in.PublicKey)
		if err != nil {
			return "", err
		}
		commitment, err := parseCommitment(in.Commitment)
		if err != nil {
			return "", err
		}
		ledger, release, err := s.ledgerFor(ctx, "")
		if err != nil {
			return "", err
		}
		defer release()
		lamports, err := ledger.GetBalance(ctx, owner.String(), commitment)
		if err != nil {
			return "", collaboratorError(err)
		}
		return fmt.Sprintf("Balance: %d lamports (%s SOL).", lamports, FormatSOL(lamports)), nil
	})
}

// GetTokenAccounts 列出 SPL Token 账户。
func (s *Service) GetTokenAccounts(ctx context.Context, in TokenAccountsInput) Result {
	return s.run(ctx, ToolGetTokenAccounts, func(ctx context.Context) (string, error) {
		owner, err := s.ownerAddress(in.PublicKey)
		if err != nil {
			return "", err
		}
		commitment, err := parseCommitment(in.Commitment)
		if err != nil {
			return "", err
		}
		ledger, release, err := s.ledgerFor(ctx, "")
		if err != nil {
			return "", err
		}
		defer release()
		accounts, err := ledger.GetTokenAccountsByOwner(ctx, owner.String(), solana.TokenProgramID, commitment)
		if err != nil {
			return "", collaboratorError(err)
		}
		if len(accounts) == 0 {
			return fmt.Sprintf("Token accounts: none found for %s.", owner), nil
		}
		return "Token accounts:\n" + strings.Join(accounts, "\n"), nil
	})
}

// GetTokenBalance 查询单个 Token 账户余额。
func (s *Service) GetTokenBalance(ctx context.Context, in TokenBalanceInput) Result {
	return s.run(ctx, ToolGetTokenBalance, func(ctx context.Context) (string, error) {
		if err := required("tokenAccountAddress", in.TokenAccountAddress); err != nil {
			return "", err
		}
		account, err := ParseAddress(in.TokenAccountAddress)
		if err != nil {
			return "", err
		}
		commitment, err := parseCommitment(in.Commitment)
		if err != nil {
			return "", err
		}
		ledger, release, err := s.ledgerFor(ctx, "")
		if err != nil {
			return "", err
		}
		defer release()
		amount, err := ledger.GetTokenAccountBalance(ctx, account.String(), commitment)
		if err != nil {
			return "", collaboratorError(err)
		}
		ui := amount.UIAmountString
		if ui == "" {
			ui = amount.Amount
		}
		return fmt.Sprintf("Token balance: %s (raw amount %s, %d decimals).", ui, amount.Amount, amount.Decimals), nil
	})
}

// GenerateKeyPair 生成新密钥对，不写入默认钱包。
func (s *Service) GenerateKeyPair(ctx context.Context, _ GenerateKeyPairInput) Result {
	return s.run(ctx, ToolGenerateKeyPair, func(context.Context) (string, error) {
		key, err := s.signer.GenerateKeyPair()
		if err != nil {
			return "", err
		}
		return formatKeyPair(key), nil
	})
}

// ImportPrivateKey 从 base64 私钥推导公钥。
func (s *Service) ImportPrivateKey(ctx context.Context, in ImportPrivateKeyInput) Result {
	return s.run(ctx, ToolImportPrivateKey, func(context.Context) (string, error) {
		if err := required("privateKey", in.PrivateKey); err != nil {
			return "", err
		}
		key, err := s.importKey(in.PrivateKey)
		if err != nil {
			return "", err
		}
		return "Public key: " + key.Address().String(), nil
	})
}

// ValidateAddress 只做语法校验，不访问网络，也不修改任何状态。
func (s *Service) ValidateAddress(ctx context.Context, in ValidateAddressInput) Result {
	return s.run(ctx, ToolValidateAddress, func(context.Context) (string, error) {
		if err := required("address", in.Address); err != nil {
			return "", err
		}
		addr, err := ParseAddress(in.Address)
		if err != nil {
			return "", err
		}
		return "Address is valid: " + addr.String(), nil
	})
}

// SwitchNetwork 原子地切换网络及其 RPC 地址。
func (s *Service) SwitchNetwork(ctx context.Context, in SwitchNetworkInput) Result {
	return s.run(ctx, ToolSwitchNetwork, func(context.Context) (string, error) {
		if err := required("network", in.Network); err != nil {
			return "", err
		}
		network, err := parseNetwork(in.Network)
		if err != nil {
			return "", err
		}
		sel := s.settings.Switch(network)
		s.logger.Info("已切换网络", slog.String("network", string(sel.Network)), slog.String("endpoint", sel.Endpoint))
		return fmt.Sprintf("Successfully switched to %s network.", sel.Network), nil
	})
}

// GetCurrentNetwork 返回当前网络。
func (s *Service) GetCurrentNetwork(ctx context.Context, _ GetCurrentNetworkInput) Result {
	return s.run(ctx, ToolGetCurrentNetwork, func(context.Context) (string, error) {
		sel := s.settings.Selection()
		return fmt.Sprintf("Current network is %s. RPC endpoint: %s", sel.Network, sel.Endpoint), nil
	})
}

// SetDefaultWallet 替换默认钱包，只有私钥完全校验通过后才写入。
func (s *Service) SetDefaultWallet(ctx context.Context, in SetDefaultWalletInput) Result {
	return s.run(ctx, ToolSetDefaultWallet, func(context.Context) (string, error) {
		if err := required("privateKey", in.PrivateKey); err != nil {
			return "", err
		}
		key, err := s.importKey(in.PrivateKey)
		if err != nil {
			return "", err
		}
		s.settings.SetDefaultWallet(key)
		s.logger.Info("已设置默认钱包", slog.Any("wallet", key))
		return "Successfully set default wallet with public key: " + key.Address().String(), nil
	})
}

// GenerateMnemonic 生成助记词以及由它推导的密钥对。
func (s *Service) GenerateMnemonic(ctx context.Context, in GenerateMnemonicInput) Result {
	return s.run(ctx, ToolGenerateMnemonic, func(context.Context) (string, error) {
		mnemonic, err := GenerateMnemonic()
		if err != nil {
			return "", xerrors.Wrap(xerrors.CodeSigningFailure, err, "")
		}
		key, err := s.keyFromMnemonic(mnemonic, in.Passphrase)
		if err != nil {
			return "", err
		}
		return "Mnemonic: " + mnemonic + "\n" + formatKeyPair(key), nil
	})
}

// ImportMnemonic 由助记词恢复密钥对。
func (s *Service) ImportMnemonic(ctx context.Context, in ImportMnemonicInput) Result {
	return s.run(ctx, ToolImportMnemonic, func(context.Context) (string, error) {
		if err := required("mnemonic", in.Mnemonic); err != nil {
			return "", err
		}
		key, err := s.keyFromMnemonic(in.Mnemonic, in.Passphrase)
		if err != nil {
			return "", err
		}
		return formatKeyPair(key), nil
	})
}

func (s *Service) keyFromMnemonic(mnemonic, passphrase string) (KeyMaterial, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return KeyMaterial{}, err
	}
	return s.signer.KeyPairFromSecret(seed)
}

func formatKeyPair(key KeyMaterial) string {
	return "Public key: " + key.Address().String() + "\nPrivate key: " + key.PrivateKeyBase64()
}

const lamportsPerSOL = 1_000_000_000

// FormatSOL renders lamports as an exact decimal SOL amount.
func FormatSOL(lamports uint64) string {
	whole, frac := lamports/lamportsPerSOL, lamports%lamportsPerSOL
	if frac == 0 {
		return fmt.Sprintf("%d", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%09d", whole, frac), "0")
}
