package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"OpenMCP-Wallet/internal/config"
	xerrors "OpenMCP-Wallet/internal/errors"
	"OpenMCP-Wallet/internal/mcpserver"
	"OpenMCP-Wallet/internal/observability/alerting"
	"OpenMCP-Wallet/internal/observability/metrics"
	"OpenMCP-Wallet/internal/solana"
	"OpenMCP-Wallet/internal/solana/anchor"
	"OpenMCP-Wallet/internal/solana/provider"
	"OpenMCP-Wallet/internal/storage/redis"
	"OpenMCP-Wallet/internal/wallet"
	"OpenMCP-Wallet/pkg/logger"
)

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeConfigureFailure, err, "加载配置失败")
	}
	cfg.ApplyEnv(nil)

	if err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.Outputs,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Log.Audit.Enabled,
			Path:       cfg.Log.Audit.Path,
			MaxSizeMB:  cfg.Log.Audit.MaxSizeMB,
			MaxBackups: cfg.Log.Audit.MaxBackups,
			MaxAgeDays: cfg.Log.Audit.MaxAgeDays,
			Compress:   cfg.Log.Audit.Compress,
		},
	}); err != nil {
		return xerrors.Wrap(xerrors.CodeConfigureFailure, err, "初始化日志失败")
	}
	defer logger.Sync()
	log := logger.L()

	settings, err := buildSettings(cfg)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeConfigureFailure, err, "加载网络配置失败")
	}

	cache, closeCache, err := buildAnchorCache(ctx, cfg.Cache)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeCacheFailure, err, "初始化区块哈希缓存失败")
	}
	defer closeCache()

	registry := provider.NewRegistry(
		provider.WithEndpoints(settings.Endpoints()...),
		provider.WithAnchorCache(cache, cfg.Cache.TTL()),
		provider.WithLogger(logger.Named("rpc")),
	)
	defer registry.Close()

	signer := wallet.Ed25519Signer{}
	loadDefaultWallet(cfg.Wallet, os.Getenv, settings, signer, log)

	recorder := metrics.NewRecorder()
	if cfg.Metrics.Address != "" {
		go func() {
			if err := recorder.StartServer(ctx, cfg.Metrics.Address); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("指标服务异常退出", slog.Any("error", err))
			}
		}()
	}

	alerts := buildAlerting(cfg.Alerting)
	svc := wallet.NewService(settings, registry, signer,
		wallet.WithLogger(logger.Named("wallet")),
		wallet.WithRecorder(recorder),
		wallet.WithAlertDispatcher(alerts),
		wallet.WithAlertTimeout(cfg.Alerting.Timeout()),
	)

	sel := settings.Selection()
	log.Info("solwalletd 启动",
		slog.String("version", version),
		slog.String("network", string(sel.Network)),
		slog.String("endpoint", sel.Endpoint),
		slog.String("cache", cfg.Cache.Driver),
		slog.Any("alert_channels", alerts.Channels()),
	)

	server := mcpserver.NewServer(svc,
		mcpserver.WithVersion(version),
		mcpserver.WithLogger(logger.Named("mcp")),
	)
	return server.Start(ctx)
}

func buildSettings(cfg *config.Config) (*wallet.Settings, error) {
	defs, err := solana.LoadNetworkDefinitions(cfg.Network.DefinitionsFile)
	if err != nil {
		return nil, err
	}
	endpoints, err := solana.ResolveEndpoints(defs, cfg.Network.Endpoints)
	if err != nil {
		return nil, err
	}
	initial, err := solana.ParseNetwork(cfg.Network.Default)
	if err != nil {
		return nil, err
	}
	return wallet.NewSettings(endpoints, initial)
}

// buildAnchorCache 返回缓存及其关闭函数。driver 为 none 时缓存为 nil。
func buildAnchorCache(ctx context.Context, cfg config.CacheConfig) (anchor.Cache, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return nil, func() {}, nil
	case "memory":
		return anchor.NewMemoryCache(), func() {}, nil
	case "redis":
		cache, err := redis.NewBlockhashCache(ctx, redis.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return cache, func() { _ = cache.Close() }, nil
	default:
		return nil, nil, errors.New("未知的缓存驱动: " + cfg.Driver)
	}
}

func buildAlerting(cfg config.AlertingConfig) *alerting.FanoutDispatcher {
	notifiers := []alerting.Notifier{&alerting.LogNotifier{Logger: logger.Audit()}}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, &alerting.WebhookNotifier{URL: cfg.WebhookURL, Timeout: cfg.Timeout()})
	}
	return alerting.NewFanout(notifiers...)
}

// loadDefaultWallet 依次尝试环境变量中的私钥与 keypair 文件。加载失败只记录日志，
// 默认钱包保持为空。
func loadDefaultWallet(cfg config.WalletConfig, getenv func(string) string, settings *wallet.Settings, signer wallet.Signer, log *slog.Logger) {
	if raw := strings.TrimSpace(getenv(cfg.PrivateKeyEnv)); raw != "" {
		secret, err := wallet.DecodePrivateKey(raw)
		if err == nil {
			var key wallet.KeyMaterial
			if key, err = signer.KeyPairFromSecret(secret); err == nil {
				settings.SetDefaultWallet(key)
				log.Info("已从环境变量加载默认钱包", slog.String("env", cfg.PrivateKeyEnv), slog.Any("wallet", key))
				return
			}
		}
		log.Error("默认钱包加载失败", slog.String("env", cfg.PrivateKeyEnv), slog.String("error", xerrors.Describe(err)))
		return
	}

	path := cfg.KeypairPath
	explicit := path != ""
	if !explicit {
		path = wallet.DefaultKeypairPath()
	}
	if path == "" {
		return
	}
	secret, err := wallet.LoadKeypairFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return
		}
		log.Error("默认钱包加载失败", slog.String("path", path), slog.String("error", xerrors.Describe(err)))
		return
	}
	key, err := signer.KeyPairFromSecret(secret)
	if err != nil {
		log.Error("默认钱包加载失败", slog.String("path", path), slog.String("error", xerrors.Describe(err)))
		return
	}
	settings.SetDefaultWallet(key)
	log.Info("已从 keypair 文件加载默认钱包", slog.String("path", path), slog.Any("wallet", key))
}
