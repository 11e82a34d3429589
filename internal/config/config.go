package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPath 是未指定配置文件时尝试加载的位置。
const DefaultPath = "configs/solwallet.json"

// Config 描述了 solwallet 在启动阶段需要加载的核心配置。
type Config struct {
	Server   ServerConfig   `json:"server"`
	Network  NetworkConfig  `json:"network"`
	Wallet   WalletConfig   `json:"wallet"`
	Cache    CacheConfig    `json:"cache"`
	Metrics  MetricsConfig  `json:"metrics"`
	Alerting AlertingConfig `json:"alerting"`
	Log      LogConfig      `json:"log"`
}

// ServerConfig 控制 MCP 握手信息。
type ServerConfig struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// NetworkConfig 决定启动时的网络及各网络的 RPC 地址。
type NetworkConfig struct {
	Default string `json:"default"`
	// DefinitionsFile 指向 YAML 网络定义文件，相对路径基于配置文件目录。
	DefinitionsFile string            `json:"definitions_file"`
	Endpoints       map[string]string `json:"endpoints"`
}

// WalletConfig 描述默认钱包的来源。
type WalletConfig struct {
	PrivateKeyEnv string `json:"private_key_env"`
	KeypairPath   string `json:"keypair_path"`
}

// CacheConfig 配置最近区块哈希缓存。
type CacheConfig struct {
	Driver     string      `json:"driver"`
	TTLSeconds int         `json:"ttl_seconds"`
	Redis      RedisConfig `json:"redis"`
}

// RedisConfig 是 Redis 连接参数。
type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// TTL 返回缓存有效期。
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MetricsConfig 为空地址时不启动指标端点。
type MetricsConfig struct {
	Address string `json:"address"`
}

// AlertingConfig 配置失败告警。
type AlertingConfig struct {
	WebhookURL     string `json:"webhook_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout 返回单次告警投递的超时。
func (a AlertingConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// LogConfig 对应 logger.Config。
type LogConfig struct {
	Level   string         `json:"level"`
	Format  string         `json:"format"`
	Outputs []string       `json:"outputs"`
	Audit   AuditLogConfig `json:"audit"`
}

// AuditLogConfig 控制审计日志文件及其轮转。
type AuditLogConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// Default 返回只包含默认值的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults(".")
	return cfg
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// LoadOrDefault 加载 path。path 为空时尝试 DefaultPath，且默认文件缺失不视为错误。
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := Load(DefaultPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv 用环境变量覆盖配置。getenv 为 nil 时使用 os.Getenv。
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv("SOLWALLET_NETWORK")); v != "" {
		c.Network.Default = v
	}
	if v := strings.TrimSpace(getenv("SOLWALLET_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv("SOLWALLET_KEYPAIR_PATH")); v != "" {
		c.Wallet.KeypairPath = v
	}
	if v := strings.TrimSpace(getenv("SOLWALLET_METRICS_ADDRESS")); v != "" {
		c.Metrics.Address = v
	}
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Name == "" {
		c.Server.Name = "solwallet"
	}

	if c.Network.Default == "" {
		c.Network.Default = "devnet"
	}

	if c.Network.DefinitionsFile != "" && !filepath.IsAbs(c.Network.DefinitionsFile) {
		c.Network.DefinitionsFile = filepath.Join(baseDir, c.Network.DefinitionsFile)
	}

	if c.Wallet.PrivateKeyEnv == "" {
		c.Wallet.PrivateKeyEnv = "PRIVATE_KEY"
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "none"
	}

	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 10
	}

	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "solwallet"
	}

	if c.Alerting.TimeoutSeconds <= 0 {
		c.Alerting.TimeoutSeconds = 5
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Log.Audit.Path != "" && !filepath.IsAbs(c.Log.Audit.Path) {
		c.Log.Audit.Path = filepath.Join(baseDir, c.Log.Audit.Path)
	}
}
