package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"OpenMCP-Wallet/internal/solana"
	"OpenMCP-Wallet/internal/solana/anchor"
)

// Config 描述 Redis 缓存的连接参数。
type Config struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// BlockhashCache 使用 Redis 字符串实现 anchor.Cache。
type BlockhashCache struct {
	client *redis.Client
	prefix string
}

// NewBlockhashCache 创建 Redis 缓存实例并检查连通性。
func NewBlockhashCache(ctx context.Context, cfg Config) (*BlockhashCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("Redis address 不能为空")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return &BlockhashCache{client: client, prefix: cfg.Prefix}, nil
}

// Get 读取缓存，未命中时返回 false。
func (c *BlockhashCache) Get(ctx context.Context, key string) (solana.Blockhash, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return solana.Blockhash{}, false, nil
	}
	if err != nil {
		return solana.Blockhash{}, false, fmt.Errorf("Redis 读取缓存失败: %w", err)
	}
	var value solana.Blockhash
	if err := json.Unmarshal(raw, &value); err != nil {
		return solana.Blockhash{}, false, fmt.Errorf("解析缓存内容失败: %w", err)
	}
	return value, true, nil
}

// Set 写入缓存并设置过期时间。
func (c *BlockhashCache) Set(ctx context.Context, key string, value solana.Blockhash, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = anchor.DefaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("Redis 写入缓存失败: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接。
func (c *BlockhashCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

var _ anchor.Cache = (*BlockhashCache)(nil)
