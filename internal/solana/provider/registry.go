// Package provider hands out ledger clients per RPC endpoint. Configured
// endpoints keep one long-lived client; any other endpoint is dialed for a
// single call and closed on release.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"OpenMCP-Wallet/internal/solana"
	"OpenMCP-Wallet/internal/solana/anchor"
	"OpenMCP-Wallet/internal/solana/rpc"
	"OpenMCP-Wallet/pkg/logger"
)

// Dialer creates the ledger client for an endpoint.
type Dialer func(ctx context.Context, endpoint string) (solana.Ledger, error)

// DialRPC is the production Dialer backed by the JSON-RPC client.
func DialRPC(ctx context.Context, endpoint string) (solana.Ledger, error) {
	client, err := rpc.NewClient(ctx, rpc.Config{Endpoint: endpoint})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Registry manages ledger clients keyed by endpoint URL. Only pinned
// endpoints are cached.
type Registry struct {
	dial     Dialer
	cache    anchor.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
	pinned   map[string]struct{}

	mu      sync.Mutex
	clients map[string]solana.Ledger
}

// Option customises a Registry.
type Option func(*Registry)

// WithDialer replaces DialRPC.
func WithDialer(dial Dialer) Option {
	return func(r *Registry) {
		if dial != nil {
			r.dial = dial
		}
	}
}

// WithAnchorCache wraps every client so blockhash lookups go through cache.
func WithAnchorCache(cache anchor.Cache, ttl time.Duration) Option {
	return func(r *Registry) {
		r.cache = cache
		r.cacheTTL = ttl
	}
}

// WithEndpoints pins the configured cluster endpoints. Their clients are
// dialed once and reused until Close.
func WithEndpoints(endpoints ...string) Option {
	return func(r *Registry) {
		for _, endpoint := range endpoints {
			if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
				r.pinned[endpoint] = struct{}{}
			}
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry builds an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		dial:    DialRPC,
		logger:  logger.Discard(),
		pinned:  make(map[string]struct{}),
		clients: make(map[string]solana.Ledger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func noop() {}

// Ledger returns the client for endpoint. Callers must call release once
// done; it closes clients dialed for endpoints that are not pinned.
func (r *Registry) Ledger(ctx context.Context, endpoint string) (solana.Ledger, func(), error) {
	if r == nil {
		return nil, noop, errors.New("未初始化的 Solana 客户端注册表")
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, noop, errors.New("未配置 Solana RPC 地址")
	}
	if _, ok := r.pinned[endpoint]; !ok {
		return r.transient(ctx, endpoint)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.clients[endpoint]; ok {
		return client, noop, nil
	}
	client, err := r.dial(ctx, endpoint)
	if err != nil {
		return nil, noop, fmt.Errorf("初始化 RPC 客户端 %s 失败: %w", endpoint, err)
	}
	client = anchor.Wrap(client, r.cache, endpoint,
		anchor.WithTTL(r.cacheTTL),
		anchor.WithLogger(r.logger),
	)
	r.clients[endpoint] = client
	r.logger.Debug("已创建 RPC 客户端", slog.String("endpoint", endpoint))
	return client, noop, nil
}

// transient 为未配置的地址（例如 rpcUrl 覆盖）创建一次性客户端，不进入缓存。
func (r *Registry) transient(ctx context.Context, endpoint string) (solana.Ledger, func(), error) {
	client, err := r.dial(ctx, endpoint)
	if err != nil {
		return nil, noop, fmt.Errorf("初始化 RPC 客户端 %s 失败: %w", endpoint, err)
	}
	r.logger.Debug("已创建临时 RPC 客户端", slog.String("endpoint", endpoint))
	return client, func() { closeLedger(client) }, nil
}

func closeLedger(client solana.Ledger) {
	if closer, ok := client.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Close releases all clients managed by the registry.
func (r *Registry) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for endpoint, client := range r.clients {
		closeLedger(client)
		delete(r.clients, endpoint)
	}
}
