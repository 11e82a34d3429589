// Package anchor caches recent blockhashes (transaction lifetime anchors) so
// that bursts of create_transaction calls against one endpoint share a single
// getLatestBlockhash round trip.
package anchor

import (
	"context"
	"sync"
	"time"

	"OpenMCP-Wallet/internal/solana"
)

// DefaultTTL keeps cached anchors far inside the ~60 s blockhash validity window.
const DefaultTTL = 10 * time.Second

// Cache 定义锚点缓存的存取能力。
type Cache interface {
	Get(ctx context.Context, key string) (solana.Blockhash, bool, error)
	Set(ctx context.Context, key string, value solana.Blockhash, ttl time.Duration) error
}

type memoryEntry struct {
	value     solana.Blockhash
	expiresAt time.Time
}

// MemoryCache 是进程内的锚点缓存实现。
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache 创建内存缓存。
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get 返回未过期的缓存值。
func (c *MemoryCache) Get(_ context.Context, key string) (solana.Blockhash, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return solana.Blockhash{}, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return solana.Blockhash{}, false, nil
	}
	return entry.value, true, nil
}

// Set 写入缓存值。
func (c *MemoryCache) Set(_ context.Context, key string, value solana.Blockhash, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}
