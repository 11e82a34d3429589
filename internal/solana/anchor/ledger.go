package anchor

import (
	"context"
	"log/slog"
	"time"

	"OpenMCP-Wallet/internal/solana"
	"OpenMCP-Wallet/pkg/logger"
)

// Ledger decorates a solana.Ledger so GetLatestBlockhash is served from a
// Cache. Every other method passes straight through.
type Ledger struct {
	solana.Ledger

	cache    Cache
	endpoint string
	ttl      time.Duration
	logger   *slog.Logger
}

// Option 调整缓存装饰器的行为。
type Option func(*Ledger)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithLogger sets the logger used to report cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Wrap returns next unchanged when cache is nil.
func Wrap(next solana.Ledger, cache Cache, endpoint string, opts ...Option) solana.Ledger {
	if cache == nil {
		return next
	}
	l := &Ledger{
		Ledger:   next,
		cache:    cache,
		endpoint: endpoint,
		ttl:      DefaultTTL,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key builds the cache key of an endpoint/commitment pair.
func Key(endpoint string, commitment solana.Commitment) string {
	return "solwallet:blockhash:" + string(commitment) + ":" + endpoint
}

// GetLatestBlockhash consults the cache first. Cache errors never fail the
// call; the ledger is asked instead.
func (l *Ledger) GetLatestBlockhash(ctx context.Context, commitment solana.Commitment) (solana.Blockhash, error) {
	key := Key(l.endpoint, commitment)
	cached, ok, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn("读取锚点缓存失败", slog.String("endpoint", l.endpoint), slog.Any("error", err))
	} else if ok {
		return cached, nil
	}

	fresh, err := l.Ledger.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		return solana.Blockhash{}, err
	}
	if err := l.cache.Set(ctx, key, fresh, l.ttl); err != nil {
		l.logger.Warn("写入锚点缓存失败", slog.String("endpoint", l.endpoint), slog.Any("error", err))
	}
	return fresh, nil
}

// Close forwards to the wrapped ledger when it can be closed.
func (l *Ledger) Close() {
	if closer, ok := l.Ledger.(interface{ Close() }); ok {
		closer.Close()
	}
}
