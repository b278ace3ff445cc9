package cache

import (
	"context"
	"io"
	"time"

	"tradepost/internal/config"
	"tradepost/internal/logging"

	"github.com/rs/zerolog"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromConfig returns the configured response cache: Redis with an in-memory
// fallback, or memory only when Redis cannot be reached. A nil Store means
// caching is disabled.
func FromConfig(ctx context.Context, cfg config.CacheConfig, namespace string, logger *zerolog.Logger) (Store, io.Closer) {
	if !cfg.Enabled {
		return nil, nopCloser{}
	}

	logger = logging.Component(logger, "cache")
	memory := NewMemoryStore()
	client := NewRedisClient(cfg.Redis)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis connection failed, caching in memory")
		_ = client.Close()
		return memory, nopCloser{}
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return NewFailoverStore(NewRedisStore(client, namespace), memory, logger), client
}
