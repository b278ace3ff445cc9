package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStore serves from primary until it errors, then from fallback,
// probing primary again once per recoveryInterval.
type FailoverStore struct {
	primary   Store
	fallback  Store
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	return s.now().Sub(time.Unix(0, s.lastCheck.Load())) > recoveryInterval
}

func (s *FailoverStore) markDown(err error) {
	if !s.isDown.Swap(true) {
		s.logger.Error().Err(err).Msg("primary cache failed, falling back to memory")
	}
	s.lastCheck.Store(s.now().UnixNano())
}

func (s *FailoverStore) markUp() {
	if s.isDown.Swap(false) {
		s.logger.Info().Msg("primary cache recovered")
	}
}

func (s *FailoverStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.usePrimary() {
		val, ok, err := s.primary.Get(ctx, key)
		if err == nil {
			s.markUp()
			return val, ok, nil
		}
		s.markDown(err)
	}
	return s.fallback.Get(ctx, key)
}

func (s *FailoverStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.usePrimary() {
		err := s.primary.Set(ctx, key, value, ttl)
		if err == nil {
			s.markUp()
			return nil
		}
		s.markDown(err)
	}
	return s.fallback.Set(ctx, key, value, ttl)
}

// DeletePrefix always clears both stores so a recovered primary never serves
// entries that were invalidated while it was down.
func (s *FailoverStore) DeletePrefix(ctx context.Context, prefix string) error {
	fbErr := s.fallback.DeletePrefix(ctx, prefix)
	if err := s.primary.DeletePrefix(ctx, prefix); err != nil {
		s.markDown(err)
	}
	return fbErr
}
