package query

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/korthochain/ledger/pkg/model"
	"github.com/korthochain/ledger/pkg/wsv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("query rate limit exceeded")

// Config tunes the query Service.
type Config struct {
	// CacheSize is the number of results kept. Zero disables the cache.
	CacheSize int `yaml:"cachesize"`
	// Rate is the number of queries per second one authority may run.
	// Zero disables limiting.
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
	// LimiterTTL is how long an idle authority's limiter is kept.
	LimiterTTL time.Duration `yaml:"limiterttl"`
}

func DefaultConfig() Config {
	return Config{
		CacheSize:  1000,
		Rate:       100,
		Burst:      200,
		LimiterTTL: 24 * time.Hour,
	}
}

// Service answers queries on behalf of accounts against the committed state.
// Results are cached per state generation.
type Service struct {
	v        *wsv.WorldStateView
	eval     Evaluator
	cache    gcache.Cache
	limiters *authorityLimiter
	logger   *zap.Logger
}

func NewService(cfg Config, v *wsv.WorldStateView, eval Evaluator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{v: v, eval: eval, logger: logger}
	if cfg.CacheSize > 0 {
		s.cache = gcache.New(cfg.CacheSize).LRU().Build()
	}
	if cfg.Rate > 0 {
		s.limiters = newAuthorityLimiter(rate.Limit(cfg.Rate), cfg.Burst, cfg.CacheSize, cfg.LimiterTTL)
	}
	return s
}

// Execute runs q for authority.
func (s *Service) Execute(authority model.AccountId, q model.Query) (model.Value, error) {
	if s.limiters != nil && !s.limiters.get(authority.String()).Allow() {
		return nil, ErrRateLimited
	}

	if s.cache == nil {
		return Execute(q, s.v, s.eval)
	}

	encoded, err := model.SerializeQuery(q)
	if err != nil {
		return nil, err
	}
	key := string(binary.BigEndian.AppendUint64(nil, s.v.Generation())) + string(encoded)
	if cached, err := s.cache.Get(key); err == nil {
		return cached.(model.Value), nil
	}

	result, err := Execute(q, s.v, s.eval)
	if err != nil {
		s.logger.Debug("query failed", zap.Stringer("kind", q.Kind()), zap.Stringer("authority", authority), zap.Error(err))
		return nil, err
	}
	if err := s.cache.Set(key, result); err != nil {
		s.logger.Warn("cache query result", zap.Error(err))
	}
	return result, nil
}

type authorityLimiter struct {
	cache gcache.Cache
	mu    *sync.Mutex
	r     rate.Limit
	b     int
	ttl   time.Duration
}

func newAuthorityLimiter(r rate.Limit, b, size int, ttl time.Duration) *authorityLimiter {
	if size <= 0 {
		size = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authorityLimiter{
		cache: gcache.New(size).LRU().Build(),
		mu:    &sync.Mutex{},
		r:     r,
		b:     b,
		ttl:   ttl,
	}
}

func (l *authorityLimiter) get(authority string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, err := l.cache.Get(authority); err == nil {
		return limiter.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.r, l.b)
	l.cache.SetWithExpire(authority, limiter, l.ttl)
	return limiter
}
