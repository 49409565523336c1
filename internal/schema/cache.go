package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/hl7-message-forge/internal/domain"
)

// CacheStats reports caching provider performance counters.
type CacheStats struct {
	MemoryHits    int64     `json:"memory_hits"`
	MemoryMisses  int64     `json:"memory_misses"`
	RedisHits     int64     `json:"redis_hits"`
	RedisMisses   int64     `json:"redis_misses"`
	LoaderCalls   int64     `json:"loader_calls"`
	TotalRequests int64     `json:"total_requests"`
	ErrorCount    int64     `json:"error_count"`
	LastReset     time.Time `json:"last_reset"`
}

// CachedProviderConfig configures the caching decorator.
type CachedProviderConfig struct {
	// MaxEntries bounds each per-kind in-memory cache. Zero means 256.
	MaxEntries int

	// RedisClient enables an optional distributed second tier shared by
	// multiple generator instances. Nil disables the tier.
	RedisClient *redis.Client

	// RedisTTL bounds how long definitions live in the Redis tier. Zero
	// means 24h; definitions never change during a deployment, so long TTLs
	// are safe.
	RedisTTL time.Duration
}

// CachedProvider is a read-through decorator over a SchemaProvider. Tier 1 is
// a typed in-memory LRU per definition kind; tier 2 is an optional Redis
// cache behind a circuit breaker, so a Redis outage degrades to the
// underlying store instead of failing lookups. Per-key locks prevent
// duplicate loads under concurrent first access; steady-state reads are
// served from the LRU without touching the loader.
type CachedProvider struct {
	source domain.SchemaProvider
	log    *logrus.Logger

	triggerEvents *lru.Cache[string, *domain.TriggerEventDefinition]
	segments      *lru.Cache[string, *domain.SegmentDefinition]
	dataTypes     *lru.Cache[string, *domain.DataTypeDefinition]
	codeTables    *lru.Cache[string, *domain.CodeTable]

	// Negative lookups are cached too: a trigger event referencing a segment
	// outside the pack would otherwise hit the loader once per message.
	misses *lru.Cache[string, struct{}]

	redisClient *redis.Client
	redisTTL    time.Duration
	breaker     *gobreaker.CircuitBreaker

	keyLocks sync.Map // cache key -> *sync.Mutex

	statsMu sync.RWMutex
	stats   CacheStats
}

// NewCachedProvider wraps source with the caching tiers.
func NewCachedProvider(source domain.SchemaProvider, cfg CachedProviderConfig, logger *logrus.Logger) (*CachedProvider, error) {
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = 256
	}
	if cfg.RedisTTL == 0 {
		cfg.RedisTTL = 24 * time.Hour
	}

	triggerEvents, err := lru.New[string, *domain.TriggerEventDefinition](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating trigger event cache: %w", err)
	}
	segments, err := lru.New[string, *domain.SegmentDefinition](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating segment cache: %w", err)
	}
	dataTypes, err := lru.New[string, *domain.DataTypeDefinition](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating data type cache: %w", err)
	}
	codeTables, err := lru.New[string, *domain.CodeTable](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating code table cache: %w", err)
	}
	misses, err := lru.New[string, struct{}](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("creating negative cache: %w", err)
	}

	var breaker *gobreaker.CircuitBreaker
	if cfg.RedisClient != nil {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "schema-redis-cache",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Schema cache circuit breaker state changed")
			},
		})
	}

	return &CachedProvider{
		source:        source,
		log:           logger,
		triggerEvents: triggerEvents,
		segments:      segments,
		dataTypes:     dataTypes,
		codeTables:    codeTables,
		misses:        misses,
		redisClient:   cfg.RedisClient,
		redisTTL:      cfg.RedisTTL,
		breaker:       breaker,
		stats:         CacheStats{LastReset: time.Now()},
	}, nil
}

// TriggerEvent implements domain.SchemaProvider.
func (p *CachedProvider) TriggerEvent(ctx context.Context, code string) (*domain.TriggerEventDefinition, error) {
	return lookup(p, ctx, p.triggerEvents, domain.KindTriggerEvent, code, p.source.TriggerEvent)
}

// Segment implements domain.SchemaProvider.
func (p *CachedProvider) Segment(ctx context.Context, code string) (*domain.SegmentDefinition, error) {
	return lookup(p, ctx, p.segments, domain.KindSegment, code, p.source.Segment)
}

// DataType implements domain.SchemaProvider.
func (p *CachedProvider) DataType(ctx context.Context, code string) (*domain.DataTypeDefinition, error) {
	return lookup(p, ctx, p.dataTypes, domain.KindDataType, code, p.source.DataType)
}

// CodeTable implements domain.SchemaProvider.
func (p *CachedProvider) CodeTable(ctx context.Context, id string) (*domain.CodeTable, error) {
	return lookup(p, ctx, p.codeTables, domain.KindCodeTable, id, p.source.CodeTable)
}

// Stats returns a snapshot of the cache counters.
func (p *CachedProvider) Stats() CacheStats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	return p.stats
}

func (p *CachedProvider) bump(f func(*CacheStats)) {
	p.statsMu.Lock()
	f(&p.stats)
	p.statsMu.Unlock()
}

// lookup is the shared read-through path: memory tier, Redis tier, loader.
// It is a package function because methods cannot introduce type parameters.
func lookup[T any](p *CachedProvider, ctx context.Context, cache *lru.Cache[string, T], kind, code string,
	load func(context.Context, string) (T, error)) (T, error) {

	var zero T
	p.bump(func(s *CacheStats) { s.TotalRequests++ })

	key := kind + ":" + code

	if v, ok := cache.Get(key); ok {
		p.bump(func(s *CacheStats) { s.MemoryHits++ })
		return v, nil
	}
	if _, ok := p.misses.Get(key); ok {
		p.bump(func(s *CacheStats) { s.MemoryHits++ })
		return zero, domain.NewSchemaNotFound(kind, code)
	}
	p.bump(func(s *CacheStats) { s.MemoryMisses++ })

	// One loader call per key under concurrent first access.
	muIface, _ := p.keyLocks.LoadOrStore(key, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	// Another goroutine may have populated the caches while we waited.
	if v, ok := cache.Get(key); ok {
		p.bump(func(s *CacheStats) { s.MemoryHits++ })
		return v, nil
	}
	if _, ok := p.misses.Get(key); ok {
		return zero, domain.NewSchemaNotFound(kind, code)
	}

	if v, ok := redisGet(p, ctx, key, cache); ok {
		return v, nil
	}

	p.bump(func(s *CacheStats) { s.LoaderCalls++ })
	v, err := load(ctx, code)
	if err != nil {
		if domainNotFound(err) {
			p.misses.Add(key, struct{}{})
		} else {
			p.bump(func(s *CacheStats) { s.ErrorCount++ })
		}
		return zero, err
	}

	cache.Add(key, v)
	p.redisSet(ctx, key, v)
	return v, nil
}

func domainNotFound(err error) bool {
	return errors.Is(err, domain.ErrSchemaNotFound)
}

func redisGet[T any](p *CachedProvider, ctx context.Context, key string, cache *lru.Cache[string, T]) (T, bool) {
	var zero T
	if p.redisClient == nil {
		return zero, false
	}

	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.redisClient.Get(ctx, "hl7forge:schema:"+key).Result()
	})
	if err != nil {
		if err != redis.Nil {
			p.log.WithError(err).WithField("key", key).Debug("Redis schema tier unavailable")
		}
		p.bump(func(s *CacheStats) { s.RedisMisses++ })
		return zero, false
	}

	var v T
	if err := json.Unmarshal([]byte(res.(string)), &v); err != nil {
		p.bump(func(s *CacheStats) { s.RedisMisses++ })
		return zero, false
	}

	p.bump(func(s *CacheStats) { s.RedisHits++ })
	cache.Add(key, v)
	return v, true
}

func (p *CachedProvider) redisSet(ctx context.Context, key string, v interface{}) {
	if p.redisClient == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.redisClient.Set(ctx, "hl7forge:schema:"+key, data, p.redisTTL).Err()
	})
	if err != nil {
		p.log.WithError(err).WithField("key", key).Debug("Failed to populate Redis schema tier")
	}
}
