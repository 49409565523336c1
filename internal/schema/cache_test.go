package schema

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl7-message-forge/internal/domain"
)

// countingProvider wraps a provider and counts loader invocations.
type countingProvider struct {
	inner domain.SchemaProvider
	calls int64
}

func (c *countingProvider) TriggerEvent(ctx context.Context, code string) (*domain.TriggerEventDefinition, error) {
	atomic.AddInt64(&c.calls, 1)
	return c.inner.TriggerEvent(ctx, code)
}

func (c *countingProvider) Segment(ctx context.Context, code string) (*domain.SegmentDefinition, error) {
	atomic.AddInt64(&c.calls, 1)
	return c.inner.Segment(ctx, code)
}

func (c *countingProvider) DataType(ctx context.Context, code string) (*domain.DataTypeDefinition, error) {
	atomic.AddInt64(&c.calls, 1)
	return c.inner.DataType(ctx, code)
}

func (c *countingProvider) CodeTable(ctx context.Context, id string) (*domain.CodeTable, error) {
	atomic.AddInt64(&c.calls, 1)
	return c.inner.CodeTable(ctx, id)
}

func newTestCachedProvider(t *testing.T) (*CachedProvider, *countingProvider) {
	t.Helper()
	counting := &countingProvider{inner: NewEmbeddedStore(testLogger())}
	cached, err := NewCachedProvider(counting, CachedProviderConfig{}, testLogger())
	require.NoError(t, err)
	return cached, counting
}

func TestCachedProvider_ReadThrough(t *testing.T) {
	cached, counting := newTestCachedProvider(t)
	ctx := context.Background()

	first, err := cached.Segment(ctx, "PID")
	require.NoError(t, err)

	second, err := cached.Segment(ctx, "PID")
	require.NoError(t, err)

	assert.Equal(t, first, second, "cache must return structurally identical definitions")
	assert.Equal(t, int64(1), atomic.LoadInt64(&counting.calls), "loader should run once per key")

	stats := cached.Stats()
	assert.Equal(t, int64(1), stats.MemoryHits)
	assert.Equal(t, int64(1), stats.MemoryMisses)
	assert.Equal(t, int64(1), stats.LoaderCalls)
}

func TestCachedProvider_NegativeCaching(t *testing.T) {
	cached, counting := newTestCachedProvider(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := cached.Segment(ctx, "ZZZ")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrSchemaNotFound))
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&counting.calls),
		"missing definitions should be looked up once, then served from the negative cache")
}

func TestCachedProvider_ConcurrentFirstAccess(t *testing.T) {
	cached, counting := newTestCachedProvider(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			def, err := cached.TriggerEvent(ctx, "adt_a01")
			assert.NoError(t, err)
			assert.NotNil(t, def)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&counting.calls),
		"per-key locking should prevent duplicate loads under concurrent first access")
}

func TestCachedProvider_DistinctKindsDoNotCollide(t *testing.T) {
	cached, _ := newTestCachedProvider(t)
	ctx := context.Background()

	// "TS" is a data type; there is no TS segment. The kind-qualified cache
	// keys must keep the two lookups apart.
	dt, err := cached.DataType(ctx, "TS")
	require.NoError(t, err)
	assert.Equal(t, "TS", dt.Code)

	_, err = cached.Segment(ctx, "TS")
	assert.True(t, errors.Is(err, domain.ErrSchemaNotFound))
}
