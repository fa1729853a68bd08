package reqctx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEmptyContext(t *testing.T) {
	rc, ok := From(context.Background())
	assert.False(t, ok)
	assert.Nil(t, rc)
}

func TestWithFromRoundTrip(t *testing.T) {
	want := &RequestContext{APIKey: "sk-test", ClientIP: "203.0.113.9"}
	ctx := With(context.Background(), want)

	got, ok := From(ctx)
	require.True(t, ok)
	assert.Same(t, want, got)
}

func TestNestedScopesShadow(t *testing.T) {
	outer := &RequestContext{APIKey: "outer"}
	inner := &RequestContext{APIKey: "inner"}

	ctx := With(context.Background(), outer)
	child := With(ctx, inner)

	got, ok := From(child)
	require.True(t, ok)
	assert.Equal(t, "inner", got.APIKey)

	// The outer scope is untouched.
	got, ok = From(ctx)
	require.True(t, ok)
	assert.Equal(t, "outer", got.APIKey)
}

// Concurrent scopes must never observe each other's context, even when each
// body suspends repeatedly between reads.
func TestConcurrentScopesIsolated(t *testing.T) {
	const workers = 32
	const reads = 50

	var wg sync.WaitGroup
	errs := make(chan string, workers)

	for i := 0; i < workers; i++ {
		key := string(rune('a' + i%26))
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			ctx := With(context.Background(), &RequestContext{APIKey: key})
			for j := 0; j < reads; j++ {
				time.Sleep(time.Millisecond) // force interleaving
				rc, ok := From(ctx)
				if !ok || rc.APIKey != key {
					errs <- key
					return
				}
			}
		}(key)
	}

	wg.Wait()
	close(errs)
	for key := range errs {
		t.Errorf("scope %q observed a foreign RequestContext", key)
	}
}
