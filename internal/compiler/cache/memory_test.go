package cache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"javox/internal/compiler/cache"
)

func TestMemoryCachePutGet(t *testing.T) {
	c := cache.NewMemoryCache(10, 1<<20, 0)
	ctx := context.Background()

	c.Put(ctx, "fp1", cache.Artifact{ClassName: "Hello", Bytecode: []byte{0xca, 0xfe}})

	got, ok := c.Get(ctx, "fp1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got.ClassName != "Hello" || len(got.Bytecode) != 2 {
		t.Fatalf("unexpected artifact: %+v", got)
	}
	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatalf("expected miss for unknown fingerprint")
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	c := cache.NewMemoryCache(2, 1<<20, 0)
	ctx := context.Background()

	c.Put(ctx, "a", cache.Artifact{ClassName: "A", Bytecode: []byte{1}})
	c.Put(ctx, "b", cache.Artifact{ClassName: "B", Bytecode: []byte{2}})
	c.Get(ctx, "a")
	c.Put(ctx, "c", cache.Artifact{ClassName: "C", Bytecode: []byte{3}})

	if _, ok := c.Get(ctx, "b"); ok {
		t.Fatalf("expected least-recently-used entry to be evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatalf("expected recently used entry to remain")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Fatalf("expected newest entry to remain")
	}
}

func TestMemoryCacheByteBudgetEviction(t *testing.T) {
	c := cache.NewMemoryCache(100, 100, 0)
	ctx := context.Background()

	c.Put(ctx, "a", cache.Artifact{ClassName: "A", Bytecode: make([]byte, 60)})
	c.Put(ctx, "b", cache.Artifact{ClassName: "B", Bytecode: make([]byte, 60)})

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatalf("expected oldest entry to be reclaimed under byte pressure")
	}
	if _, ok := c.Get(ctx, "b"); !ok {
		t.Fatalf("expected newest entry to remain")
	}
}

func TestMemoryCacheOversizedArtifactNotStored(t *testing.T) {
	c := cache.NewMemoryCache(10, 16, 0)
	ctx := context.Background()

	c.Put(ctx, "big", cache.Artifact{ClassName: "Big", Bytecode: make([]byte, 64)})
	if _, ok := c.Get(ctx, "big"); ok {
		t.Fatalf("expected oversized artifact to be skipped")
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := cache.NewMemoryCache(10, 1<<20, 10*time.Millisecond)
	ctx := context.Background()

	c.Put(ctx, "fp", cache.Artifact{ClassName: "X", Bytecode: []byte{1}})
	if _, ok := c.Get(ctx, "fp"); !ok {
		t.Fatalf("expected fresh entry to hit")
	}
	time.Sleep(15 * time.Millisecond)
	if _, ok := c.Get(ctx, "fp"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryCacheLastPutWins(t *testing.T) {
	c := cache.NewMemoryCache(10, 1<<20, 0)
	ctx := context.Background()

	c.Put(ctx, "fp", cache.Artifact{ClassName: "Old", Bytecode: []byte{1}})
	c.Put(ctx, "fp", cache.Artifact{ClassName: "New", Bytecode: []byte{2, 3}})

	got, ok := c.Get(ctx, "fp")
	if !ok || got.ClassName != "New" {
		t.Fatalf("expected last put to win, got %+v ok=%v", got, ok)
	}
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := cache.NewMemoryCache(50, 1<<20, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("fp-%d", j%20)
				c.Put(ctx, key, cache.Artifact{ClassName: "C", Bytecode: []byte{byte(worker)}})
				c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Fatalf("cache exceeded its bound: %d entries", c.Len())
	}
}
