package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"javox/internal/compiler/cache"
)

func newRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := cache.NewRedisCache(srv.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("create redis cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	bytecode := []byte("\xca\xfe\xba\xbe fake class file payload")
	c.Put(ctx, "fp1", cache.Artifact{ClassName: "Hello", Bytecode: bytecode})

	got, ok := c.Get(ctx, "fp1")
	if !ok {
		t.Fatalf("expected hit after put")
	}
	if got.ClassName != "Hello" {
		t.Fatalf("unexpected class name %q", got.ClassName)
	}
	if string(got.Bytecode) != string(bytecode) {
		t.Fatalf("bytecode corrupted through compression round trip")
	}
}

func TestRedisCacheMiss(t *testing.T) {
	c, _ := newRedisCache(t)
	if _, ok := c.Get(context.Background(), "unknown"); ok {
		t.Fatalf("expected miss")
	}
}

func TestRedisCacheEntriesExpire(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	c.Put(ctx, "fp", cache.Artifact{ClassName: "X", Bytecode: []byte{1}})
	if _, ok := c.Get(ctx, "fp"); !ok {
		t.Fatalf("expected fresh entry to hit")
	}

	srv.FastForward(2 * time.Minute)
	if _, ok := c.Get(ctx, "fp"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestRedisCacheCorruptEntryIsMiss(t *testing.T) {
	c, srv := newRedisCache(t)
	ctx := context.Background()

	srv.HSet("javox:artifact:bad", "class", "X")
	srv.HSet("javox:artifact:bad", "data", "not zstd at all")

	if _, ok := c.Get(ctx, "bad"); ok {
		t.Fatalf("expected corrupt entry to degrade to a miss")
	}
}

func TestRedisCacheUnavailableIsMiss(t *testing.T) {
	c, srv := newRedisCache(t)
	srv.Close()

	if _, ok := c.Get(context.Background(), "fp"); ok {
		t.Fatalf("expected miss when redis is down")
	}
	// Put must not panic either.
	c.Put(context.Background(), "fp", cache.Artifact{ClassName: "X", Bytecode: []byte{1}})
}
