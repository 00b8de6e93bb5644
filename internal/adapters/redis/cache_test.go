package redisad_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "lpstays/internal/adapters/redis"
)

type payload struct {
	Place  string `json:"place"`
	Offers int    `json:"offers"`
}

func newTestCache(t *testing.T) *redisad.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return redisad.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var got payload
	ok, err := c.Get(ctx, "offers:PHX:2026-09-01", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss on empty cache")
	}

	want := payload{Place: "PHX", Offers: 12}
	if err := c.Set(ctx, "offers:PHX:2026-09-01", want, 900); err != nil {
		t.Fatalf("set: %v", err)
	}
	ok, err = c.Get(ctx, "offers:PHX:2026-09-01", &got)
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if err := c.Del(ctx, "offers:PHX:2026-09-01"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, _ = c.Get(ctx, "offers:PHX:2026-09-01", &got)
	if ok {
		t.Fatal("expected miss after delete")
	}
}
