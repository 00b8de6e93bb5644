package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lpstays/internal/app"
	"lpstays/internal/domain"
)

// mapCache is an in-memory domain.Cache with JSON round-tripping, close
// enough to the redis adapter for unit tests.
type mapCache struct {
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Set(_ context.Context, key string, v any, _ int) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.sets++
	return nil
}

func (c *mapCache) Del(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

// countingSource records how many single-day fetches it served.
type countingSource struct {
	perDay map[string][]domain.Offer
	calls  int
}

func (s *countingSource) FetchOffers(_ context.Context, _ string, from, _ time.Time) ([]domain.Offer, error) {
	s.calls++
	return s.perDay[from.Format("2006-01-02")], nil
}

func TestCachingSource_SecondWindowHitsCache(t *testing.T) {
	src := &countingSource{perDay: map[string][]domain.Offer{
		"2026-09-01": {offerOn("h1", "2026-09-01", 100, 1000)},
		"2026-09-02": {offerOn("h2", "2026-09-02", 90, 800)},
	}}
	cache := newMapCache()
	cs := app.NewCachingSource(src, cache, 15*time.Minute)

	got, err := cs.FetchOffers(context.Background(), "p1", day("2026-09-01"), day("2026-09-02"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || src.calls != 2 {
		t.Fatalf("first pass: %d offers, %d upstream calls", len(got), src.calls)
	}

	got, err = cs.FetchOffers(context.Background(), "p1", day("2026-09-01"), day("2026-09-02"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("second pass: %d offers", len(got))
	}
	if src.calls != 2 {
		t.Fatalf("cache miss on second pass: %d upstream calls", src.calls)
	}
	if got[0].HotelID != "h1" || !got[0].Price.Equal(offerOn("h1", "2026-09-01", 100, 1000).Price) {
		t.Fatalf("cached offer did not round-trip: %+v", got[0])
	}
}

func TestCachingSource_EmptyDaysAreCachedToo(t *testing.T) {
	src := &countingSource{perDay: map[string][]domain.Offer{}}
	cache := newMapCache()
	cs := app.NewCachingSource(src, cache, time.Minute)

	if _, err := cs.FetchOffers(context.Background(), "p1", day("2026-09-01"), day("2026-09-01")); err != nil {
		t.Fatal(err)
	}
	if _, err := cs.FetchOffers(context.Background(), "p1", day("2026-09-01"), day("2026-09-01")); err != nil {
		t.Fatal(err)
	}
	if src.calls != 1 {
		t.Fatalf("empty day refetched: %d upstream calls", src.calls)
	}
	if cache.sets != 1 {
		t.Fatalf("cache writes: %d", cache.sets)
	}
}

// brokenCache misses every Get and fails every Set.
type brokenCache struct{}

func (brokenCache) Get(_ context.Context, _ string, _ any) (bool, error) { return false, nil }
func (brokenCache) Set(_ context.Context, _ string, _ any, _ int) error {
	return errors.New("cache down")
}
func (brokenCache) Del(_ context.Context, _ string) error { return nil }

func TestCachingSource_SetFailureDoesNotLoseOffers(t *testing.T) {
	src := &countingSource{perDay: map[string][]domain.Offer{
		"2026-09-01": {offerOn("h1", "2026-09-01", 100, 1000)},
	}}
	cs := app.NewCachingSource(src, brokenCache{}, time.Minute)

	got, err := cs.FetchOffers(context.Background(), "p1", day("2026-09-01"), day("2026-09-01"))
	if err != nil {
		t.Fatalf("cache write failure must not surface: %v", err)
	}
	if len(got) != 1 || got[0].HotelID != "h1" {
		t.Fatalf("offers: %+v", got)
	}
}

func TestCachingSource_DistinctPlacesDoNotCollide(t *testing.T) {
	src := &countingSource{perDay: map[string][]domain.Offer{
		"2026-09-01": {offerOn("h1", "2026-09-01", 100, 1000)},
	}}
	cs := app.NewCachingSource(src, newMapCache(), time.Minute)

	if _, err := cs.FetchOffers(context.Background(), "p1", day("2026-09-01"), day("2026-09-01")); err != nil {
		t.Fatal(err)
	}
	if _, err := cs.FetchOffers(context.Background(), "p2", day("2026-09-01"), day("2026-09-01")); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Fatalf("places shared a cache entry: %d upstream calls", src.calls)
	}
}
