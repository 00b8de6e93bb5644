package domain

import (
	"context"
	"time"
)

// OfferSource retrieves bookable single-night offers for a place over a date
// range (inclusive). Failures are opaque to the optimizer core: the window
// expander treats a failed round as zero new offers.
type OfferSource interface {
	FetchOffers(ctx context.Context, placeID string, from, to time.Time) ([]Offer, error)
}

// Cache is a small read-through cache used to avoid refetching days already
// seen by earlier rounds or earlier runs.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// OfferArchive persists every offer a run fetched, keyed by run, so later
// runs can warm-start their candidate pool. Results (itineraries) are never
// persisted.
type OfferArchive interface {
	SaveOffers(ctx context.Context, runID, placeID string, offers []Offer) error
	ListOffers(ctx context.Context, placeID string, from, to time.Time) ([]Offer, error)
}
