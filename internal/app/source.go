package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"lpstays/internal/domain"
)

// CachingSource wraps an OfferSource with a per-(place, day) read-through
// cache so expansion rounds and repeated runs never refetch a day already
// seen. Days missing from the cache are fetched one at a time and cached
// individually, including empty results (a day with no offers is still an
// answer).
type CachingSource struct {
	src   domain.OfferSource
	cache domain.Cache
	ttl   time.Duration
}

func NewCachingSource(src domain.OfferSource, cache domain.Cache, ttl time.Duration) *CachingSource {
	return &CachingSource{src: src, cache: cache, ttl: ttl}
}

type cachedDay struct {
	Offers []domain.Offer `json:"offers"`
}

func dayKey(placeID string, day time.Time) string {
	return fmt.Sprintf("offers:%s:%s", placeID, day.Format("2006-01-02"))
}

func (s *CachingSource) FetchOffers(ctx context.Context, placeID string, from, to time.Time) ([]domain.Offer, error) {
	var out []domain.Offer
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := dayKey(placeID, day)
		var cd cachedDay
		if ok, _ := s.cache.Get(ctx, key, &cd); ok {
			out = append(out, cd.Offers...)
			continue
		}
		offers, err := s.src.FetchOffers(ctx, placeID, day, day)
		if err != nil {
			// Partial results are still useful; surface the error so the
			// expander can decide, but hand back what we already have.
			return out, err
		}
		if err := s.cache.Set(ctx, key, cachedDay{Offers: offers}, int(s.ttl.Seconds())); err != nil {
			// a dead cache costs refetches, not correctness
			log.Warn().Err(err).Str("key", key).Msg("offer cache write failed")
		}
		out = append(out, offers...)
	}
	return out, nil
}
