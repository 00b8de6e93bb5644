package app

import (
	"sort"

	"github.com/shopspring/decimal"

	"lpstays/internal/domain"
)

// Dedupe collapses duplicate offers (same hotel, same night), keeping the one
// with the higher points-per-dollar and breaking ties toward the lower price.
// The result is sorted by check-in date then hotel ID, so running Dedupe over
// its own output returns an identical list.
func Dedupe(offers []domain.Offer) []domain.Offer {
	best := make(map[string]domain.Offer, len(offers))
	for _, o := range offers {
		k := o.DedupeKey()
		cur, ok := best[k]
		if !ok || betterDuplicate(o, cur) {
			best[k] = o
		}
	}
	out := make([]domain.Offer, 0, len(best))
	for _, o := range best {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckIn.Equal(out[j].CheckIn) {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].HotelID < out[j].HotelID
	})
	return out
}

func betterDuplicate(a, b domain.Offer) bool {
	switch a.PointsPerDollar().Cmp(b.PointsPerDollar()) {
	case 1:
		return true
	case -1:
		return false
	}
	return a.Price.Cmp(b.Price) < 0
}

// RankByValue orders offers by descending points-per-dollar computed at a
// fixed multiplier (the one active at the traveler's starting balance). Ties
// break toward the lower price, then the earlier date. The input is not
// modified.
func RankByValue(offers []domain.Offer, mult decimal.Decimal) []domain.Offer {
	out := append([]domain.Offer(nil), offers...)
	ratio := func(o domain.Offer) decimal.Decimal {
		if o.Price.Sign() <= 0 {
			return decimal.Zero
		}
		return decimal.NewFromInt(int64(o.BasePoints)).Mul(mult).Div(o.Price)
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch ratio(out[i]).Cmp(ratio(out[j])) {
		case 1:
			return true
		case -1:
			return false
		}
		switch out[i].Price.Cmp(out[j].Price) {
		case -1:
			return true
		case 1:
			return false
		}
		return out[i].CheckIn.Before(out[j].CheckIn)
	})
	return out
}

// RankByPrice orders offers by ascending price, breaking ties toward the
// higher base points, then the earlier date. The input is not modified.
func RankByPrice(offers []domain.Offer) []domain.Offer {
	out := append([]domain.Offer(nil), offers...)
	sort.SliceStable(out, func(i, j int) bool {
		switch out[i].Price.Cmp(out[j].Price) {
		case -1:
			return true
		case 1:
			return false
		}
		if out[i].BasePoints != out[j].BasePoints {
			return out[i].BasePoints > out[j].BasePoints
		}
		return out[i].CheckIn.Before(out[j].CheckIn)
	})
	return out
}
