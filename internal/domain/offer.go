package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is one bookable hotel night. Immutable value; two offers with the
// same (HotelID, CheckIn date) are duplicates of each other.
type Offer struct {
	HotelID    string
	HotelName  string
	CheckIn    time.Time // the single night being booked; time-of-day is ignored
	Price      decimal.Decimal
	BasePoints int // loyalty points absent any bonus
}

// DateKey normalizes CheckIn to a calendar-day key.
func (o Offer) DateKey() string { return o.CheckIn.Format("2006-01-02") }

// DedupeKey identifies duplicate offers (same property, same night).
func (o Offer) DedupeKey() string { return o.HotelID + "|" + o.DateKey() }

// PointsPerDollar is the raw BasePoints/Price ratio. Zero for free stays so a
// $0 row can never dominate a ranking.
func (o Offer) PointsPerDollar() decimal.Decimal {
	if o.Price.Sign() <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(o.BasePoints)).Div(o.Price)
}

// Stay is an accepted offer inside an itinerary, annotated with the effective
// points it earned given the cumulative balance at the moment it was counted.
type Stay struct {
	Offer
	EffectivePoints int
	CumulativeAfter int // balance after this stay, including the starting balance
}

// Itinerary is the output of a strategy run: the accepted stays in the order
// their effective points were computed under, plus derived totals. Never
// mutated after return.
type Itinerary struct {
	Stays       []Stay
	TotalCost   decimal.Decimal
	TotalPoints int // net new points earned by the stays (starting balance excluded)
}

func NewItinerary(stays []Stay) Itinerary {
	it := Itinerary{Stays: stays, TotalCost: decimal.Zero}
	for _, s := range stays {
		it.TotalCost = it.TotalCost.Add(s.Price)
		it.TotalPoints += s.EffectivePoints
	}
	return it
}

// Outcome reports whether a strategy reached the configured target.
type Outcome string

const (
	TargetMet        Outcome = "target_met"
	TargetNotReached Outcome = "target_not_reached"
)

// Strategy selects one of the three solvers.
type Strategy string

const (
	StrategyGreedyPPD      Strategy = "greedy_ppd"
	StrategyGreedyCheapest Strategy = "greedy_cheapest"
	StrategyExactDP        Strategy = "exact_dp"
)

// ParseStrategy validates a caller-supplied strategy identifier.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyGreedyPPD, StrategyGreedyCheapest, StrategyExactDP:
		return Strategy(s), nil
	}
	return "", ErrUnknownStrategy
}

// OptimizerConfig is the per-run input. Immutable once validated.
type OptimizerConfig struct {
	TargetPoints   int
	StartingPoints int  // balance before any of this run's stays
	CardBonus      bool // co-branded card bonus applies to every stay
}

// Validate rejects malformed configuration before any offer processing.
// TargetPoints <= StartingPoints is NOT an error; it is the trivially
// satisfied case the optimizer short-circuits on.
func (c OptimizerConfig) Validate() error {
	if c.TargetPoints <= 0 {
		return ErrInvalidConfig
	}
	if c.StartingPoints < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Satisfied reports whether the starting balance alone already meets the target.
func (c OptimizerConfig) Satisfied() bool { return c.TargetPoints <= c.StartingPoints }
