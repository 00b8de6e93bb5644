package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BonusTier is one status threshold: once the cumulative balance reaches
// Threshold, subsequent earnings are scaled by Multiplier.
type BonusTier struct {
	Threshold  int
	Multiplier decimal.Decimal
}

// BonusPolicy is the process-wide bonus configuration: the ordered tier table
// plus the additive card-bonus delta. Loaded once at startup, never mutated.
type BonusPolicy struct {
	Tiers     []BonusTier
	CardDelta decimal.Decimal // added to the status multiplier, not compounded
}

// DefaultPolicy returns the program's published earning rules:
// 1.0x below 60k, 1.20x from 60k, 1.30x from 100k, +0.10x with the card.
func DefaultPolicy() BonusPolicy {
	return BonusPolicy{
		Tiers: []BonusTier{
			{Threshold: 60_000, Multiplier: decimal.NewFromFloat(1.20)},
			{Threshold: 100_000, Multiplier: decimal.NewFromFloat(1.30)},
		},
		CardDelta: decimal.NewFromFloat(0.10),
	}
}

var one = decimal.NewFromInt(1)

// Validate checks that tiers are sorted ascending by threshold with strictly
// increasing multipliers, all above the 1.0x base.
func (p BonusPolicy) Validate() error {
	prevThreshold := 0
	prevMult := one
	for _, t := range p.Tiers {
		if t.Threshold <= prevThreshold || t.Multiplier.Cmp(prevMult) <= 0 {
			return fmt.Errorf("%w: tier %d x%s", ErrBadTierTable, t.Threshold, t.Multiplier)
		}
		prevThreshold = t.Threshold
		prevMult = t.Multiplier
	}
	if p.CardDelta.Sign() < 0 {
		return fmt.Errorf("%w: negative card delta", ErrBadTierTable)
	}
	return nil
}

// MultiplierAt returns the status multiplier active at a cumulative balance:
// the multiplier of the highest threshold not exceeding it, or 1.0x below all
// tiers.
func (p BonusPolicy) MultiplierAt(cumulative int) decimal.Decimal {
	m := one
	for _, t := range p.Tiers {
		if cumulative < t.Threshold {
			break
		}
		m = t.Multiplier
	}
	return m
}

// TotalMultiplierAt is the status multiplier plus the card delta when enabled.
func (p BonusPolicy) TotalMultiplierAt(cumulative int, cardBonus bool) decimal.Decimal {
	m := p.MultiplierAt(cumulative)
	if cardBonus {
		m = m.Add(p.CardDelta)
	}
	return m
}

// MaxMultiplier is the largest multiplier any state can ever see. Used to
// bound the solver's state space.
func (p BonusPolicy) MaxMultiplier(cardBonus bool) decimal.Decimal {
	m := one
	if n := len(p.Tiers); n > 0 {
		m = p.Tiers[n-1].Multiplier
	}
	if cardBonus {
		m = m.Add(p.CardDelta)
	}
	return m
}

// EffectivePoints computes the points a stay actually earns given the
// cumulative balance before it. The total multiplier is applied once to the
// base points and the result rounded half-up; loyalty programs do not award
// fractional points. Negative inputs are precondition violations.
func (p BonusPolicy) EffectivePoints(o Offer, cumulativeBefore int, cardBonus bool) (int, error) {
	if o.BasePoints < 0 {
		return 0, fmt.Errorf("%w: base points %d for %s", ErrNegativePoints, o.BasePoints, o.HotelID)
	}
	if cumulativeBefore < 0 {
		return 0, fmt.Errorf("%w: cumulative balance %d", ErrNegativePoints, cumulativeBefore)
	}
	mult := p.TotalMultiplierAt(cumulativeBefore, cardBonus)
	pts := decimal.NewFromInt(int64(o.BasePoints)).Mul(mult)
	// decimal.Round rounds half away from zero, i.e. half-up for the
	// non-negative values possible here.
	return int(pts.Round(0).IntPart()), nil
}
