package app

import (
	"sort"

	"github.com/shopspring/decimal"

	"lpstays/internal/domain"
)

// dpCell is one reachable cumulative-point level: the cheapest known way to
// be at exactly that balance, with back-pointers for itinerary
// reconstruction.
type dpCell struct {
	reached   bool
	cost      decimal.Decimal
	stays     int
	prevLevel int
	offerIdx  int // index into the candidate slice; -1 at the base state
}

// betterThan prefers the cheaper path, then the one with fewer stays.
func (a dpCell) betterThan(b dpCell) bool {
	if !b.reached {
		return true
	}
	switch a.cost.Cmp(b.cost) {
	case -1:
		return true
	case 1:
		return false
	}
	return a.stays < b.stays
}

// solveDP finds the minimum-cost subset of offers whose effective cumulative
// points, computed under the true order of inclusion, reach the target.
//
// Because the tier multiplier depends on the exact balance reached so far,
// the usual knapsack trick of capping the value axis at the target is
// unsound here. States are exact cumulative levels, bounded by the target
// plus the largest possible single-stay contribution; past that, overshoot
// can never be part of a cheaper path.
func (o *Optimizer) solveDP(pool []domain.Offer, cfg domain.OptimizerConfig) (domain.Itinerary, domain.Outcome, error) {
	cands := bestPerDate(pool)
	if len(cands) == 0 {
		return domain.NewItinerary(nil), domain.TargetNotReached, nil
	}

	maxMult := o.policy.MaxMultiplier(cfg.CardBonus)
	maxSingle := 0
	for _, c := range cands {
		ep := int(decimal.NewFromInt(int64(c.BasePoints)).Mul(maxMult).Round(0).IntPart())
		if ep > maxSingle {
			maxSingle = ep
		}
	}

	start := cfg.StartingPoints
	bound := cfg.TargetPoints + maxSingle
	cells := make([]dpCell, bound+1)
	cells[start] = dpCell{reached: true, cost: decimal.Zero, prevLevel: -1, offerIdx: -1}

	// 0/1 relaxation: one pass per offer, levels descending so a state
	// produced within a pass is never reused as a source in that same pass.
	for i, of := range cands {
		for p := bound; p >= start; p-- {
			src := cells[p]
			if !src.reached {
				continue
			}
			ep, err := o.policy.EffectivePoints(of, p, cfg.CardBonus)
			if err != nil {
				return domain.Itinerary{}, "", err
			}
			if ep <= 0 {
				continue
			}
			np := p + ep
			if np > bound {
				np = bound
			}
			cand := dpCell{
				reached:   true,
				cost:      src.cost.Add(of.Price),
				stays:     src.stays + 1,
				prevLevel: p,
				offerIdx:  i,
			}
			if cand.betterThan(cells[np]) {
				cells[np] = cand
			}
		}
	}

	// Winner: the cheapest level at or beyond the target; ties prefer fewer
	// stays, then the larger surplus.
	winner := -1
	for p := cfg.TargetPoints; p <= bound; p++ {
		c := cells[p]
		if !c.reached {
			continue
		}
		if winner < 0 {
			winner = p
			continue
		}
		w := cells[winner]
		if c.cost.Cmp(w.cost) < 0 ||
			(c.cost.Cmp(w.cost) == 0 && c.stays < w.stays) ||
			(c.cost.Cmp(w.cost) == 0 && c.stays == w.stays) {
			winner = p
		}
	}

	outcome := domain.TargetMet
	if winner < 0 {
		// Target unreachable with this pool: report the closest approach.
		outcome = domain.TargetNotReached
		for p := cfg.TargetPoints - 1; p > start; p-- {
			if cells[p].reached {
				winner = p
				break
			}
		}
		if winner < 0 {
			return domain.NewItinerary(nil), outcome, nil
		}
	}

	it, err := o.reconstruct(cells, winner, cands, cfg)
	if err != nil {
		return domain.Itinerary{}, "", err
	}
	return it, outcome, nil
}

// reconstruct walks the back-pointer chain from the winning level to the
// base state, then replays it forward to annotate each stay with its
// effective points at the running balance.
func (o *Optimizer) reconstruct(cells []dpCell, winner int, cands []domain.Offer, cfg domain.OptimizerConfig) (domain.Itinerary, error) {
	var picked []domain.Offer
	for p := winner; cells[p].offerIdx >= 0; p = cells[p].prevLevel {
		picked = append(picked, cands[cells[p].offerIdx])
	}
	// chain is walked winner -> base; flip to inclusion order
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}

	stays := make([]domain.Stay, 0, len(picked))
	cumulative := cfg.StartingPoints
	for _, of := range picked {
		pts, err := o.policy.EffectivePoints(of, cumulative, cfg.CardBonus)
		if err != nil {
			return domain.Itinerary{}, err
		}
		cumulative += pts
		stays = append(stays, domain.Stay{Offer: of, EffectivePoints: pts, CumulativeAfter: cumulative})
	}
	return domain.NewItinerary(stays), nil
}

// bestPerDate enforces the one-night-per-travel-day constraint by keeping a
// single candidate per date: the offer with the most base points, ties broken
// toward the lower price. Zero-point offers can never contribute and are
// dropped.
func bestPerDate(pool []domain.Offer) []domain.Offer {
	best := make(map[string]domain.Offer)
	for _, of := range pool {
		if of.BasePoints == 0 {
			continue
		}
		cur, ok := best[of.DateKey()]
		if !ok ||
			of.BasePoints > cur.BasePoints ||
			(of.BasePoints == cur.BasePoints && of.Price.Cmp(cur.Price) < 0) {
			best[of.DateKey()] = of
		}
	}
	out := make([]domain.Offer, 0, len(best))
	for _, of := range best {
		out = append(out, of)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out
}
