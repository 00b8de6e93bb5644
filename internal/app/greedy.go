package app

import (
	"lpstays/internal/domain"
)

// acceptInOrder is the shared greedy acceptance loop: walk the pre-ordered
// offers, book at most one night per travel date, and credit each accepted
// stay with its true effective points at the running cumulative balance. The
// ordering itself is a deliberate static approximation (computed once, before
// this loop); only the bookkeeping here re-evaluates the bonus state.
func (o *Optimizer) acceptInOrder(ordered []domain.Offer, cfg domain.OptimizerConfig) (domain.Itinerary, domain.Outcome, error) {
	var stays []domain.Stay
	cumulative := cfg.StartingPoints
	booked := make(map[string]bool)

	for _, of := range ordered {
		if cumulative >= cfg.TargetPoints {
			break
		}
		if of.BasePoints == 0 {
			continue // can never contribute
		}
		if booked[of.DateKey()] {
			continue // one night per travel day
		}
		pts, err := o.policy.EffectivePoints(of, cumulative, cfg.CardBonus)
		if err != nil {
			return domain.Itinerary{}, "", err
		}
		cumulative += pts
		stays = append(stays, domain.Stay{Offer: of, EffectivePoints: pts, CumulativeAfter: cumulative})
		booked[of.DateKey()] = true
	}

	outcome := domain.TargetNotReached
	if cumulative >= cfg.TargetPoints {
		outcome = domain.TargetMet
	}
	return domain.NewItinerary(stays), outcome, nil
}
