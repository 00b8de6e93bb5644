package app

import (
	"fmt"

	"lpstays/internal/domain"
)

// Optimizer runs a single synchronous optimization over an already
// materialized offer pool. It owns no shared state; the bonus policy it
// carries is immutable configuration.
type Optimizer struct {
	policy domain.BonusPolicy
}

func NewOptimizer(policy domain.BonusPolicy) (*Optimizer, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	return &Optimizer{policy: policy}, nil
}

func (o *Optimizer) Policy() domain.BonusPolicy { return o.policy }

// Optimize validates the config, deduplicates the pool, and dispatches to the
// selected strategy. An empty or insufficient pool is not an error: the
// strategy returns whatever partial itinerary it reached with
// TargetNotReached.
func (o *Optimizer) Optimize(offers []domain.Offer, cfg domain.OptimizerConfig, strat domain.Strategy) (domain.Itinerary, domain.Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return domain.Itinerary{}, "", err
	}
	if cfg.Satisfied() {
		// Trivially satisfied: nothing to book.
		return domain.NewItinerary(nil), domain.TargetMet, nil
	}

	pool := Dedupe(offers)

	switch strat {
	case domain.StrategyGreedyPPD:
		ordered := RankByValue(pool, o.policy.TotalMultiplierAt(cfg.StartingPoints, cfg.CardBonus))
		return o.acceptInOrder(ordered, cfg)
	case domain.StrategyGreedyCheapest:
		return o.acceptInOrder(RankByPrice(pool), cfg)
	case domain.StrategyExactDP:
		return o.solveDP(pool, cfg)
	}
	return domain.Itinerary{}, "", fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, strat)
}
