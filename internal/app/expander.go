package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lpstays/internal/adapters/observability"
	"lpstays/internal/domain"
)

// ExpanderState is the terminal (or in-flight) state of a plan run.
type ExpanderState string

const (
	StateSearching ExpanderState = "SEARCHING"
	StateSatisfied ExpanderState = "SATISFIED"
	StateExhausted ExpanderState = "EXHAUSTED"
)

// ExpandPolicy bounds how far the search window may grow.
type ExpandPolicy struct {
	DaysPerRound   int // days appended per expansion round
	MaxRounds      int // total rounds, the initial window included
	MaxHorizonDays int // absolute days past the initial start; 0 disables
}

func (p ExpandPolicy) normalized() ExpandPolicy {
	if p.DaysPerRound <= 0 {
		p.DaysPerRound = 7
	}
	if p.MaxRounds <= 0 {
		p.MaxRounds = 1
	}
	return p
}

// PlanResult is what a full expander run returns: the best itinerary found,
// its outcome, the terminal state, and the date range actually searched.
type PlanResult struct {
	RunID     string
	Itinerary domain.Itinerary
	Outcome   domain.Outcome
	State     ExpanderState
	From, To  time.Time
	Rounds    int
	PoolSize  int // unique offers gathered across all rounds
}

// Expander orchestrates repeated offer retrieval over a widening date window
// until the target is reachable or the policy ceiling is hit. The candidate
// pool is the union of everything fetched so far; a failed round contributes
// zero new offers and the loop carries on.
type Expander struct {
	src     domain.OfferSource
	opt     *Optimizer
	archive domain.OfferArchive // optional
	log     zerolog.Logger
}

func NewExpander(src domain.OfferSource, opt *Optimizer, archive domain.OfferArchive, log zerolog.Logger) *Expander {
	return &Expander{src: src, opt: opt, archive: archive, log: log}
}

// Run executes the state machine. Cancellation is the caller's business: the
// context is checked between rounds and handed to the retrieval collaborator.
func (e *Expander) Run(ctx context.Context, placeID string, from, to time.Time, pol ExpandPolicy, cfg domain.OptimizerConfig, strat domain.Strategy) (PlanResult, error) {
	if err := cfg.Validate(); err != nil {
		return PlanResult{}, err
	}
	pol = pol.normalized()

	res := PlanResult{
		RunID: uuid.NewString(),
		From:  from,
		To:    to,
		State: StateSearching,
	}
	if cfg.Satisfied() {
		res.Itinerary = domain.NewItinerary(nil)
		res.Outcome = domain.TargetMet
		res.State = StateSatisfied
		return res, nil
	}

	horizon := time.Time{}
	if pol.MaxHorizonDays > 0 {
		horizon = from.AddDate(0, 0, pol.MaxHorizonDays)
	}

	// Warm-start the pool from offers earlier runs archived for this window.
	var pool []domain.Offer
	if e.archive != nil {
		seeded, err := e.archive.ListOffers(ctx, placeID, from, to)
		if err != nil {
			e.log.Warn().Err(err).Str("run", res.RunID).Msg("offer archive read failed")
		} else if len(seeded) > 0 {
			pool = seeded
			e.log.Info().Str("run", res.RunID).Int("offers", len(seeded)).
				Msg("pool warm-started from archive")
		}
	}
	curFrom, curTo := from, to

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Rounds = round
		res.To = curTo

		fetched, err := e.src.FetchOffers(ctx, placeID, curFrom, curTo)
		if err != nil {
			// Opaque retrieval failure: zero offers this round.
			e.log.Warn().Err(err).Str("run", res.RunID).Int("round", round).
				Time("from", curFrom).Time("to", curTo).Msg("offer retrieval failed")
			fetched = nil
		}
		observability.ObserveRound(len(fetched))
		if len(fetched) > 0 && e.archive != nil {
			if aerr := e.archive.SaveOffers(ctx, res.RunID, placeID, fetched); aerr != nil {
				e.log.Warn().Err(aerr).Str("run", res.RunID).Msg("offer archive write failed")
			}
		}

		pool = Dedupe(append(pool, fetched...))
		res.PoolSize = len(pool)

		it, outcome, err := e.opt.Optimize(pool, cfg, strat)
		if err != nil {
			return res, err
		}
		res.Itinerary = it
		res.Outcome = outcome

		if outcome == domain.TargetMet {
			res.State = StateSatisfied
			return res, nil
		}

		nextFrom := curTo.AddDate(0, 0, 1)
		if round >= pol.MaxRounds || (!horizon.IsZero() && nextFrom.After(horizon)) {
			res.State = StateExhausted
			return res, nil
		}

		nextTo := nextFrom.AddDate(0, 0, pol.DaysPerRound-1)
		if !horizon.IsZero() && nextTo.After(horizon) {
			nextTo = horizon
		}
		e.log.Info().Str("run", res.RunID).Int("round", round).
			Int("pool", len(pool)).Int("achieved", cfg.StartingPoints+it.TotalPoints).
			Int("target", cfg.TargetPoints).
			Time("next_from", nextFrom).Time("next_to", nextTo).
			Msg("target not reached, widening window")
		curFrom, curTo = nextFrom, nextTo
	}
}
