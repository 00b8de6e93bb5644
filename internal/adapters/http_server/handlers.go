package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"lpstays/internal/app"
	"lpstays/internal/domain"
)

type Handlers struct {
	Opt *app.Optimizer
	Exp *app.Expander // nil when no upstream search client is configured
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/tiers", h.getTiers)
	s.mux.Post("/v1/optimize", h.optimize)
	s.mux.Post("/v1/plan", h.plan)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// ---- DTOs ----

type offerDTO struct {
	HotelID    string          `json:"hotel_id"`
	HotelName  string          `json:"hotel_name"`
	Date       string          `json:"date"` // YYYY-MM-DD
	Price      decimal.Decimal `json:"price"`
	BasePoints int             `json:"base_points"`
}

type configDTO struct {
	TargetPoints   int  `json:"target_points"`
	StartingPoints int  `json:"starting_points"`
	CardBonus      bool `json:"card_bonus_enabled"`
}

type stayDTO struct {
	offerDTO
	EffectivePoints int `json:"effective_points"`
	CumulativeAfter int `json:"cumulative_after"`
}

type itineraryDTO struct {
	Stays       []stayDTO       `json:"stays"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	TotalPoints int             `json:"total_points_earned"`
}

type optimizeRequest struct {
	Offers   []offerDTO `json:"offers"`
	Config   configDTO  `json:"config"`
	Strategy string     `json:"strategy"`
}

type optimizeResponse struct {
	Outcome   domain.Outcome `json:"outcome"`
	Itinerary itineraryDTO   `json:"itinerary"`
}

type planRequest struct {
	PlaceID  string    `json:"place_id"`
	From     string    `json:"from"` // YYYY-MM-DD
	To       string    `json:"to"`
	Policy   policyDTO `json:"policy"`
	Config   configDTO `json:"config"`
	Strategy string    `json:"strategy"`
}

type policyDTO struct {
	DaysPerRound   int `json:"days_per_round"`
	MaxRounds      int `json:"max_rounds"`
	MaxHorizonDays int `json:"max_horizon_days"`
}

type planResponse struct {
	RunID     string            `json:"run_id"`
	State     app.ExpanderState `json:"state"`
	Outcome   domain.Outcome    `json:"outcome"`
	Rounds    int               `json:"rounds"`
	PoolSize  int               `json:"pool_size"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Itinerary itineraryDTO      `json:"itinerary"`
}

const dateLayout = "2006-01-02"

func (d offerDTO) toDomain() (domain.Offer, error) {
	day, err := time.Parse(dateLayout, d.Date)
	if err != nil {
		return domain.Offer{}, err
	}
	return domain.Offer{
		HotelID:    d.HotelID,
		HotelName:  d.HotelName,
		CheckIn:    day,
		Price:      d.Price,
		BasePoints: d.BasePoints,
	}, nil
}

func (d configDTO) toDomain() domain.OptimizerConfig {
	return domain.OptimizerConfig{
		TargetPoints:   d.TargetPoints,
		StartingPoints: d.StartingPoints,
		CardBonus:      d.CardBonus,
	}
}

func toItineraryDTO(it domain.Itinerary) itineraryDTO {
	out := itineraryDTO{Stays: make([]stayDTO, 0, len(it.Stays)), TotalCost: it.TotalCost, TotalPoints: it.TotalPoints}
	for _, s := range it.Stays {
		out.Stays = append(out.Stays, stayDTO{
			offerDTO: offerDTO{
				HotelID:    s.HotelID,
				HotelName:  s.HotelName,
				Date:       s.CheckIn.Format(dateLayout),
				Price:      s.Price,
				BasePoints: s.BasePoints,
			},
			EffectivePoints: s.EffectivePoints,
			CumulativeAfter: s.CumulativeAfter,
		})
	}
	return out
}

// ---- handlers ----

func (h *Handlers) getTiers(w http.ResponseWriter, r *http.Request) {
	p := h.Opt.Policy()
	type tierDTO struct {
		Threshold  int             `json:"threshold"`
		Multiplier decimal.Decimal `json:"multiplier"`
	}
	resp := struct {
		Tiers     []tierDTO       `json:"tiers"`
		CardDelta decimal.Decimal `json:"card_bonus_delta"`
	}{CardDelta: p.CardDelta}
	for _, t := range p.Tiers {
		resp.Tiers = append(resp.Tiers, tierDTO{Threshold: t.Threshold, Multiplier: t.Multiplier})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) optimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	strat, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Unknown strategy", req.Strategy)
		return
	}
	offers := make([]domain.Offer, 0, len(req.Offers))
	for _, d := range req.Offers {
		o, err := d.toDomain()
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid offer", err.Error())
			return
		}
		offers = append(offers, o)
	}

	it, outcome, err := h.Opt.Optimize(offers, req.Config.toDomain(), strat)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidConfig) || errors.Is(err, domain.ErrNegativePoints) {
			status = http.StatusBadRequest
		}
		writeProblem(w, status, "Optimization failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, optimizeResponse{Outcome: outcome, Itinerary: toItineraryDTO(it)})
}

func (h *Handlers) plan(w http.ResponseWriter, r *http.Request) {
	if h.Exp == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Planning unavailable", "no upstream search client configured")
		return
	}
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	strat, err := domain.ParseStrategy(req.Strategy)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Unknown strategy", req.Strategy)
		return
	}
	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid from date", req.From)
		return
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid to date", req.To)
		return
	}
	if to.Before(from) {
		writeProblem(w, http.StatusBadRequest, "Invalid range", "to precedes from")
		return
	}

	pol := app.ExpandPolicy{
		DaysPerRound:   req.Policy.DaysPerRound,
		MaxRounds:      req.Policy.MaxRounds,
		MaxHorizonDays: req.Policy.MaxHorizonDays,
	}
	res, err := h.Exp.Run(r.Context(), req.PlaceID, from, to, pol, req.Config.toDomain(), strat)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		writeProblem(w, status, "Plan failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, planResponse{
		RunID:     res.RunID,
		State:     res.State,
		Outcome:   res.Outcome,
		Rounds:    res.Rounds,
		PoolSize:  res.PoolSize,
		From:      res.From.Format(dateLayout),
		To:        res.To.Format(dateLayout),
		Itinerary: toItineraryDTO(res.Itinerary),
	})
}
