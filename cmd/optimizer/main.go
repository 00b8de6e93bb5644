package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"lpstays/internal/adapters/aadvantage"
	"lpstays/internal/adapters/observability"
	redisad "lpstays/internal/adapters/redis"
	"lpstays/internal/app"
	"lpstays/internal/domain"
	"lpstays/internal/shared"
	mysqlrepo "lpstays/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if cfg.City == "" {
		log.Fatal().Msg("CITY is required")
	}
	strat, err := domain.ParseStrategy(cfg.Strategy)
	if err != nil {
		log.Fatal().Err(err).Str("strategy", cfg.Strategy).Msg("bad STRATEGY")
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if cfg.StartDate != "" {
		start, err = time.Parse("2006-01-02", cfg.StartDate)
		if err != nil {
			log.Fatal().Err(err).Str("start", cfg.StartDate).Msg("bad START_DATE")
		}
	}

	log.Info().
		Str("city", cfg.City).
		Str("strategy", string(strat)).
		Int("target", cfg.TargetLP).
		Int("current", cfg.CurrentLP).
		Bool("card_bonus", cfg.CardBonus).
		Time("start", start).
		Msg("optimizer starting")

	policy, err := shared.LoadBonusPolicy(cfg.TiersFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.TiersFile).Msg("bonus policy load failed")
	}
	opt, err := app.NewOptimizer(policy)
	if err != nil {
		log.Fatal().Err(err).Msg("bad bonus policy")
	}

	headers, err := aadvantage.LoadSessionHeaders(cfg.SessionFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.SessionFile).Msg("session headers load failed")
	}
	client, err := aadvantage.New(cfg.SearchBase, headers, cfg.SearchRPS, cfg.FetchWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize search client")
	}

	place, err := client.DiscoverPlace(ctx, cfg.City)
	if err != nil {
		log.Fatal().Err(err).Str("city", cfg.City).Msg("place discovery failed")
	}
	log.Info().Str("place", place.ID).Str("name", place.Name).Msg("place resolved")

	var src domain.OfferSource = client
	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		src = app.NewCachingSource(client, cache, cfg.CacheTTL)
	}

	var archive domain.OfferArchive
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		repo := mysqlrepo.New(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("offer archive schema failed")
		}
		archive = repo
		log.Info().Msg("offer archive enabled")
	}

	exp := app.NewExpander(src, opt, archive, log.Logger)
	pol := app.ExpandPolicy{
		DaysPerRound:   cfg.DaysPerRound,
		MaxRounds:      cfg.MaxRounds,
		MaxHorizonDays: cfg.MaxSearchDay,
	}
	ocfg := domain.OptimizerConfig{
		TargetPoints:   cfg.TargetLP,
		StartingPoints: cfg.CurrentLP,
		CardBonus:      cfg.CardBonus,
	}
	to := start.AddDate(0, 0, cfg.WindowDays-1)

	res, err := exp.Run(ctx, place.ID, start, to, pol, ocfg, strat)
	if err != nil {
		log.Fatal().Err(err).Msg("plan run failed")
	}

	printPlan(res, ocfg)

	log.Info().
		Str("run", res.RunID).
		Str("state", string(res.State)).
		Str("outcome", string(res.Outcome)).
		Int("rounds", res.Rounds).
		Int("pool", res.PoolSize).
		Msg("optimizer finished")
	if res.Outcome != domain.TargetMet {
		os.Exit(1)
	}
}

func printPlan(res app.PlanResult, cfg domain.OptimizerConfig) {
	fmt.Printf("\nSearched %s .. %s (%d rounds, %d unique offers)\n",
		res.From.Format("2006-01-02"), res.To.Format("2006-01-02"), res.Rounds, res.PoolSize)
	fmt.Printf("%-12s %-32s %10s %8s %10s %12s\n",
		"DATE", "HOTEL", "PRICE", "BASE", "EARNED", "BALANCE")
	for _, s := range res.Itinerary.Stays {
		name := s.HotelName
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		fmt.Printf("%-12s %-32s %10s %8d %10d %12d\n",
			s.CheckIn.Format("2006-01-02"), name, s.Price.StringFixed(2),
			s.BasePoints, s.EffectivePoints, s.CumulativeAfter)
	}
	fmt.Printf("\nTotal: %d nights, $%s, %d points earned (%d -> %d, target %d)\n",
		len(res.Itinerary.Stays), res.Itinerary.TotalCost.StringFixed(2),
		res.Itinerary.TotalPoints, cfg.StartingPoints,
		cfg.StartingPoints+res.Itinerary.TotalPoints, cfg.TargetPoints)
	if res.Itinerary.TotalCost.Sign() > 0 {
		ppd := decimal.NewFromInt(int64(res.Itinerary.TotalPoints)).Div(res.Itinerary.TotalCost)
		fmt.Printf("Overall: %s points per dollar\n", ppd.StringFixed(2))
	}
	if res.Outcome == domain.TargetMet {
		fmt.Println("Target reached.")
	} else {
		fmt.Println("Target NOT reached within the search horizon.")
	}
}
