package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"lpstays/internal/adapters/aadvantage"
	server "lpstays/internal/adapters/http_server"
	"lpstays/internal/adapters/observability"
	redisad "lpstays/internal/adapters/redis"
	"lpstays/internal/app"
	"lpstays/internal/domain"
	"lpstays/internal/shared"
	mysqlrepo "lpstays/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	policy, err := shared.LoadBonusPolicy(cfg.TiersFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.TiersFile).Msg("bonus policy load failed")
	}
	opt, err := app.NewOptimizer(policy)
	if err != nil {
		log.Fatal().Err(err).Msg("bad bonus policy")
	}

	// /v1/plan needs the upstream search client; without a base URL the
	// endpoint answers 503 and /v1/optimize still works on posted pools
	var exp *app.Expander
	if cfg.SearchBase != "" {
		headers, err := aadvantage.LoadSessionHeaders(cfg.SessionFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SessionFile).Msg("session headers load failed")
		}
		client, err := aadvantage.New(cfg.SearchBase, headers, cfg.SearchRPS, cfg.FetchWorkers)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize search client")
		}

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
			if err := repo.EnsureSchema(context.Background()); err != nil {
				log.Fatal().Err(err).Msg("offer archive schema failed")
			}
			archive = repo
			log.Info().Msg("offer archive enabled")
		}

		exp = app.NewExpander(src, opt, archive, log.Logger)
	}

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Opt: opt, Exp: exp})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
