package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogview/internal/collection"
	"catalogview/internal/config"
	"catalogview/internal/datasource/graphql"
	"catalogview/internal/domain/glossary"
	httpx "catalogview/internal/http"
	"catalogview/internal/notify"
	glossarysvc "catalogview/internal/services/glossary"
	"catalogview/internal/services/session"
	"catalogview/internal/store/postgres"
	"catalogview/internal/store/repositories"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Upstream GraphQL API
	client := graphql.NewClient(cfg.GraphQL.Endpoint, graphql.Options{
		Timeout:    cfg.GraphQL.Timeout,
		MaxRetries: cfg.GraphQL.MaxRetries,
	})
	catalog := graphql.DefaultCatalog()

	// Notifications: always logged, published when redis is configured
	notifier := notify.Multi{notify.NewLogNotifier()}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping fail")
		}
		notifier = append(notifier, notify.NewRedisNotifier(rdb, cfg.Redis.Channel))
	}

	// Glossary: database when configured, otherwise the GraphQL API
	sources := session.CatalogSources(client, catalog)
	var glossarySource collection.DataSource[glossary.Node]
	var glossaryRepo repositories.GlossaryRepository
	var db httpx.Pinger
	backend := "graphql"
	if cfg.DB.DSN != "" {
		pool := postgres.MustOpen(ctx, cfg.DB.DSN)
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("db schema fail")
		}
		repo := postgres.NewRepo(pool)
		db = repo.DB()
		glossaryRepo = repo.Glossary()
		glossarySource = postgres.NewGlossarySource(glossaryRepo)
		// open searchGlossary views read the same table the editor writes
		sources = session.Override(sources, graphql.DocSearchGlossary, collection.RawJSON(glossarySource))
		backend = "postgres"
	} else {
		doc, err := catalog.Get(graphql.DocSearchGlossary)
		if err != nil {
			log.Fatal().Err(err).Msg("glossary document missing")
		}
		glossarySource = graphql.NewSource[glossary.Node](client, doc)
	}

	sessions := session.NewService(sources, notifier, session.Options{
		DefaultPageSize: cfg.Paging.DefaultSize,
		MaxPageSize:     cfg.Paging.MaxSize,
	})

	var editor *glossarysvc.Editor
	if glossaryRepo != nil {
		editor = glossarysvc.NewEditor(glossaryRepo, sessions)
	}

	// Start idle-session reaper
	reaper := session.NewReaper(sessions, cfg.Sessions.IdleTTL, cfg.Sessions.ReapEvery)
	go reaper.Run(ctx)

	// Router
	r := httpx.NewRouter(httpx.RouterDependencies{
		Catalog:         catalog,
		Sessions:        sessions,
		Glossary:        glossarysvc.NewService(glossarySource, cfg.Paging.SelectListSize),
		GlossaryBackend: backend,
		Editor:          editor,
		DB:              db,
		RequireBearer:   cfg.App.RequireBearer,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GraphQL.Timeout*time.Duration(cfg.GraphQL.MaxRetries+1) + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().
			Str("graphql", client.Endpoint()).
			Str("glossary_backend", backend).
			Msgf("catalogview API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	// drain session fetches before the redis client and pool close
	if err := sessions.Shutdown(ctx2); err != nil {
		log.Warn().Err(err).Msg("session fetches still running")
	}
	client.CloseIdleConnections()
	log.Info().Msg("server stopped")
}
