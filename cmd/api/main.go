package main

import (
	"context"
	"log"

	"github.com/hydroplan-hq/techsheet-backend/config"
	"github.com/hydroplan-hq/techsheet-backend/internal/bootstrap"
	"github.com/hydroplan-hq/techsheet-backend/internal/importer"
	"github.com/hydroplan-hq/techsheet-backend/internal/storage/postgres"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/cache"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/persist"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/repository"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Printf("postgres unavailable, project routes disabled: %v", err)
		pool = nil
	} else {
		defer pool.Close()
	}

	var opts []store.Option

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Printf("redis unavailable, running without technical data cache: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
		opts = append(opts, store.WithCache(cache.New(rdb)))
	}

	var persister persist.Persister
	var persistence string
	switch {
	case cfg.DataAPI.Disabled:
		log.Println("data API disabled, mutations persist locally only")
		persister = persist.Noop{}
		persistence = "disabled"
	case cfg.DataAPI.BaseURL != "":
		persister = persist.NewAPIClient(cfg.DataAPI.BaseURL, cfg.DataAPI.APIKey)
		persistence = "data-api"
	default:
		sqlDB, err := postgres.Open(&cfg.Database)
		if err != nil {
			log.Fatalf("no DATA_API_URL and postgres unavailable: %v", err)
		}
		defer sqlDB.Close()
		persister = persist.NewPostgresStore(sqlDB)
		persistence = "postgres"
		opts = append(opts, store.WithArchiver(repository.NewVersionRepository(sqlDB)))
	}

	st := store.New(persister, opts...)

	dict := importer.DefaultDictionary()
	if cfg.App.Dictionary != "" {
		d, err := importer.LoadDictionary(cfg.App.Dictionary)
		if err != nil {
			log.Printf("parameter dictionary %s unusable, using built-in: %v", cfg.App.Dictionary, err)
		} else {
			dict = d
		}
	}
	importSvc := importer.NewService(importer.NewMapper(dict, importer.KeywordScorer{}), st)

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "techsheet-backend",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.App.AllowedOrigins,
		DB:             pool,
		Redis:          rdb,
		Persistence:    persistence,
		Store:          st,
		ImportService:  importSvc,
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
