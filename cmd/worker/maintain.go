package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hydroplan-hq/techsheet-backend/config"
	"github.com/hydroplan-hq/techsheet-backend/internal/bootstrap"
	"github.com/hydroplan-hq/techsheet-backend/internal/importer"
	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/cache"
)

// RunPrune trims every project's cached version history to the configured
// cap. One-shot; exits when done.
func RunPrune() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	if err := pruneAll(ctx, cache.New(rdb), maxVersions()); err != nil {
		log.Fatalf("prune: %v", err)
	}
}

func pruneAll(ctx context.Context, c *cache.Cache, max int) error {
	ids, err := c.ProjectIDs(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, id := range ids {
		dropped, err := c.PruneVersions(ctx, id, max)
		if err != nil {
			log.Printf("prune project_id=%s failed: %v", id, err)
			continue
		}
		if dropped > 0 {
			log.Printf("pruned %d versions for project_id=%s", dropped, id)
			total += dropped
		}
	}
	log.Printf("prune finished: %d projects scanned, %d versions dropped", len(ids), total)
	return nil
}

func maxVersions() int {
	if v := os.Getenv("TECHDATA_MAX_VERSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 50
}

// RunCheckDictionary validates the configured parameter dictionary file.
func RunCheckDictionary() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.App.Dictionary == "" {
		log.Println("PARAMETER_DICTIONARY not set, built-in dictionary in use")
		return
	}

	d, err := importer.LoadDictionary(cfg.App.Dictionary)
	if err != nil {
		log.Fatalf("dictionary: %v", err)
	}
	log.Printf("dictionary %s ok: %d parameters", cfg.App.Dictionary, len(d.Parameters))
}

// RunSchedule starts the nightly maintenance cron and blocks.
func RunSchedule() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	rdb, err := bootstrap.OpenRedis(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()
	c := cache.New(rdb)

	sched := cron.New(cron.WithSeconds())

	// 2:00 AM nightly
	_, err = sched.AddFunc("0 0 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := pruneAll(ctx, c, maxVersions()); err != nil {
			log.Printf("nightly prune failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("cron: %v", err)
	}

	log.Println("maintenance scheduler started (nightly prune at 2:00AM)")
	sched.Start()
	select {}
}
