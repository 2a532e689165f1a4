package main

import (
	"context"
	"log"
	"time"

	"PictureMarket/internal/config"
	"PictureMarket/internal/db"
	"PictureMarket/internal/ledger"
	"PictureMarket/internal/store"
	"PictureMarket/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	st := store.New(pool)
	ledgerClient := ledger.NewClient(cfg.Ledger.Endpoint)

	wsEndpoint := cfg.Ledger.WSEndpoint
	if wsEndpoint == "" {
		wsEndpoint = ledger.DefaultWSEndpoint(cfg.Ledger.Endpoint)
	}
	if wsEndpoint != "" {
		log.Printf("ws endpoint: %s", wsEndpoint)
	}

	interval := time.Duration(cfg.Worker.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 20 * time.Second
	}

	w := &worker.Worker{
		Store:            st,
		Ledger:           ledgerClient,
		StartBlock:       cfg.Worker.StartBlock,
		MaxBlocksPerTick: cfg.Worker.MaxBlocksPerTick,
		Interval:         interval,
		WSEndpoint:       wsEndpoint,
	}

	log.Printf("worker started (ledger=%s)", cfg.Ledger.Endpoint)
	w.Run(ctx)
}
