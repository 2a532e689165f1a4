package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PictureMarket/internal/catalog"
	"PictureMarket/internal/config"
	"PictureMarket/internal/db"
	internalhttp "PictureMarket/internal/http"
	"PictureMarket/internal/ledger"
	"PictureMarket/internal/payments"
	"PictureMarket/internal/settlement"
	"PictureMarket/internal/store"
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
	addresses := ledger.AddressDeriver{Prefix: cfg.Ledger.AddressPrefix}

	catalogSvc := &catalog.Service{Store: st}
	orderSvc := &settlement.Service{
		Store:     st,
		Verifier:  settlement.Verifier{Ledger: ledgerClient, Addresses: addresses},
		Fees:      payments.Collector{Ledger: ledgerClient, Addresses: addresses, Platform: cfg.Ledger.PlatformAccount},
		Addresses: addresses,
		OrderFee:  cfg.Orders.Fee,
		TTL:       time.Duration(cfg.Orders.TTLMinutes) * time.Minute,
	}

	h := internalhttp.NewHandler(catalogSvc, orderSvc)
	srv := internalhttp.NewServer(h)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Printf("api listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
