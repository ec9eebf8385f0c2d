package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Syauqi-N/Bot-Saham/internal/cache"
	"github.com/Syauqi-N/Bot-Saham/internal/config"
	"github.com/Syauqi-N/Bot-Saham/internal/gateway"
	"github.com/Syauqi-N/Bot-Saham/internal/maintenance"
	"github.com/Syauqi-N/Bot-Saham/internal/marketdata"
	"github.com/Syauqi-N/Bot-Saham/internal/marketdata/tvfeed"
	"github.com/Syauqi-N/Bot-Saham/internal/quote"
	"github.com/Syauqi-N/Bot-Saham/internal/ratelimit"
	"github.com/Syauqi-N/Bot-Saham/internal/recorder"
	"github.com/Syauqi-N/Bot-Saham/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] bot-saham starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	interval, err := marketdata.ParseInterval(cfg.Quote.Interval)
	if err != nil {
		log.Fatalf("[FATAL] parse interval: %v", err)
	}

	httpTimeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	// Stores
	store := cache.New(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	limiter := ratelimit.New(time.Duration(cfg.RateLimitSeconds) * time.Second)

	// Quote service over a lazily-built datafeed client
	newFetcher := func() (marketdata.Fetcher, error) {
		return tvfeed.New(cfg.TradingView.Username, cfg.TradingView.Password, httpTimeout)
	}
	quotes := quote.NewService(newFetcher, store, cfg.Quote.Exchange, interval, cfg.Quote.Bars)

	// Messaging gateway
	waha := gateway.NewClient(cfg.WAHA.BaseURL, cfg.WAHA.Session, cfg.WAHA.APIKey, httpTimeout)

	// Command audit recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Maintenance sweeps
	janitor := maintenance.NewJanitor(store, limiter)
	if err := janitor.Start(); err != nil {
		log.Fatalf("[FATAL] start janitor: %v", err)
	}
	defer janitor.Stop()

	// HTTP server
	handler := server.New(quotes, waha, limiter, rec, cfg.Quote.IndexSymbol, cfg.Quote.Exchange, cfg.Debug())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler.Routes(),
	}

	go func() {
		log.Printf("[INFO] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] bot-saham stopped")
}
