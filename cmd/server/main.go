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

	"brewtab/internal/cache"
	"brewtab/internal/catalog"
	"brewtab/internal/catalog/memory"
	pgcatalog "brewtab/internal/catalog/postgres"
	"brewtab/internal/config"
	"brewtab/internal/httpapi"
	"brewtab/internal/ledger"
	"brewtab/internal/service"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var source catalog.Source
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgcatalog.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		} else {
			source = pg
			closers = append(closers, pg.Close)
			log.Println("catalog source: postgres")
		}
	} else {
		source = memory.NewSeeded()
		log.Println("catalog source: in-memory")
	}

	snapCache := cache.SnapshotCache(cache.NoopSnapshotCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSnapshotCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			snapCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	var submitter ledger.Submitter
	if cfg.OrderAPIURL != "" {
		submitter = ledger.NewHTTPSubmitter(cfg.OrderAPIURL, time.Duration(cfg.OrderAPITimeoutSecs)*time.Second)
		log.Println("order ledger: http")
	} else {
		submitter = ledger.NewMemorySubmitter()
		log.Println("order ledger: in-memory")
	}

	svc := service.New(source, snapCache, submitter, cfg.StoreName, time.Duration(cfg.SnapshotTTLSeconds)*time.Second)
	if err := svc.Bootstrap(ctx); err != nil {
		log.Fatalf("catalog bootstrap failed: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	svc.StartRefresher(runCtx, time.Duration(cfg.CatalogRefreshSeconds)*time.Second)

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute)
	if err := auth.SeedUser(cfg.AdminUsername, cfg.AdminPassword, "admin"); err != nil {
		log.Fatalf("seed admin user: %v", err)
	}
	if cfg.CashierPassword != "" {
		if err := auth.SeedUser(cfg.CashierUsername, cfg.CashierPassword, "cashier"); err != nil {
			log.Fatalf("seed cashier user: %v", err)
		}
	}

	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set")
	}
	if len(cfg.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}
