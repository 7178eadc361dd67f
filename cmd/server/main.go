package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"elegance/backend/internal/cache"
	"elegance/backend/internal/config"
	"elegance/backend/internal/httpapi"
	"elegance/backend/internal/insight"
	"elegance/backend/internal/service"
	"elegance/backend/internal/store"
	"elegance/backend/internal/store/memory"
	pgstore "elegance/backend/internal/store/postgres"
	"elegance/backend/internal/store/redisstore"
	"elegance/backend/internal/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("storage %s unavailable: %v", cfg.Driver(), err)
	}
	repo := store.NewRepository(backend)
	closers = append(closers, repo.Close)
	log.Printf("repository: %s", cfg.Driver())

	if cfg.SeedDemoData {
		if _, err := store.Seed(ctx, repo); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	insightCache := cache.InsightCache(cache.NoopInsightCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisInsightCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop insight cache", err)
		} else {
			insightCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("insight cache: redis")
		}
	} else {
		log.Println("insight cache: noop")
	}

	var model insight.TextModel
	if cfg.GeminiAPIKey != "" {
		gemini, err := insight.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("gemini unavailable (%v), using fallback insights", err)
		} else {
			model = gemini
			closers = append(closers, gemini.Close)
			log.Printf("insights: gemini (%s)", cfg.GeminiModel)
		}
	} else {
		log.Println("insights: fallback (GEMINI_API_KEY not set)")
	}

	assistant := insight.New(model, insightCache, insight.Options{
		BusinessName: cfg.BusinessName,
		Currency:     cfg.Currency,
		Timeout:      time.Duration(cfg.InsightTimeoutSeconds) * time.Second,
		CacheTTL:     time.Duration(cfg.InsightCacheTTLSeconds) * time.Second,
	})
	svc := service.New(repo, assistant, service.Options{
		BusinessName: cfg.BusinessName,
		Currency:     cfg.Currency,
	})
	if _, err := svc.ReconcileAll(ctx); err != nil {
		log.Fatalf("startup reconciliation failed: %v", err)
	}

	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("auth setup failed: %v", err)
	}
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      time.Duration(cfg.InsightTimeoutSeconds+10) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("%s backend listening on %s", cfg.BusinessName, cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

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

// openBackend connects the configured storage driver. A configured but
// unreachable store is fatal; there is no silent fallback to memory.
func openBackend(ctx context.Context, cfg config.Config) (store.Backend, error) {
	switch cfg.Driver() {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		return pgstore.New(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "data/elegance.db"
		}
		return sqlite.New(path, false)
	case config.DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required for the redis driver")
		}
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Driver())
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set")
	}
	if httpapi.IsPasswordHash(cfg.AdminPassword) {
		return nil
	}
	if len(cfg.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}
	if err := validatePasswordStrength(cfg.AdminPassword); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD is too weak: %w", err)
	}
	return nil
}

// validatePasswordStrength rejects well-known passwords and passwords made of
// a single repeated character.
func validatePasswordStrength(password string) error {
	known := map[string]bool{
		"password": true, "password1": true, "12345678": true, "123456789": true,
		"qwertyui": true, "qwerty123": true, "iloveyou": true, "admin123": true,
		"letmein1": true, "welcome1": true, "abc12345": true, "boutique": true,
		"elegance": true, "changeme": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	allSame := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("repeated-character password not allowed")
	}

	return nil
}
