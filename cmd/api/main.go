package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dstorelabs/store-backend/internal/api"
	"github.com/dstorelabs/store-backend/internal/api/handlers"
	"github.com/dstorelabs/store-backend/internal/auth"
	"github.com/dstorelabs/store-backend/internal/config"
	"github.com/dstorelabs/store-backend/internal/db"
	"github.com/dstorelabs/store-backend/internal/ledger"
	ledgermem "github.com/dstorelabs/store-backend/internal/ledger/memory"
	ledgerpg "github.com/dstorelabs/store-backend/internal/ledger/postgres"
	"github.com/dstorelabs/store-backend/internal/logger"
	"github.com/dstorelabs/store-backend/internal/metrics"
	"github.com/dstorelabs/store-backend/internal/middleware"
	repo "github.com/dstorelabs/store-backend/internal/repository"
	repomem "github.com/dstorelabs/store-backend/internal/repository/memory"
	repopg "github.com/dstorelabs/store-backend/internal/repository/postgres"
	"github.com/dstorelabs/store-backend/internal/services"
	"github.com/dstorelabs/store-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		ldg   ledger.Ledger
		repos repo.Repositories
	)
	if cfg.DatabaseURL == "" {
		log.Info("no DATABASE_URL set, using in-memory ledger")
		ldg = ledgermem.New()
		repos = repomem.NewRepositories()
	} else {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if os.Getenv("APP_MIGRATE") == "true" {
			if err := db.RunMigrations(ctx, pool); err != nil {
				log.Error("migrations", "err", err)
				os.Exit(1)
			}
		}

		ldg = ledgerpg.New(pool)
		repos = repopg.NewRepositories(pool)
	}

	metrics.Init()
	wp := worker.NewPool(cfg.Workers)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, 15*time.Minute, 7*24*time.Hour)

	userSvc := services.NewUserService(repos.Users, tm)
	catalogSvc := services.NewCatalogService(ldg, repos.AuditLogs)
	balanceSvc := services.NewBalanceService(ldg)
	purchaseSvc := services.NewPurchaseService(ldg, repos.Purchases, repos.Withdrawals, repos.AuditLogs, wp)

	r := api.NewRouter(api.RouterDeps{
		Cfg:         cfg,
		Auth:        handlers.NewAuthHandler(userSvc, tm),
		AuthMW:      middleware.NewAuthMiddleware(tm),
		CatalogSvc:  catalogSvc,
		BalanceSvc:  balanceSvc,
		PurchaseSvc: purchaseSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
