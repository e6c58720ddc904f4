package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/config"
	"github.com/yeremiapane/newrestaurant/database"
	"github.com/yeremiapane/newrestaurant/events"
	"github.com/yeremiapane/newrestaurant/metrics"
	"github.com/yeremiapane/newrestaurant/middlewares"
	"github.com/yeremiapane/newrestaurant/router"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/tokenstore"
	"github.com/yeremiapane/newrestaurant/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.App.LogLevel, cfg.App.LogJSON)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatal(err)
	}

	store := tokenStore(ctx, cfg)

	hub := events.NewHub()
	metrics.Init()
	metrics.CountEvents(hub)

	opts := router.Options{
		Tokens:         utils.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.TTL, cfg.JWT.Issuer),
		Store:          store,
		Hub:            hub,
		Payment:        services.SimulatedPayment{Delay: cfg.Checkout.PaymentDelay},
		Currency:       cfg.App.CurrencySymbol,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		RateLimiter:    middlewares.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		AuthLimiter:    middlewares.NewStrictRateLimiter(cfg.RateLimit.AuthPerMinute),
		Checkout:       middlewares.CheckoutRateLimiter(10, 10),
	}
	go opts.RateLimiter.Cleanup(ctx, 5*time.Minute)
	go opts.AuthLimiter.Cleanup(ctx, 5*time.Minute)

	svc := router.NewServices(db, &opts)
	svc.Notifications.SubscribeTo(hub, cfg.App.CurrencySymbol)
	seedAdmin(ctx, svc.Users, cfg.Seed)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.SetupRouter(svc, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.WithError(err).Error("Server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	utils.InfoLogger.Info("Server exited")
}

// tokenStore uses Redis when REDIS_ADDR is set, otherwise an in-process store.
func tokenStore(ctx context.Context, cfg *config.Config) tokenstore.Store {
	if cfg.Redis.Addr != "" {
		client, err := tokenstore.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			utils.ErrorLogger.Fatal(err)
		}
		utils.InfoLogger.WithField("addr", cfg.Redis.Addr).Info("Using redis token store")
		return tokenstore.NewRedisStore(client)
	}

	store := tokenstore.NewMemoryStore()
	go store.Cleanup(ctx, time.Minute)
	return store
}

func seedAdmin(ctx context.Context, users *services.UserService, seed config.SeedConfig) {
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		utils.InfoLogger.Debug("Admin seeding skipped, SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return
	}
	admin, created, err := users.EnsureAdmin(ctx, seed.AdminUsername, seed.AdminEmail, seed.AdminPassword)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed admin: %v", err)
	}
	if created {
		utils.InfoLogger.WithField("user_id", admin.ID).Info("Seeded administrator account")
	}
}
