package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rxpos/pharmacare-backend/api/middleware"
	"github.com/rxpos/pharmacare-backend/api/routes"
	"github.com/rxpos/pharmacare-backend/internal/audit"
	"github.com/rxpos/pharmacare-backend/internal/auth"
	"github.com/rxpos/pharmacare-backend/internal/customers"
	"github.com/rxpos/pharmacare-backend/internal/expenses"
	"github.com/rxpos/pharmacare-backend/internal/medicines"
	"github.com/rxpos/pharmacare-backend/internal/pharmacies"
	"github.com/rxpos/pharmacare-backend/internal/sales"
	"github.com/rxpos/pharmacare-backend/internal/suppliers"
	"github.com/rxpos/pharmacare-backend/internal/users"
	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db"
	"github.com/rxpos/pharmacare-backend/pkg/licensing"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
	"github.com/rxpos/pharmacare-backend/pkg/machineid"
	"github.com/rxpos/pharmacare-backend/pkg/metrics"
	"github.com/rxpos/pharmacare-backend/pkg/migrate"
	"github.com/rxpos/pharmacare-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	// Redis is optional: offline installs run without it.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	codec, err := licensing.NewCodec(cfg.License.Secret, cfg.License.Salt)
	if err != nil {
		logg.Error(context.Background(), "failed to build license codec", err)
		os.Exit(1)
	}
	fingerprint := func() (string, error) { return machineid.Fingerprint(), nil }

	registry := prometheus.NewRegistry()
	gateMetrics := metrics.NewGateMetrics(registry)

	userRepo := users.NewRepository(dbClient.DB())
	pharmacyRepo := pharmacies.NewRepository(dbClient.DB())
	auditRepo := audit.NewRepository(dbClient.DB())

	auditService, err := audit.NewService(audit.ServiceParams{Repo: auditRepo, Logger: logg})
	fatalOn(logg, "audit service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Audit:          auditService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	fatalOn(logg, "auth service", err)

	pharmacyService, err := pharmacies.NewService(pharmacies.ServiceParams{
		Repo:           pharmacyRepo,
		Users:          userRepo,
		Tx:             dbClient,
		Audit:          auditService,
		Codec:          codec,
		Fingerprint:    fingerprint,
		PasswordConfig: cfg.Password,
	})
	fatalOn(logg, "pharmacy service", err)

	userService, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		Audit:          auditService,
		PasswordConfig: cfg.Password,
	})
	fatalOn(logg, "users service", err)

	medicineService, err := medicines.NewService(medicines.ServiceParams{
		Repo:  medicines.NewRepository(dbClient.DB()),
		Audit: auditService,
	})
	fatalOn(logg, "medicines service", err)

	saleService, err := sales.NewService(sales.ServiceParams{
		Repo:  sales.NewRepository(dbClient.DB()),
		Tx:    dbClient,
		Audit: auditService,
	})
	fatalOn(logg, "sales service", err)

	customerService, err := customers.NewService(customers.ServiceParams{
		Repo: customers.NewRepository(dbClient.DB()),
	})
	fatalOn(logg, "customers service", err)

	supplierService, err := suppliers.NewService(suppliers.ServiceParams{
		Repo: suppliers.NewRepository(dbClient.DB()),
	})
	fatalOn(logg, "suppliers service", err)

	expenseService, err := expenses.NewService(expenses.ServiceParams{
		Repo:  expenses.NewRepository(dbClient.DB()),
		Audit: auditService,
	})
	fatalOn(logg, "expenses service", err)

	handler := routes.New(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Database: dbClient,
		Redis:    redisClient,

		Users:      userRepo,
		Pharmacies: pharmacyRepo,

		Codec:       codec,
		Fingerprint: middleware.Fingerprinter(fingerprint),
		Metrics:     gateMetrics,
		Registry:    registry,

		AuthService:     authService,
		PharmacyService: pharmacyService,
		UserService:     userService,
		MedicineService: medicineService,
		SaleService:     saleService,
		CustomerService: customerService,
		SupplierService: supplierService,
		ExpenseService:  expenseService,
		AuditService:    auditService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func fatalOn(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
