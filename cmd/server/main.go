package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openlend/loan-engine/internal/config"
	"github.com/openlend/loan-engine/internal/handler"
	"github.com/openlend/loan-engine/internal/repository"
	"github.com/openlend/loan-engine/internal/service"
	"github.com/openlend/loan-engine/pkg/logger"
	"github.com/openlend/loan-engine/pkg/metrics"
	"github.com/openlend/loan-engine/pkg/response"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	db, err := initDB(cfg)
	if err != nil {
		zapLog.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	collector := metrics.NewCollector()

	appRepo := repository.NewApplicationRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	uow := repository.NewUnitOfWork(db)

	ledger := service.NewLedgerService(uow, loanRepo, paymentRepo, collector, zapLog)
	originator := service.NewOriginatorService(uow, loanRepo, ledger, collector, zapLog)
	applications := service.NewApplicationService(appRepo, zapLog)
	aggregator := service.NewAggregatorService(
		loanRepo, paymentRepo, redisClient, cfg.GetMetricsCacheTTL(), collector, zapLog)

	applicationHandler := handler.NewApplicationHandler(applications)
	loanHandler := handler.NewLoanHandler(originator, ledger)
	dashboardHandler := handler.NewDashboardHandler(aggregator, cfg.Business.TrendRangeDays)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := setupRoutes(applicationHandler, loanHandler, dashboardHandler, healthHandler, collector, zapLog)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	go func() {
		zapLog.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zapLog.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	applicationHandler *handler.ApplicationHandler,
	loanHandler *handler.LoanHandler,
	dashboardHandler *handler.DashboardHandler,
	healthHandler *handler.HealthHandler,
	collector *metrics.Collector,
	zapLog *zap.Logger,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.CORSMiddleware)
	router.Use(response.ObservabilityMiddleware(zapLog, collector))

	// Health and metrics
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	router.Handle("/metrics", collector.Handler()).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/applications", applicationHandler.CreateApplication).Methods("POST")
	api.HandleFunc("/applications", applicationHandler.ListApplications).Methods("GET")
	api.HandleFunc("/applications/{applicationId}", applicationHandler.GetApplication).Methods("GET")
	api.HandleFunc("/applications/{applicationId}/status", applicationHandler.ApplyStatus).Methods("POST")

	api.HandleFunc("/loans", loanHandler.CreateLoan).Methods("POST")
	api.HandleFunc("/loans", loanHandler.ListLoans).Methods("GET")
	api.HandleFunc("/loans/{loanId}", loanHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/activate", loanHandler.ActivateLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/payments", loanHandler.ListPayments).Methods("GET")
	api.HandleFunc("/loans/{loanId}/rematerialize", loanHandler.RematerializeSchedule).Methods("POST")
	api.HandleFunc("/payments/{paymentId}/record", loanHandler.RecordPayment).Methods("POST")

	api.HandleFunc("/dashboard/financial", dashboardHandler.FinancialMetrics).Methods("GET")
	api.HandleFunc("/dashboard/trends", dashboardHandler.PaymentTrends).Methods("GET")
	api.HandleFunc("/dashboard/loan-status", dashboardHandler.LoanStatusDistribution).Methods("GET")
	api.HandleFunc("/dashboard/payment-status", dashboardHandler.PaymentStatusDistribution).Methods("GET")

	return router
}
