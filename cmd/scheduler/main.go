package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/openlend/loan-engine/internal/config"
	"github.com/openlend/loan-engine/internal/repository"
	"github.com/openlend/loan-engine/internal/service"
	"github.com/openlend/loan-engine/pkg/logger"
)

// The scheduler runs the read-side reporting jobs. It never mutates loan or
// payment state: overdue-ness stays a derived view, so the jobs only observe
// and log.
func main() {
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

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		zapLog.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		zapLog.Fatal("invalid scheduler timezone",
			zap.String("timezone", cfg.Scheduler.Timezone), zap.Error(err))
	}

	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	aggregator := service.NewAggregatorService(loanRepo, paymentRepo, nil, 0, nil, zapLog)

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	jobs := &reportJobs{
		aggregator:        aggregator,
		paymentRepo:       paymentRepo,
		reminderDaysAhead: cfg.Scheduler.ReminderDaysAhead,
		log:               zapLog,
	}

	if _, err := c.AddFunc(cfg.Scheduler.OverdueReportSpec, jobs.overdueReport); err != nil {
		zapLog.Fatal("scheduling overdue report failed", zap.Error(err))
	}
	if _, err := c.AddFunc(cfg.Scheduler.ReminderSpec, jobs.upcomingPaymentReport); err != nil {
		zapLog.Fatal("scheduling payment reminder failed", zap.Error(err))
	}

	c.Start()
	zapLog.Info("scheduler started",
		zap.String("overdue_report_spec", cfg.Scheduler.OverdueReportSpec),
		zap.String("reminder_spec", cfg.Scheduler.ReminderSpec),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down scheduler")
	<-c.Stop().Done()
	zapLog.Info("scheduler stopped")
}

type reportJobs struct {
	aggregator        *service.AggregatorService
	paymentRepo       repository.PaymentRepository
	reminderDaysAhead int
	log               *zap.Logger
}

// overdueReport logs the portfolio snapshot with the current overdue picture.
func (j *reportJobs) overdueReport() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	m, err := j.aggregator.GetFinancialMetrics(ctx)
	if err != nil {
		j.log.Error("overdue report failed", zap.Error(err))
		return
	}

	j.log.Info("daily overdue report",
		zap.Int("overdue_payments", m.OverduePaymentsCount),
		zap.String("overdue_amount", m.OverduePaymentsAmount.String()),
		zap.String("outstanding", m.TotalLoansOutstanding.String()),
		zap.Int("loans", m.LoanCount),
	)
}

// upcomingPaymentReport lists payments falling due in the next few days so
// staff can chase borrowers ahead of time.
func (j *reportJobs) upcomingPaymentReport() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	due, err := j.paymentRepo.GetDueBetween(ctx, now, now.AddDate(0, 0, j.reminderDaysAhead))
	if err != nil {
		j.log.Error("payment reminder report failed", zap.Error(err))
		return
	}

	for _, payment := range due {
		j.log.Info("payment due soon",
			zap.String("payment_id", payment.ID.String()),
			zap.String("loan_id", payment.LoanID.String()),
			zap.Int("payment_number", payment.PaymentNumber),
			zap.Time("due_date", payment.DueDate),
			zap.String("amount_due", payment.AmountDue.String()),
		)
	}

	j.log.Info("payment reminder report complete",
		zap.Int("payments_due", len(due)),
		zap.Int("days_ahead", j.reminderDaysAhead),
	)
}
