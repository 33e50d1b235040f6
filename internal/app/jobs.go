package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/study-billing/internal/service"
	"github.com/fsdevblog/study-billing/internal/transport/notifier"
	"github.com/fsdevblog/study-billing/internal/transport/report"
	"github.com/sirupsen/logrus"
)

const (
	JobNotifyRentals = "notify-rentals"
	JobReport        = "report"
	JobReconcile     = "reconcile"

	defaultJobTimeout = 10 * time.Minute
	redisPingTimeout  = 3 * time.Second
)

var (
	ErrUnknownJob      = errors.New("unknown job")
	ErrBalanceMismatch = errors.New("cached balance does not match ledger")
)

// RunJob выполняет одну разовую задачу и завершается. Задачи рассчитаны на запуск внешним планировщиком.
func (a *App) RunJob(name string) error {
	job, ok := map[string]func(context.Context, *service.AppServices) error{
		JobNotifyRentals: a.notifyRentals,
		JobReport:        a.sendReport,
		JobReconcile:     a.reconcile,
	}[name]
	if !ok {
		return fmt.Errorf("%w `%s`, expected one of: %s, %s, %s",
			ErrUnknownJob, name, JobNotifyRentals, JobReport, JobReconcile)
	}

	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(notifyCtx, defaultJobTimeout)
	defer cancel()

	conn, services, err := a.bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("job %s: %s", name, err.Error())
	}
	defer conn.Close()

	l := a.Logger.WithField("job", name)
	l.Info("Starting")
	if jobErr := job(ctx, services); jobErr != nil {
		return fmt.Errorf("job %s: %w", name, jobErr)
	}
	l.Info("Done")
	return nil
}

func (a *App) notifyRentals(ctx context.Context, services *service.AppServices) error {
	processor := notifier.New(services.RentalService, a.newMailer(), a.Logger).
		SetWorkers(a.Config.NotifyWorkers)

	if a.Config.RedisAddress != "" {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		client, redisErr := notifier.NewRedisClient(pingCtx, a.Config.RedisAddress)
		cancel()
		if redisErr != nil {
			// без redis продолжаем: повторное письмо лучше пропущенного
			a.Logger.WithError(redisErr).Warn("redis is unavailable, continuing without dedup")
		} else {
			defer client.Close()
			// маркер должен пережить окно, в котором аренда снова попадет в выборку
			processor.SetDeduplicator(notifier.NewRedisDeduplicator(client, 2*a.Config.ExpiryWindow)) //nolint:mnd
		}
	}

	_, err := processor.Run(ctx)
	return err //nolint:wrapcheck
}

func (a *App) sendReport(ctx context.Context, services *service.AppServices) error {
	start, end, periodErr := a.Config.ReportPeriod(time.Now())
	if periodErr != nil {
		return periodErr //nolint:wrapcheck
	}

	result, err := services.ReportService.GenerateReport(ctx, start, end)
	if err != nil {
		return err //nolint:wrapcheck
	}

	reporter, reporterErr := report.New(a.newMailer(), a.Config.ReportEmail)
	if reporterErr != nil {
		return reporterErr //nolint:wrapcheck
	}

	a.Logger.WithFields(logrus.Fields{
		"start":   start,
		"end":     end,
		"courses": len(result.Rows),
		"total":   result.Total,
	}).Info("report generated")

	return reporter.Send(ctx, result) //nolint:wrapcheck
}

func (a *App) reconcile(ctx context.Context, services *service.AppServices) error {
	mismatches, err := services.BalanceService.ReconcileAll(ctx)
	if err != nil {
		return err //nolint:wrapcheck
	}
	for _, m := range mismatches {
		a.Logger.WithFields(logrus.Fields{
			"userID": m.UserID,
			"ledger": m.LedgerAmount,
			"cached": m.CachedAmount,
		}).Warn("balance mismatch")
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%w: %d users", ErrBalanceMismatch, len(mismatches))
	}
	return nil
}
