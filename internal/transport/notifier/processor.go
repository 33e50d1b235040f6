// Package notifier рассылает юзерам письма об окончании аренды курсов.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/transport/mailer"
	"github.com/sirupsen/logrus"
)

const (
	defaultServiceTimeout      = 10 * time.Second
	defaultSendTimeout         = 10 * time.Second
	defaultWorkers        uint = 5
	defaultMaxAttempts    uint = 3
)

// ErrInterrupted прогон прерван до обработки всех юзеров.
var ErrInterrupted = errors.New("notify run interrupted")

// Processor находит аренды, срок которых скоро истекает, и отправляет по одному письму на юзера.
type Processor struct {
	finder      RentalFinder
	mailer      Mailer
	dedup       Deduplicator
	l           *logrus.Entry
	workers     uint
	maxAttempts uint
	now         func() time.Time
}

// Summary итог одного прогона.
type Summary struct {
	Users    int
	Notified int
	Skipped  int
	Failed   int
}

func New(finder RentalFinder, m Mailer, l *logrus.Logger) *Processor {
	return &Processor{
		finder: finder,
		mailer: m,
		dedup:  nopDeduplicator{},
		l: l.WithFields(logrus.Fields{
			"component": "notifier",
			"module":    "processor",
		}),
		workers:     defaultWorkers,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
}

// SetWorkers устанавливает кол-во воркеров, отправляющих письма.
func (p *Processor) SetWorkers(workers uint) *Processor {
	if workers > 0 {
		p.workers = workers
	}
	return p
}

// SetDeduplicator включает пропуск уже уведомленных аренд.
func (p *Processor) SetDeduplicator(dedup Deduplicator) *Processor {
	if dedup != nil {
		p.dedup = dedup
	}
	return p
}

// SetMaxAttempts устанавливает кол-во попыток отправки при ответе 429.
func (p *Processor) SetMaxAttempts(attempts uint) *Processor {
	if attempts > 0 {
		p.maxAttempts = attempts
	}
	return p
}

// Run выполняет один прогон рассылки.
//
// Алгоритм работы:
//  1. Через сервисный слой одним запросом получает аренды, истекающие в ближайшее окно, сгруппированные по юзерам.
//  2. Создаются N воркеров (кол-во настраивается через SetWorkers), каждый отправляет письмо одному юзеру.
//  3. Ошибки отправки не прерывают прогон, они собираются и возвращаются в конце.
func (p *Processor) Run(ctx context.Context) (Summary, error) {
	rentals, err := p.produce(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("notify rentals: %w", err)
	}

	summary := Summary{Users: len(rentals)}
	if len(rentals) == 0 {
		p.l.Info("no rentals ending soon")
		return summary, nil
	}

	var errs []error
	results := p.runWorkers(ctx, rentals)
	for _, result := range results {
		switch {
		case result.Error != nil:
			summary.Failed++
			errs = append(errs, result.Error)
		case result.Skipped:
			summary.Skipped++
		default:
			summary.Notified++
		}
	}

	// при отмене контекста воркеры выходят, не забрав оставшихся юзеров
	if dropped := len(rentals) - len(results); dropped > 0 {
		summary.Failed += dropped
		cause := ctx.Err()
		if cause == nil {
			cause = ErrInterrupted
		}
		errs = append(errs, fmt.Errorf("%d users left unprocessed: %w", dropped, cause))
	}

	p.l.WithFields(logrus.Fields{
		"users":    summary.Users,
		"notified": summary.Notified,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}).Info("rental notices done")

	if len(errs) > 0 {
		return summary, fmt.Errorf("notify rentals: %w", errors.Join(errs...))
	}
	return summary, nil
}

func (p *Processor) produce(ctx context.Context) ([]domain.UserRentals, error) {
	produceCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	rentals, err := p.finder.FindExpiringRentals(produceCtx, p.now())
	if err != nil {
		return nil, fmt.Errorf("produce: %w", err)
	}
	return rentals, nil
}

type workerResult struct {
	WorkerID uint
	Attempt  uint
	Rentals  *domain.UserRentals
	Skipped  bool
	Error    error
}

// runWorkers fan-out/fan-in: раздает юзеров воркерам и ждет конца их работы.
func (p *Processor) runWorkers(ctx context.Context, rentals []domain.UserRentals) []workerResult {
	var taskCh = make(chan *domain.UserRentals, len(rentals))

	for i := range rentals {
		taskCh <- &rentals[i]
	}
	close(taskCh)

	wg := new(sync.WaitGroup)
	wg.Add(int(p.workers)) // nolint:gosec

	var resultCh = make(chan *workerResult, len(rentals))

	for i := range p.workers {
		go p.worker(ctx, wg, i+1, taskCh, resultCh)
	}
	wg.Wait()

	close(resultCh)

	var results = make([]workerResult, 0, len(rentals))
	for result := range resultCh {
		l := p.l.WithFields(logrus.Fields{
			"worker":  result.WorkerID,
			"userID":  result.Rentals.UserID,
			"attempt": result.Attempt,
		})
		switch {
		case result.Error != nil:
			l.WithError(result.Error).Error("send rental notice")
		case result.Skipped:
			l.Debug("already notified")
		default:
			l.WithField("rentals", len(result.Rentals.Transactions)).Info("Success")
		}
		results = append(results, *result)
	}
	return results
}

func (p *Processor) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	workerID uint,
	taskCh <-chan *domain.UserRentals,
	resultCh chan<- *workerResult,
) {
	defer wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case task, ok := <-taskCh:
			if !ok {
				return
			}
			resultCh <- p.processWorkerTask(ctx, workerID, task)
		}
	}
}

// processWorkerTask отправляет письмо одному юзеру. В случае получения ошибки 429 ждет время из заголовка
// Retry-After (с разбросом) и повторяет, не более maxAttempts раз.
func (p *Processor) processWorkerTask(ctx context.Context, workerID uint, task *domain.UserRentals) *workerResult {
	result := workerResult{WorkerID: workerID, Rentals: task}

	pending, dedupErr := p.dedup.Pending(ctx, task.Transactions)
	if dedupErr != nil {
		// лучше уведомить повторно, чем не уведомить вовсе
		p.l.WithError(dedupErr).WithField("userID", task.UserID).Warn("dedup check failed")
		pending = task.Transactions
	}
	if len(pending) == 0 {
		result.Skipped = true
		return &result
	}

	text := RenderNotice(pending)
	for result.Attempt = 1; ; result.Attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, defaultSendTimeout)
		err := p.mailer.Send(sendCtx, task.Email, NoticeSubject, text)
		cancel()

		if err == nil {
			break
		}

		var tooManyReq *mailer.TooManyRequestError
		if !errors.As(err, &tooManyReq) || result.Attempt >= p.maxAttempts {
			result.Error = fmt.Errorf("user %d: %w", task.UserID, err)
			return &result
		}

		wait := time.Duration(jitter(float64(tooManyReq.RetryAfter), 0, 0.2)) //nolint:mnd
		select {
		case <-ctx.Done():
			result.Error = ctx.Err()
			return &result
		case <-time.After(wait):
		}
	}

	if markErr := p.dedup.MarkSent(ctx, pending); markErr != nil {
		p.l.WithError(markErr).WithField("userID", task.UserID).Warn("mark notice as sent")
	}
	return &result
}
