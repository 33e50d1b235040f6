package notifier

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

type RentalFinder interface {
	FindExpiringRentals(ctx context.Context, now time.Time) ([]domain.UserRentals, error)
}

// Deduplicator помнит, по каким арендам уведомление уже отправлено.
type Deduplicator interface {
	Pending(ctx context.Context, transactions []domain.Transaction) ([]domain.Transaction, error)
	MarkSent(ctx context.Context, transactions []domain.Transaction) error
}
