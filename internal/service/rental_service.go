package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/pkg/uow"
)

const DefaultExpiryWindow = 24 * time.Hour

// RentalService ищет аренды, срок которых скоро истекает. Только чтение, повторный запуск безопасен.
type RentalService struct {
	trRepo TransactionRepository
	window time.Duration
}

func NewRentalService(u uow.UOW, window time.Duration) (*RentalService, error) {
	trRepo, trRepoErr := uow.GetRepositoryAs[TransactionRepository](
		u,
		uow.RepositoryName(repoargs.TransactionRepoName),
	)
	if trRepoErr != nil {
		return nil, trRepoErr //nolint:wrapcheck
	}
	if window <= 0 {
		window = DefaultExpiryWindow
	}
	return &RentalService{trRepo: trRepo, window: window}, nil
}

// FindExpiringRentals возвращает аренды со сроком в [now, now+window), сгруппированные по юзерам.
// Один запрос на всех юзеров.
func (r *RentalService) FindExpiringRentals(ctx context.Context, now time.Time) ([]domain.UserRentals, error) {
	rentals, err := r.trRepo.GetExpiringBetween(ctx, now, now.Add(r.window))
	if err != nil {
		return nil, fmt.Errorf("expiring rentals: %w", err)
	}

	var (
		result []domain.UserRentals
		index  = make(map[int64]int)
	)
	for _, rental := range rentals {
		userID := rental.Transaction.UserID
		i, ok := index[userID]
		if !ok {
			i = len(result)
			index[userID] = i
			result = append(result, domain.UserRentals{UserID: userID, Email: rental.Email})
		}
		result[i].Transactions = append(result[i].Transactions, rental.Transaction)
	}
	return result, nil
}
