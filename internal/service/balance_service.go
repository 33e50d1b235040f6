package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/pkg/uow"
	"github.com/shopspring/decimal"
)

type BalanceService struct {
	uow        uow.UOW
	userRepo   UserRepository
	trRepo     TransactionRepository
	courseRepo CourseRepository
	now        func() time.Time
}

func NewBalanceService(u uow.UOW) (*BalanceService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	trRepo, trRepoErr := uow.GetRepositoryAs[TransactionRepository](
		u,
		uow.RepositoryName(repoargs.TransactionRepoName),
	)
	if trRepoErr != nil {
		return nil, trRepoErr //nolint:wrapcheck
	}
	courseRepo, courseRepoErr := uow.GetRepositoryAs[CourseRepository](
		u,
		uow.RepositoryName(repoargs.CourseRepoName),
	)
	if courseRepoErr != nil {
		return nil, courseRepoErr //nolint:wrapcheck
	}
	return &BalanceService{
		uow:        u,
		userRepo:   userRepo,
		trRepo:     trRepo,
		courseRepo: courseRepo,
		now:        time.Now,
	}, nil
}

// GetBalance считает баланс юзера по леджеру. Если записей нет, баланс равен 0.
func (b *BalanceService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	sum, err := b.trRepo.GetUserBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance of user %d: %w", userID, err)
	}
	return sum.Balance(), nil
}

// ListTransactions история транзакций юзера, новые первыми.
func (b *BalanceService) ListTransactions(
	ctx context.Context,
	userID int64,
	filter domain.TransactionFilter,
) ([]domain.Transaction, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, fmt.Errorf("unknown transaction type `%s`: %w", filter.Type, domain.ErrValidation)
	}
	if filter.SkipExpired && filter.Now.IsZero() {
		filter.Now = b.now()
	}
	transactions, err := b.trRepo.GetByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("transactions of user %d: %w", userID, err)
	}
	return transactions, nil
}

// Reconcile сверяет баланс по леджеру с денормализованным. Оба значения читаются под блокировкой юзера,
// поэтому параллельная оплата не даст ложного расхождения.
func (b *BalanceService) Reconcile(ctx context.Context, userID int64) (*domain.Reconciliation, error) {
	var result *domain.Reconciliation
	txErr := b.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}
		trRepo, trRepoErr := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if trRepoErr != nil {
			return trRepoErr //nolint:wrapcheck
		}

		user, lockErr := userRepo.LockByID(c, userID)
		if lockErr != nil {
			return lockErr //nolint:wrapcheck
		}
		sum, sumErr := trRepo.GetUserBalance(c, userID)
		if sumErr != nil {
			return sumErr //nolint:wrapcheck
		}
		result = &domain.Reconciliation{
			UserID:       userID,
			LedgerAmount: sum.Balance(),
			CachedAmount: user.Balance,
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("reconcile user %d: %w", userID, txErr)
	}
	return result, nil
}

// ReconcileAll сверяет балансы всех юзеров. Возвращает только расхождения.
func (b *BalanceService) ReconcileAll(ctx context.Context) ([]domain.Reconciliation, error) {
	balances, err := b.userRepo.ListBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile all: %w", err)
	}

	var mismatches []domain.Reconciliation
	for _, balance := range balances {
		r, rErr := b.Reconcile(ctx, balance.UserID)
		if rErr != nil {
			// юзер мог быть удален между запросами
			if errors.Is(rErr, domain.ErrRecordNotFound) {
				continue
			}
			return nil, rErr
		}
		if !r.Consistent() {
			mismatches = append(mismatches, *r)
		}
	}
	return mismatches, nil
}

// CourseAccess вычисляет текущий доступ юзера к курсу по его платежам.
func (b *BalanceService) CourseAccess(ctx context.Context, userID int64, courseCode string) (*domain.Access, error) {
	course, courseErr := b.courseRepo.FindByCode(ctx, courseCode)
	if courseErr != nil {
		if errors.Is(courseErr, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("course access `%s`: %w", courseCode, domain.ErrCourseNotFound)
		}
		return nil, fmt.Errorf("course access `%s`: %w", courseCode, courseErr)
	}

	var payments []domain.Transaction
	if course.Type != domain.CourseTypeFree {
		var err error
		payments, err = b.trRepo.GetByUser(ctx, userID, domain.TransactionFilter{
			Type:       domain.TransactionTypePayment,
			CourseCode: courseCode,
		})
		if err != nil {
			return nil, fmt.Errorf("course access `%s`: %w", courseCode, err)
		}
	}

	access := domain.ResolveAccess(course, payments, b.now())
	return &access, nil
}
