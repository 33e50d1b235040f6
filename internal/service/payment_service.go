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

const DefaultRentalDuration = 7 * 24 * time.Hour

// PaymentService единственный источник записей в леджере: пополнения и оплата курсов.
type PaymentService struct {
	uow            uow.UOW
	courseRepo     CourseRepository
	rentalDuration time.Duration
	now            func() time.Time
}

func NewPaymentService(u uow.UOW, rentalDuration time.Duration) (*PaymentService, error) {
	courseRepo, courseRepoErr := uow.GetRepositoryAs[CourseRepository](
		u,
		uow.RepositoryName(repoargs.CourseRepoName),
	)
	if courseRepoErr != nil {
		return nil, courseRepoErr //nolint:wrapcheck
	}
	if rentalDuration <= 0 {
		rentalDuration = DefaultRentalDuration
	}
	return &PaymentService{
		uow:            u,
		courseRepo:     courseRepo,
		rentalDuration: rentalDuration,
		now:            time.Now,
	}, nil
}

// Deposit пополняет баланс юзера. Запись в леджере и изменение баланса выполняются в одной транзакции
// под блокировкой юзера.
func (p *PaymentService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("deposit %s: %w", amount.String(), domain.ErrValidation)
	}

	var transaction *domain.Transaction
	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		var err error
		transaction, err = depositInTx(c, tx, userID, amount, p.now())
		return err
	})
	if txErr != nil {
		return nil, fmt.Errorf("deposit for user %d: %w", userID, txErr)
	}
	return transaction, nil
}

// PayForCourse оплачивает курс с баланса юзера.
//
// Бесплатный курс не создает записей в леджере. Для платного курса внутри одной транзакции: блокировка строки
// юзера, подсчет баланса по леджеру, проверка достаточности средств, запись платежа и списание с баланса.
// Конкурентные оплаты одного юзера выполняются строго по очереди. При нехватке средств возвращает
// domain.ErrNotEnoughBalance и ничего не меняет.
func (p *PaymentService) PayForCourse(
	ctx context.Context,
	userID int64,
	courseCode string,
) (*domain.PaymentResult, error) {
	course, courseErr := p.courseRepo.FindByCode(ctx, courseCode)
	if courseErr != nil {
		if errors.Is(courseErr, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("pay for course `%s`: %w", courseCode, domain.ErrCourseNotFound)
		}
		return nil, fmt.Errorf("pay for course `%s`: %w", courseCode, courseErr)
	}

	if course.Type == domain.CourseTypeFree {
		return &domain.PaymentResult{Success: true, CourseType: course.Type}, nil
	}

	price := course.PriceOrZero()
	var expiresAt *time.Time

	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}
		trRepo, trRepoErr := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if trRepoErr != nil {
			return trRepoErr //nolint:wrapcheck
		}

		if _, lockErr := userRepo.LockByID(c, userID); lockErr != nil {
			return lockErr //nolint:wrapcheck
		}

		sum, sumErr := trRepo.GetUserBalance(c, userID)
		if sumErr != nil {
			return sumErr //nolint:wrapcheck
		}
		if price.GreaterThan(sum.Balance()) {
			return domain.ErrNotEnoughBalance
		}

		now := p.now()
		if course.Type == domain.CourseTypeRent {
			exp := now.Add(p.rentalDuration)
			expiresAt = &exp
		}

		courseID := course.ID
		if _, createErr := trRepo.Create(c, repoargs.TransactionCreate{
			UserID:    userID,
			CourseID:  &courseID,
			Type:      domain.TransactionTypePayment,
			Amount:    price,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		}); createErr != nil {
			return createErr //nolint:wrapcheck
		}

		return userRepo.AddBalance(c, userID, price.Neg()) //nolint:wrapcheck
	})
	if txErr != nil {
		return nil, fmt.Errorf("pay for course `%s`: %w", courseCode, txErr)
	}

	return &domain.PaymentResult{
		Success:    true,
		CourseType: course.Type,
		ExpiresAt:  expiresAt,
	}, nil
}

// depositInTx пишет пополнение в рамках уже открытой транзакции tx.
func depositInTx(
	ctx context.Context,
	tx uow.TX,
	userID int64,
	amount decimal.Decimal,
	now time.Time,
) (*domain.Transaction, error) {
	userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	trRepo, trRepoErr := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
	if trRepoErr != nil {
		return nil, trRepoErr //nolint:wrapcheck
	}

	if _, lockErr := userRepo.LockByID(ctx, userID); lockErr != nil {
		return nil, lockErr //nolint:wrapcheck
	}

	transaction, createErr := trRepo.Create(ctx, repoargs.TransactionCreate{
		UserID:    userID,
		Type:      domain.TransactionTypeDeposit,
		Amount:    amount,
		CreatedAt: now,
	})
	if createErr != nil {
		return nil, createErr //nolint:wrapcheck
	}

	if balanceErr := userRepo.AddBalance(ctx, userID, amount); balanceErr != nil {
		return nil, balanceErr //nolint:wrapcheck
	}
	return transaction, nil
}
