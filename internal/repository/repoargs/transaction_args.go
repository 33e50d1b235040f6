package repoargs

import (
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionCreate struct {
	UserID    int64
	CourseID  *int64
	Type      domain.TransactionType
	Amount    decimal.Decimal
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// BalanceAggregation суммы по типам транзакций юзера.
type BalanceAggregation struct {
	DepositAmount decimal.Decimal
	PaymentAmount decimal.Decimal
}

// Balance баланс по леджеру: пополнения минус списания.
func (b BalanceAggregation) Balance() decimal.Decimal {
	return b.DepositAmount.Sub(b.PaymentAmount)
}

// ExpiringRental аренда с данными юзера и курса для уведомлений.
type ExpiringRental struct {
	Email       string
	Transaction domain.Transaction
}
