package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit TransactionType = "deposit"
	TransactionTypePayment TransactionType = "payment"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypePayment
}

type CourseType string

const (
	CourseTypeFree CourseType = "free"
	CourseTypeFull CourseType = "full"
	CourseTypeRent CourseType = "rent"
)

// ReportLabel возвращает подпись типа курса для финансового отчета.
func (t CourseType) ReportLabel() string {
	switch t {
	case CourseTypeFull:
		return "Purchase"
	case CourseTypeRent:
		return "Rental"
	case CourseTypeFree:
		return "Free"
	default:
		return "Unknown"
	}
}

const RoleUser = "ROLE_USER"

// TransactionFilter фильтры выборки истории транзакций юзера. Пустые поля не участвуют в фильтрации.
type TransactionFilter struct {
	Type        TransactionType
	CourseCode  string
	SkipExpired bool
	// Now момент времени, относительно которого определяется истечение аренды.
	Now time.Time
}

// PaymentResult результат оплаты курса.
type PaymentResult struct {
	Success    bool
	CourseType CourseType
	// ExpiresAt заполняется только для аренды.
	ExpiresAt *time.Time
}

// UserRentals аренды одного юзера, срок которых скоро истекает.
type UserRentals struct {
	UserID       int64
	Email        string
	Transactions []Transaction
}

type ReportRow struct {
	CourseID int64
	Code     string
	Title    string
	Label    string
	Count    int
	Amount   decimal.Decimal
}

// Report сводка оплат за период [Start, End).
type Report struct {
	Start time.Time
	End   time.Time
	Rows  []ReportRow
	Total decimal.Decimal
}

// Reconciliation сравнение баланса, пересчитанного по леджеру, с денормализованным значением.
type Reconciliation struct {
	UserID       int64
	LedgerAmount decimal.Decimal
	CachedAmount decimal.Decimal
}

func (r Reconciliation) Consistent() bool {
	return r.LedgerAmount.Equal(r.CachedAmount)
}
