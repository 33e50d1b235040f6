package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID                int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Email             string
	EncryptedPassword string
	Roles             []string
	// Balance денормализованный баланс. Источник истины - сумма по леджеру, поле обновляется строго в одной
	// транзакции с соответствующей записью в transactions.
	Balance decimal.Decimal
}

type Course struct {
	ID    int64
	Code  string
	Title string
	Type  CourseType
	// Price nil только для бесплатных курсов.
	Price *decimal.Decimal
}

// PriceOrZero возвращает цену курса или 0 для бесплатного.
func (c *Course) PriceOrZero() decimal.Decimal {
	if c.Price == nil {
		return decimal.Zero
	}
	return *c.Price
}

// Transaction запись леджера. После создания не изменяется и не удаляется.
type Transaction struct {
	ID        int64
	CreatedAt time.Time
	UserID    int64
	// CourseID nil для пополнений. Внешнего ключа на courses нет, курс мог быть удален.
	CourseID  *int64
	Type      TransactionType
	Amount    decimal.Decimal
	ExpiresAt *time.Time

	// Course заполняется только запросами с join'ом на courses. nil, если курса уже нет.
	Course *Course
}

// IsRental возвращает true для платежа за аренду.
func (t *Transaction) IsRental() bool {
	return t.Type == TransactionTypePayment && t.ExpiresAt != nil
}

// IsExpired проверяет, истекла ли аренда к моменту now. Для записей без срока всегда false.
func (t *Transaction) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}
