package repoargs

import "github.com/shopspring/decimal"

type CreateUser struct {
	Email    string
	Password string
	Roles    []string
}

// UserBalance денормализованный баланс юзера, используется при сверке с леджером.
type UserBalance struct {
	UserID  int64
	Balance decimal.Decimal
}
