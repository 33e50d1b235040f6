package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/service"
)

// UserServicer интерфейс исключительно для моков.
type UserServicer interface {
	Register(ctx context.Context, args service.RegisterUserArgs) (*domain.User, string, error)
	Login(ctx context.Context, args service.LoginUserArgs) (*domain.User, string, error)
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
}

type PaymentServicer interface {
	PayForCourse(ctx context.Context, userID int64, courseCode string) (*domain.PaymentResult, error)
}

type BalanceServicer interface {
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error)
	CourseAccess(ctx context.Context, userID int64, courseCode string) (*domain.Access, error)
}

type CourseServicer interface {
	List(ctx context.Context) ([]domain.Course, error)
	GetByCode(ctx context.Context, code string) (*domain.Course, error)
}
