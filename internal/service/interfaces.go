package service

import (
	"context"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePassword(password string, hashedPassword string) bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	LockByID(ctx context.Context, userID int64) (*domain.User, error)
	AddBalance(ctx context.Context, userID int64, delta decimal.Decimal) error
	ListBalances(ctx context.Context) ([]repoargs.UserBalance, error)
}

type CourseRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Course, error)
	List(ctx context.Context) ([]domain.Course, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction repoargs.TransactionCreate) (*domain.Transaction, error)
	GetUserBalance(ctx context.Context, userID int64) (*repoargs.BalanceAggregation, error)
	GetByUser(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error)
	GetForPeriod(
		ctx context.Context,
		start, end time.Time,
		tType domain.TransactionType,
	) ([]domain.Transaction, error)
	GetExpiringBetween(ctx context.Context, from, to time.Time) ([]repoargs.ExpiringRental, error)
}
