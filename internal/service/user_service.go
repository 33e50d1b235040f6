package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/internal/service/tokens"
	"github.com/fsdevblog/study-billing/pkg/uow"
	"github.com/shopspring/decimal"
)

const JWTTokenExpire = 1 * time.Hour

type UserService struct {
	uow            uow.UOW
	userRepo       UserRepository
	jwtTokenSecret []byte
	psswd          PasswordHasher
	initialBalance decimal.Decimal
	now            func() time.Time
}

func NewUserService(
	u uow.UOW,
	jwtTokenSecret []byte,
	psswd PasswordHasher,
	initialBalance decimal.Decimal,
) (*UserService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	return &UserService{
		uow:            u,
		userRepo:       userRepo,
		jwtTokenSecret: jwtTokenSecret,
		psswd:          psswd,
		initialBalance: initialBalance,
		now:            time.Now,
	}, nil
}

type RegisterUserArgs struct {
	Email    string
	Password string
}

// Register создает юзера в базе данных и зачисляет ему стартовый баланс в той же транзакции.
// После успешного создания генерирует jwt token. Возвращает 3 значения: созданный юзер, токен и ошибку.
func (s *UserService) Register(ctx context.Context, args RegisterUserArgs) (*domain.User, string, error) {
	password, hashErr := s.psswd.HashPassword(args.Password)
	if hashErr != nil {
		return nil, "", fmt.Errorf("registering user: %s", hashErr.Error())
	}

	var user *domain.User
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, userRepoErr := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if userRepoErr != nil {
			return userRepoErr //nolint:wrapcheck
		}

		var userErr error
		user, userErr = userRepo.CreateUser(c, repoargs.CreateUser{
			Email:    args.Email,
			Password: password,
			Roles:    []string{domain.RoleUser},
		})
		if userErr != nil {
			return userErr //nolint:wrapcheck
		}

		if !s.initialBalance.IsPositive() {
			return nil
		}
		if _, depErr := depositInTx(c, tx, user.ID, s.initialBalance, s.now()); depErr != nil {
			return depErr
		}
		user.Balance = user.Balance.Add(s.initialBalance)
		return nil
	})
	if txErr != nil {
		return nil, "", fmt.Errorf("registering user: %w", txErr)
	}

	token, tokenErr := tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("registering user: %w", tokenErr)
	}
	return user, token, nil
}

type LoginUserArgs struct {
	Email    string
	Password string
}

// Login ищет юзера по email и сверяет пароль. Возвращает domain.ErrRecordNotFound, если юзера нет, и
// domain.ErrPasswordMissMatch при неверном пароле.
func (s *UserService) Login(ctx context.Context, args LoginUserArgs) (*domain.User, string, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, args.Email)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("login: %w", domain.ErrRecordNotFound)
		}
		return nil, "", fmt.Errorf("login: %w", err)
	}

	if !s.psswd.ComparePassword(args.Password, user.EncryptedPassword) {
		return nil, "", fmt.Errorf("login: %w", domain.ErrPasswordMissMatch)
	}

	token, tokenErr := tokens.GenerateUserJWT(user.ID, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("login: %w", tokenErr)
	}
	return user, token, nil
}

func (s *UserService) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	return user, nil
}
