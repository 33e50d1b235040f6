package service

import (
	"context"
	"testing"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/internal/service/mocks"
	"github.com/fsdevblog/study-billing/pkg/uow"
	uowmocks "github.com/fsdevblog/study-billing/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BalanceServiceTestSuite struct {
	suite.Suite
	mockUOW        *uowmocks.MockUOW
	mockUserRepo   *mocks.MockUserRepository
	mockTrRepo     *mocks.MockTransactionRepository
	mockCourseRepo *mocks.MockCourseRepository
	balanceService *BalanceService
	now            time.Time
}

func TestBalanceServiceSuite(t *testing.T) {
	suite.Run(t, new(BalanceServiceTestSuite))
}

func (s *BalanceServiceTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(mockCtrl)
	s.mockTrRepo = mocks.NewMockTransactionRepository(mockCtrl)
	s.mockCourseRepo = mocks.NewMockCourseRepository(mockCtrl)
	s.now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.TransactionRepoName)).
		Return(s.mockTrRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.CourseRepoName)).
		Return(s.mockCourseRepo, nil).AnyTimes()

	balanceService, err := NewBalanceService(s.mockUOW)
	s.Require().NoError(err)
	balanceService.now = func() time.Time { return s.now }
	s.balanceService = balanceService
}

func (s *BalanceServiceTestSuite) TestGetBalance() {
	s.mockTrRepo.EXPECT().GetUserBalance(gomock.Any(), int64(1)).Return(&repoargs.BalanceAggregation{
		DepositAmount: decimal.RequireFromString("1000.50"),
		PaymentAmount: decimal.RequireFromString("250.25"),
	}, nil)
	s.mockTrRepo.EXPECT().GetUserBalance(gomock.Any(), int64(2)).Return(&repoargs.BalanceAggregation{
		DepositAmount: decimal.Zero,
		PaymentAmount: decimal.Zero,
	}, nil)

	balance, err := s.balanceService.GetBalance(s.T().Context(), 1)
	s.Require().NoError(err)
	s.Equal("750.25", balance.StringFixed(2))

	balance, err = s.balanceService.GetBalance(s.T().Context(), 2)
	s.Require().NoError(err)
	s.True(balance.IsZero())
}

func (s *BalanceServiceTestSuite) TestListTransactions() {
	s.Run("skip expired gets current time", func() {
		s.mockTrRepo.EXPECT().
			GetByUser(gomock.Any(), int64(1), domain.TransactionFilter{SkipExpired: true, Now: s.now}).
			Return([]domain.Transaction{{ID: 2}, {ID: 1}}, nil)

		transactions, err := s.balanceService.ListTransactions(s.T().Context(), 1, domain.TransactionFilter{
			SkipExpired: true,
		})
		s.Require().NoError(err)
		s.Len(transactions, 2)
	})

	s.Run("invalid type", func() {
		_, err := s.balanceService.ListTransactions(s.T().Context(), 1, domain.TransactionFilter{
			Type: "refund",
		})
		s.Require().ErrorIs(err, domain.ErrValidation)
	})
}

func (s *BalanceServiceTestSuite) TestCourseAccess() {
	price := decimal.NewFromInt(50)
	rent := &domain.Course{ID: 4, Code: "qa-engineer", Type: domain.CourseTypeRent, Price: &price}
	courseID := rent.ID
	expiresAt := s.now.Add(2 * time.Hour)

	s.mockCourseRepo.EXPECT().FindByCode(gomock.Any(), rent.Code).Return(rent, nil)
	s.mockTrRepo.EXPECT().
		GetByUser(gomock.Any(), int64(1), domain.TransactionFilter{
			Type:       domain.TransactionTypePayment,
			CourseCode: rent.Code,
		}).
		Return([]domain.Transaction{{
			ID:        5,
			CourseID:  &courseID,
			Type:      domain.TransactionTypePayment,
			Amount:    price,
			ExpiresAt: &expiresAt,
		}}, nil)

	access, err := s.balanceService.CourseAccess(s.T().Context(), 1, rent.Code)
	s.Require().NoError(err)
	s.Equal(domain.AccessTimed, access.State)
	s.True(access.HasAccess())

	s.mockCourseRepo.EXPECT().FindByCode(gomock.Any(), "missing").Return(nil, domain.ErrRecordNotFound)
	_, err = s.balanceService.CourseAccess(s.T().Context(), 1, "missing")
	s.Require().ErrorIs(err, domain.ErrCourseNotFound)
}

func (s *BalanceServiceTestSuite) expectTransactions() {
	mockTX := uowmocks.NewMockTX(gomock.NewController(s.T()))
	mockTX.EXPECT().Get(uow.RepositoryName(repoargs.UserRepoName)).Return(s.mockUserRepo, nil).AnyTimes()
	mockTX.EXPECT().Get(uow.RepositoryName(repoargs.TransactionRepoName)).Return(s.mockTrRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, mockTX)
		}).AnyTimes()
}

func (s *BalanceServiceTestSuite) TestReconcile() {
	s.expectTransactions()

	gomock.InOrder(
		s.mockUserRepo.EXPECT().LockByID(gomock.Any(), int64(1)).
			Return(&domain.User{ID: 1, Balance: decimal.NewFromInt(40)}, nil),
		s.mockTrRepo.EXPECT().GetUserBalance(gomock.Any(), int64(1)).
			Return(&repoargs.BalanceAggregation{
				DepositAmount: decimal.NewFromInt(100),
				PaymentAmount: decimal.NewFromInt(60),
			}, nil),
	)

	r, err := s.balanceService.Reconcile(s.T().Context(), 1)
	s.Require().NoError(err)
	s.True(r.Consistent())
	s.Equal("40", r.LedgerAmount.String())

	s.mockUserRepo.EXPECT().LockByID(gomock.Any(), int64(2)).Return(nil, domain.ErrRecordNotFound)
	_, err = s.balanceService.Reconcile(s.T().Context(), 2)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *BalanceServiceTestSuite) TestReconcileAll() {
	s.expectTransactions()

	s.mockUserRepo.EXPECT().ListBalances(gomock.Any()).Return([]repoargs.UserBalance{
		{UserID: 1, Balance: decimal.NewFromInt(40)},
		{UserID: 2, Balance: decimal.NewFromInt(10)},
		{UserID: 3, Balance: decimal.Zero},
	}, nil)

	s.mockUserRepo.EXPECT().LockByID(gomock.Any(), int64(1)).
		Return(&domain.User{ID: 1, Balance: decimal.NewFromInt(40)}, nil)
	s.mockTrRepo.EXPECT().GetUserBalance(gomock.Any(), int64(1)).
		Return(&repoargs.BalanceAggregation{DepositAmount: decimal.NewFromInt(40), PaymentAmount: decimal.Zero}, nil)

	// кэш разошелся с леджером
	s.mockUserRepo.EXPECT().LockByID(gomock.Any(), int64(2)).
		Return(&domain.User{ID: 2, Balance: decimal.NewFromInt(10)}, nil)
	s.mockTrRepo.EXPECT().GetUserBalance(gomock.Any(), int64(2)).
		Return(&repoargs.BalanceAggregation{DepositAmount: decimal.NewFromInt(20), PaymentAmount: decimal.Zero}, nil)

	// юзер удален между запросами
	s.mockUserRepo.EXPECT().LockByID(gomock.Any(), int64(3)).Return(nil, domain.ErrRecordNotFound)

	mismatches, err := s.balanceService.ReconcileAll(s.T().Context())
	s.Require().NoError(err)
	s.Require().Len(mismatches, 1)
	s.Equal(int64(2), mismatches[0].UserID)
	s.Equal("20", mismatches[0].LedgerAmount.String())
	s.Equal("10", mismatches[0].CachedAmount.String())
}
