package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentConcurrencyTestSuite struct {
	suite.Suite
	ledger         *memLedger
	paymentService *PaymentService
	balanceService *BalanceService
}

func TestPaymentConcurrencySuite(t *testing.T) {
	suite.Run(t, new(PaymentConcurrencyTestSuite))
}

func (s *PaymentConcurrencyTestSuite) SetupTest() {
	s.ledger = newMemLedger()
	u := &memUOW{l: s.ledger}

	paymentService, err := NewPaymentService(u, 0)
	s.Require().NoError(err)
	s.paymentService = paymentService

	balanceService, err := NewBalanceService(u)
	s.Require().NoError(err)
	s.balanceService = balanceService
}

func (s *PaymentConcurrencyTestSuite) addCourse(courseType domain.CourseType, price int64) domain.Course {
	c := domain.Course{
		ID:    gofakeit.Int64(),
		Code:  gofakeit.UUID(),
		Title: gofakeit.JobTitle(),
		Type:  courseType,
	}
	if courseType != domain.CourseTypeFree {
		p := decimal.NewFromInt(price)
		c.Price = &p
	}
	s.ledger.addCourse(c)
	return c
}

// Две параллельные покупки по 60 при балансе 100: ровно одна проходит.
func (s *PaymentConcurrencyTestSuite) TestConcurrentPurchasesSerialize() {
	const userID = int64(1)
	s.ledger.addUser(userID, decimal.NewFromInt(100))
	first := s.addCourse(domain.CourseTypeFull, 60)
	second := s.addCourse(domain.CourseTypeRent, 60)

	var (
		wg      sync.WaitGroup
		errs    = make([]error, 2)
		courses = []string{first.Code, second.Code}
	)
	for i := range courses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.paymentService.PayForCourse(s.T().Context(), userID, courses[i])
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrNotEnoughBalance):
			rejected++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, rejected)

	s.True(decimal.NewFromInt(40).Equal(s.ledger.cachedBalance(userID)))
	balance, err := s.balanceService.GetBalance(s.T().Context(), userID)
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(40).Equal(balance))
	s.Len(s.ledger.userTransactions(userID), 2)
}

// После любого набора параллельных операций баланс по леджеру совпадает с денормализованным
// и никогда не уходит в минус.
func (s *PaymentConcurrencyTestSuite) TestLedgerMatchesCachedBalance() {
	const userID = int64(7)
	s.ledger.addUser(userID, decimal.NewFromInt(100))
	courses := []domain.Course{
		s.addCourse(domain.CourseTypeFull, 35),
		s.addCourse(domain.CourseTypeRent, 20),
		s.addCourse(domain.CourseTypeFree, 0),
	}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				_, err := s.paymentService.Deposit(s.T().Context(), userID, decimal.NewFromInt(15))
				s.NoError(err)
				return
			}
			_, err := s.paymentService.PayForCourse(s.T().Context(), userID, courses[i%len(courses)].Code)
			if err != nil {
				s.ErrorIs(err, domain.ErrNotEnoughBalance)
			}
		}(i)
	}
	wg.Wait()

	r, err := s.balanceService.Reconcile(s.T().Context(), userID)
	s.Require().NoError(err)
	s.True(r.Consistent(), "ledger %s, cached %s", r.LedgerAmount, r.CachedAmount)
	s.False(r.LedgerAmount.IsNegative())

	mismatches, err := s.balanceService.ReconcileAll(s.T().Context())
	s.Require().NoError(err)
	s.Empty(mismatches)
}

func (s *PaymentConcurrencyTestSuite) TestFreeCourseLeavesLedgerUntouched() {
	const userID = int64(3)
	s.ledger.addUser(userID, decimal.NewFromInt(10))
	free := s.addCourse(domain.CourseTypeFree, 0)

	res, err := s.paymentService.PayForCourse(s.T().Context(), userID, free.Code)
	s.Require().NoError(err)
	s.Equal(domain.CourseTypeFree, res.CourseType)
	s.Len(s.ledger.userTransactions(userID), 1)
	s.True(decimal.NewFromInt(10).Equal(s.ledger.cachedBalance(userID)))
}

func (s *PaymentConcurrencyTestSuite) TestInsufficientFundsChangesNothing() {
	const userID = int64(4)
	s.ledger.addUser(userID, decimal.NewFromInt(10))
	full := s.addCourse(domain.CourseTypeFull, 11)

	_, err := s.paymentService.PayForCourse(s.T().Context(), userID, full.Code)
	s.Require().ErrorIs(err, domain.ErrNotEnoughBalance)
	s.Len(s.ledger.userTransactions(userID), 1)
	s.True(decimal.NewFromInt(10).Equal(s.ledger.cachedBalance(userID)))
}
