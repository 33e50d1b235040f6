package service

import (
	"fmt"
	"time"

	"github.com/fsdevblog/study-billing/internal/service/psswd"
	"github.com/fsdevblog/study-billing/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type AppServices struct {
	UserService    *UserService
	PaymentService *PaymentService
	BalanceService *BalanceService
	CourseService  *CourseService
	RentalService  *RentalService
	ReportService  *ReportService
}

type FactoryArgs struct {
	JWTSecret      []byte
	InitialBalance decimal.Decimal
	RentalDuration time.Duration
	ExpiryWindow   time.Duration
	Logger         *logrus.Logger
}

func Factory(unitOfWork uow.UOW, args FactoryArgs) (*AppServices, error) {
	userService, userServiceErr := NewUserService(
		unitOfWork,
		args.JWTSecret,
		psswd.New(bcrypt.DefaultCost),
		args.InitialBalance,
	)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	paymentService, paymentServiceErr := NewPaymentService(unitOfWork, args.RentalDuration)
	if paymentServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", paymentServiceErr.Error())
	}

	balanceService, balanceServiceErr := NewBalanceService(unitOfWork)
	if balanceServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", balanceServiceErr.Error())
	}

	courseService, courseServiceErr := NewCourseService(unitOfWork)
	if courseServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", courseServiceErr.Error())
	}

	rentalService, rentalServiceErr := NewRentalService(unitOfWork, args.ExpiryWindow)
	if rentalServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", rentalServiceErr.Error())
	}

	reportService, reportServiceErr := NewReportService(unitOfWork, args.Logger)
	if reportServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", reportServiceErr.Error())
	}

	return &AppServices{
		UserService:    userService,
		PaymentService: paymentService,
		BalanceService: balanceService,
		CourseService:  courseService,
		RentalService:  rentalService,
		ReportService:  reportService,
	}, nil
}
