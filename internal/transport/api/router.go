package api

import (
	"time"

	"github.com/fsdevblog/study-billing/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup        = "/api/v1"
	RegisterRoute     = "/register"
	LoginRoute        = "/auth"
	CurrentUserRoute  = "/users/current"
	CoursesRoute      = "/courses"
	CourseRoute       = "/courses/:code"
	CoursePayRoute    = "/courses/:code/pay"
	CourseAccessRoute = "/courses/:code/access"
	TransactionsRoute = "/transactions"
)

type RouterArgs struct {
	Logger         *logrus.Logger
	UserService    UserServicer
	PaymentService PaymentServicer
	BalanceService BalanceServicer
	CourseService  CourseServicer
	JWTSecretKey   []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	authHandler := NewAuthHandler(args.UserService)
	userHandler := NewUserHandler(args.UserService, args.BalanceService)
	courseHandler := NewCourseHandler(args.CourseService, args.PaymentService, args.BalanceService)
	transactionHandler := NewTransactionHandler(args.BalanceService)

	api := r.Group(RouteGroup)

	api.POST(RegisterRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Register)
	api.POST(LoginRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Login)

	// каталог курсов доступен без авторизации.
	api.GET(CoursesRoute, courseHandler.Index)
	api.GET(CourseRoute, courseHandler.Show)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.GET(CurrentUserRoute, userHandler.Current)
	api.POST(CoursePayRoute, courseHandler.Pay)
	api.GET(CourseAccessRoute, courseHandler.Access)
	api.GET(TransactionsRoute, transactionHandler.Index)
	return r, nil
}
