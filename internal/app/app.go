package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/study-billing/internal/config"
	"github.com/fsdevblog/study-billing/internal/repository/pgrepo"
	"github.com/fsdevblog/study-billing/internal/service"
	"github.com/fsdevblog/study-billing/internal/transport/api"
	"github.com/fsdevblog/study-billing/internal/transport/mailer"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

// Run запускает HTTP сервер и блокируется до SIGINT/SIGTERM.
func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.WithFields(logrus.Fields{
		"address":        a.Config.RunAddress,
		"initialBalance": a.Config.InitialBalance,
		"rentalDuration": a.Config.RentalDuration,
	}).Info("Starting billing server")

	conn, services, err := a.bootstrap(notifyCtx)
	if err != nil {
		return fmt.Errorf("app run: %s", err.Error())
	}
	defer conn.Close()

	router, routerErr := api.New(api.RouterArgs{
		Logger:         a.Logger,
		UserService:    services.UserService,
		PaymentService: services.PaymentService,
		BalanceService: services.BalanceService,
		CourseService:  services.CourseService,
		JWTSecretKey:   []byte(a.Config.JWTSecret),
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	srv := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd
	}

	errChan := make(chan error, 1)

	go func() {
		if runErr := srv.ListenAndServe(); runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			errChan <- runErr
		}
	}()

	select {
	case <-notifyCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			a.Logger.WithError(shutdownErr).Error("server shutdown")
		}
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

// bootstrap подключается к БД, применяет миграции и собирает сервисный слой.
func (a *App) bootstrap(ctx context.Context) (*pgxpool.Pool, *service.AppServices, error) {
	conn, connErr := pgrepo.Connect(ctx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return nil, nil, connErr //nolint:wrapcheck
	}

	unitOfWork, uowErr := pgrepo.NewUnitOfWork(conn)
	if uowErr != nil {
		conn.Close()
		return nil, nil, uowErr //nolint:wrapcheck
	}

	services, sErr := service.Factory(unitOfWork, service.FactoryArgs{
		JWTSecret:      []byte(a.Config.JWTSecret),
		InitialBalance: a.Config.InitialBalance,
		RentalDuration: a.Config.RentalDuration,
		ExpiryWindow:   a.Config.ExpiryWindow,
		Logger:         a.Logger,
	})
	if sErr != nil {
		conn.Close()
		return nil, nil, sErr //nolint:wrapcheck
	}
	return conn, services, nil
}

type mailSender interface {
	Send(ctx context.Context, to, subject, text string) error
	SendHTML(ctx context.Context, to, subject, html string) error
}

func (a *App) newMailer() mailSender {
	if a.Config.MailAPIAddress == "" {
		a.Logger.Warn("mail API address is not set, messages will be written to log")
		return mailer.NewLogMailer(a.Logger)
	}
	return mailer.New(a.Config.MailAPIAddress, a.Config.MailFrom)
}
