package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultRentalDuration      = 7 * 24 * time.Hour
	defaultExpiryWindow        = 24 * time.Hour
	defaultNotifyWorkers  uint = 5
	dateLayout                 = "2006-01-02"
)

type Config struct {
	RunAddress     string          `env:"RUN_ADDRESS"`
	DatabaseDSN    string          `env:"DATABASE_URI"`
	MigrationsDir  string          `env:"MIGRATIONS_DIR"`
	JWTSecret      string          `env:"JWT_SECRET"`
	InitialBalance decimal.Decimal `env:"INITIAL_BALANCE"`
	RentalDuration time.Duration   `env:"RENTAL_DURATION"`
	ExpiryWindow   time.Duration   `env:"EXPIRY_WINDOW"`
	// Границы периода отчета в формате RFC3339 или YYYY-MM-DD. Дата без времени в конце периода включается целиком.
	ReportPeriodStart string `env:"REPORT_PERIOD_START"`
	ReportPeriodEnd   string `env:"REPORT_PERIOD_END"`
	ReportEmail       string `env:"REPORT_EMAIL"`
	// MailAPIAddress пустой адрес означает, что письма пишутся в лог.
	MailAPIAddress string `env:"MAIL_API_ADDRESS"`
	MailFrom       string `env:"MAIL_FROM"`
	// RedisAddress пустой адрес отключает дедупликацию уведомлений.
	RedisAddress  string `env:"REDIS_ADDRESS"`
	NotifyWorkers uint   `env:"NOTIFY_WORKERS"`

	// Command позиционный аргумент, используется billing-jobs.
	Command string
}

// LoadConfig читает .env (если есть), переменные окружения и флаги командной строки. Переменные окружения
// приоритетнее флагов.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %s", err.Error())
	}
	return Load(os.Args[1:])
}

func Load(args []string) (*Config, error) {
	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if flagsErr := loadFlags(&flagsConfig, args); flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %s", flagsErr.Error())
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

// ReportPeriod возвращает период отчета [start, end). Если границы не заданы, берется предыдущий
// календарный месяц относительно now.
//
//nolint:nonamedreturns
func (c *Config) ReportPeriod(now time.Time) (start, end time.Time, err error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start, end = monthStart.AddDate(0, -1, 0), monthStart

	if c.ReportPeriodStart != "" {
		if start, _, err = parseBound(c.ReportPeriodStart, now.Location()); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("report period start: %w", err)
		}
	}
	if c.ReportPeriodEnd != "" {
		var dateOnly bool
		if end, dateOnly, err = parseBound(c.ReportPeriodEnd, now.Location()); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("report period end: %w", err)
		}
		if dateOnly {
			end = end.AddDate(0, 0, 1)
		}
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("report period end %s is not after start %s", end, start)
	}
	return start, end, nil
}

func parseBound(value string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid time %q, expected RFC3339 or YYYY-MM-DD", value)
	}
	return t, false, nil
}

func (c *Config) validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("database DSN is not set")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT secret is not set")
	}
	if c.InitialBalance.IsNegative() {
		return errors.New("initial balance must not be negative")
	}
	if c.RentalDuration <= 0 || c.ExpiryWindow <= 0 {
		return errors.New("rental duration and expiry window must be positive")
	}
	return nil
}

func loadFlags(flagConfig *Config, args []string) error {
	fs := flag.NewFlagSet("billing", flag.ContinueOnError)

	fs.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	fs.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")
	fs.StringVar(&flagConfig.JWTSecret, "j", "", "JWT secret key")
	fs.TextVar(&flagConfig.InitialBalance, "b", decimal.Zero, "Initial balance of a new user")
	fs.DurationVar(&flagConfig.RentalDuration, "rent", defaultRentalDuration, "Course rental duration")
	fs.DurationVar(&flagConfig.ExpiryWindow, "window", defaultExpiryWindow, "Rental expiry notification window")
	fs.StringVar(&flagConfig.ReportPeriodStart, "from", "", "Report period start (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&flagConfig.ReportPeriodEnd, "to", "", "Report period end (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&flagConfig.ReportEmail, "report-email", "", "Report recipient")
	fs.StringVar(&flagConfig.MailAPIAddress, "mail", "", "Mail relay API address")
	fs.StringVar(&flagConfig.MailFrom, "mail-from", "billing@localhost", "Sender address")
	fs.StringVar(&flagConfig.RedisAddress, "redis", "", "Redis address in format host:port")
	fs.UintVar(&flagConfig.NotifyWorkers, "w", defaultNotifyWorkers, "Rental notifier workers")

	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck
	}
	flagConfig.Command = fs.Arg(0)
	return nil
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		RunAddress:        defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:       defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:     defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		JWTSecret:         defaultIfBlank(envConfig.JWTSecret, flagsConfig.JWTSecret),
		InitialBalance:    defaultIfZeroDecimal(envConfig.InitialBalance, flagsConfig.InitialBalance),
		RentalDuration:    defaultIfBlank(envConfig.RentalDuration, flagsConfig.RentalDuration),
		ExpiryWindow:      defaultIfBlank(envConfig.ExpiryWindow, flagsConfig.ExpiryWindow),
		ReportPeriodStart: defaultIfBlank(envConfig.ReportPeriodStart, flagsConfig.ReportPeriodStart),
		ReportPeriodEnd:   defaultIfBlank(envConfig.ReportPeriodEnd, flagsConfig.ReportPeriodEnd),
		ReportEmail:       defaultIfBlank(envConfig.ReportEmail, flagsConfig.ReportEmail),
		MailAPIAddress:    defaultIfBlank(envConfig.MailAPIAddress, flagsConfig.MailAPIAddress),
		MailFrom:          defaultIfBlank(envConfig.MailFrom, flagsConfig.MailFrom),
		RedisAddress:      defaultIfBlank(envConfig.RedisAddress, flagsConfig.RedisAddress),
		NotifyWorkers:     defaultIfBlank(envConfig.NotifyWorkers, flagsConfig.NotifyWorkers),
		Command:           flagsConfig.Command,
	}
}

func defaultIfBlank[T comparable](value T, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}

func defaultIfZeroDecimal(value, defaultValue decimal.Decimal) decimal.Decimal {
	if value.IsZero() {
		return defaultValue
	}
	return value
}
