package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	for _, key := range []string{
		"RUN_ADDRESS", "DATABASE_URI", "MIGRATIONS_DIR", "JWT_SECRET", "INITIAL_BALANCE", "RENTAL_DURATION",
		"EXPIRY_WINDOW", "REPORT_PERIOD_START", "REPORT_PERIOD_END", "REPORT_EMAIL", "MAIL_API_ADDRESS",
		"MAIL_FROM", "REDIS_ADDRESS", "NOTIFY_WORKERS",
	} {
		// Setenv восстановит исходное значение после теста
		s.T().Setenv(key, "")
		s.Require().NoError(os.Unsetenv(key))
	}
}

func (s *ConfigTestSuite) TestLoad_Defaults() {
	conf, err := Load([]string{"-d", "postgres://localhost/billing", "-j", "secret", "report"})
	s.Require().NoError(err)

	s.Equal("localhost:8080", conf.RunAddress)
	s.Equal("internal/db/migrations", conf.MigrationsDir)
	s.Equal(defaultRentalDuration, conf.RentalDuration)
	s.Equal(defaultExpiryWindow, conf.ExpiryWindow)
	s.Equal(defaultNotifyWorkers, conf.NotifyWorkers)
	s.True(conf.InitialBalance.IsZero())
	s.Empty(conf.RedisAddress)
	s.Equal("report", conf.Command)
}

func (s *ConfigTestSuite) TestLoad_EnvWins() {
	s.T().Setenv("DATABASE_URI", "postgres://env/billing")
	s.T().Setenv("JWT_SECRET", "env-secret")
	s.T().Setenv("INITIAL_BALANCE", "1000.50")
	s.T().Setenv("RENTAL_DURATION", "72h")
	s.T().Setenv("NOTIFY_WORKERS", "12")

	conf, err := Load([]string{"-d", "postgres://flag/billing", "-j", "flag-secret", "-rent", "1h"})
	s.Require().NoError(err)

	s.Equal("postgres://env/billing", conf.DatabaseDSN)
	s.Equal("env-secret", conf.JWTSecret)
	s.True(decimal.RequireFromString("1000.50").Equal(conf.InitialBalance))
	s.Equal(72*time.Hour, conf.RentalDuration)
	s.Equal(uint(12), conf.NotifyWorkers)
}

func (s *ConfigTestSuite) TestLoad_Invalid() {
	_, err := Load([]string{"-j", "secret"})
	s.Error(err, "database DSN is required")

	_, err = Load([]string{"-d", "postgres://localhost/billing"})
	s.Error(err, "jwt secret is required")

	_, err = Load([]string{"-d", "postgres://localhost/billing", "-j", "secret", "-b", "-5"})
	s.Error(err, "negative initial balance")

	s.T().Setenv("INITIAL_BALANCE", "not-a-number")
	_, err = Load([]string{"-d", "postgres://localhost/billing", "-j", "secret"})
	s.Error(err)
}

func (s *ConfigTestSuite) TestReportPeriod() {
	now := time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC)

	s.Run("previous month by default", func() {
		start, end, err := (&Config{}).ReportPeriod(now)
		s.Require().NoError(err)
		s.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), start)
		s.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), end)
	})

	s.Run("date end is inclusive", func() {
		conf := &Config{ReportPeriodStart: "2025-04-01", ReportPeriodEnd: "2025-04-30"}
		start, end, err := conf.ReportPeriod(now)
		s.Require().NoError(err)
		s.Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), start)
		s.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), end)
	})

	s.Run("rfc3339", func() {
		conf := &Config{ReportPeriodStart: "2025-04-01T00:00:00Z", ReportPeriodEnd: "2025-04-15T12:00:00Z"}
		_, end, err := conf.ReportPeriod(now)
		s.Require().NoError(err)
		s.True(end.Equal(time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)))
	})

	s.Run("invalid", func() {
		_, _, err := (&Config{ReportPeriodStart: "01.04.2025"}).ReportPeriod(now)
		s.Error(err)

		_, _, err = (&Config{ReportPeriodStart: "2025-05-01", ReportPeriodEnd: "2025-04-01"}).ReportPeriod(now)
		s.Error(err)
	})
}
