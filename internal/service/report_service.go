package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ReportService struct {
	trRepo TransactionRepository
	l      *logrus.Entry
}

func NewReportService(u uow.UOW, l *logrus.Logger) (*ReportService, error) {
	trRepo, trRepoErr := uow.GetRepositoryAs[TransactionRepository](
		u,
		uow.RepositoryName(repoargs.TransactionRepoName),
	)
	if trRepoErr != nil {
		return nil, trRepoErr //nolint:wrapcheck
	}
	return &ReportService{
		trRepo: trRepo,
		l: l.WithFields(logrus.Fields{
			"component": "service",
			"module":    "report",
		}),
	}, nil
}

// GenerateReport сводка оплат курсов за период [start, end), сгруппированная по курсу.
// Платежи за удаленные курсы в отчет не попадают.
func (r *ReportService) GenerateReport(ctx context.Context, start, end time.Time) (*domain.Report, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("report period %s - %s: %w", start, end, domain.ErrValidation)
	}

	payments, err := r.trRepo.GetForPeriod(ctx, start, end, domain.TransactionTypePayment)
	if err != nil {
		return nil, fmt.Errorf("report period %s - %s: %w", start, end, err)
	}

	report := domain.Report{Start: start, End: end, Total: decimal.Zero}
	rows := make(map[int64]*domain.ReportRow)

	for _, payment := range payments {
		if payment.Course == nil {
			r.l.WithField("transactionID", payment.ID).Debug("course of payment was deleted, skipping")
			continue
		}
		row, ok := rows[payment.Course.ID]
		if !ok {
			row = &domain.ReportRow{
				CourseID: payment.Course.ID,
				Code:     payment.Course.Code,
				Title:    payment.Course.Title,
				Label:    payment.Course.Type.ReportLabel(),
				Amount:   decimal.Zero,
			}
			rows[payment.Course.ID] = row
		}
		row.Count++
		row.Amount = row.Amount.Add(payment.Amount)
		report.Total = report.Total.Add(payment.Amount)
	}

	report.Rows = make([]domain.ReportRow, 0, len(rows))
	for _, row := range rows {
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].Code == report.Rows[j].Code {
			return report.Rows[i].CourseID < report.Rows[j].CourseID
		}
		return report.Rows[i].Code < report.Rows[j].Code
	})
	return &report, nil
}
