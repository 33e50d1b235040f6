// Package report рендерит сводку оплат курсов в html и отправляет ее на почту.
package report

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/shopspring/decimal"
)

const periodLayout = "02.01.2006"

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

var ErrNoRecipient = errors.New("report recipient is not set")

type Reporter struct {
	tmpl      *template.Template
	mailer    Mailer
	recipient string
}

func New(m Mailer, recipient string) (*Reporter, error) {
	tmpl, err := template.New("report.html.tmpl").
		Funcs(template.FuncMap{
			"money": func(d decimal.Decimal) string { return d.StringFixed(2) }, //nolint:mnd
		}).
		ParseFS(templatesFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Reporter{tmpl: tmpl, mailer: m, recipient: recipient}, nil
}

// Subject тема письма. Конец периода не включается, поэтому в теме показывается предыдущий день.
func Subject(r *domain.Report) string {
	return fmt.Sprintf(
		"Paid courses report for %s - %s",
		r.Start.Format(periodLayout),
		lastIncludedDay(r.Start, r.End).Format(periodLayout),
	)
}

func lastIncludedDay(start, end time.Time) time.Time {
	last := end.Add(-time.Nanosecond)
	if last.Before(start) {
		return start
	}
	return last
}

type view struct {
	Subject string
	Rows    []domain.ReportRow
	Total   decimal.Decimal
}

// Render возвращает html отчета.
func (r *Reporter) Render(report *domain.Report) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view{
		Subject: Subject(report),
		Rows:    report.Rows,
		Total:   report.Total,
	}); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// Send рендерит отчет и отправляет его получателю.
func (r *Reporter) Send(ctx context.Context, report *domain.Report) error {
	if r.recipient == "" {
		return ErrNoRecipient
	}
	html, err := r.Render(report)
	if err != nil {
		return err
	}
	if sendErr := r.mailer.SendHTML(ctx, r.recipient, Subject(report), html); sendErr != nil {
		return fmt.Errorf("send report to %s: %w", r.recipient, sendErr)
	}
	return nil
}
