package report

import "context"

type Mailer interface {
	SendHTML(ctx context.Context, to, subject, html string) error
}
