package notifier

import (
	"fmt"
	"strings"

	"github.com/fsdevblog/study-billing/internal/domain"
)

const (
	NoticeSubject    = "Rental period is ending soon"
	noticeTimeLayout = "02.01.2006 15:04"
)

// RenderNotice текст письма об окончании аренды, по строке на каждый курс.
func RenderNotice(rentals []domain.Transaction) string {
	var b strings.Builder
	b.WriteString("Hello!\n\nThe rental period of the following courses is ending soon:\n\n")
	for _, rental := range rentals {
		if rental.ExpiresAt == nil {
			continue
		}
		fmt.Fprintf(&b, "%s is available until %s\n", courseTitle(rental), rental.ExpiresAt.Format(noticeTimeLayout))
	}
	return b.String()
}

func courseTitle(rental domain.Transaction) string {
	if rental.Course != nil && rental.Course.Title != "" {
		return rental.Course.Title
	}
	if rental.CourseID != nil {
		return fmt.Sprintf("Course #%d", *rental.CourseID)
	}
	return "Course"
}
