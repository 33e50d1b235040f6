package pgrepo

import (
	"context"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const courseColumns = "id, code, title, course_type, price"

type CourseRepository struct {
	conn uow.DBTX
}

func NewCourseRepository(conn uow.DBTX) *CourseRepository {
	return &CourseRepository{conn: conn}
}

// FindByCode возвращает курс по коду или domain.ErrRecordNotFound.
func (c *CourseRepository) FindByCode(ctx context.Context, code string) (*domain.Course, error) {
	row := c.conn.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE code = $1`, code)
	course, err := scanCourse(row)
	if err != nil {
		return nil, convertErr(err, "finding course by code %s", code)
	}
	return course, nil
}

func (c *CourseRepository) List(ctx context.Context) ([]domain.Course, error) {
	rows, err := c.conn.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY code`)
	if err != nil {
		return nil, convertErr(err, "listing courses")
	}
	courses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Course, error) {
		course, scanErr := scanCourse(row)
		if scanErr != nil {
			return domain.Course{}, scanErr
		}
		return *course, nil
	})
	if err != nil {
		return nil, convertErr(err, "listing courses")
	}
	return courses, nil
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var (
		course     domain.Course
		courseType string
	)
	if err := row.Scan(&course.ID, &course.Code, &course.Title, &courseType, &course.Price); err != nil {
		return nil, err //nolint:wrapcheck
	}
	course.Type = domain.CourseType(courseType)
	return &course, nil
}
