package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/pkg/uow"
)

type CourseService struct {
	courseRepo CourseRepository
}

func NewCourseService(u uow.UOW) (*CourseService, error) {
	courseRepo, courseRepoErr := uow.GetRepositoryAs[CourseRepository](
		u,
		uow.RepositoryName(repoargs.CourseRepoName),
	)
	if courseRepoErr != nil {
		return nil, courseRepoErr //nolint:wrapcheck
	}
	return &CourseService{courseRepo: courseRepo}, nil
}

func (s *CourseService) List(ctx context.Context) ([]domain.Course, error) {
	courses, err := s.courseRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return courses, nil
}

func (s *CourseService) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	course, err := s.courseRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("course `%s`: %w", code, domain.ErrCourseNotFound)
		}
		return nil, fmt.Errorf("course `%s`: %w", code, err)
	}
	return course, nil
}
