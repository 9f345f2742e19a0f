package usecase

import (
	"context"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/repository"

	"github.com/google/uuid"
)

type CatalogUseCase struct {
	store *repository.Store
}

func NewCatalogUseCase(store *repository.Store) *CatalogUseCase {
	return &CatalogUseCase{store: store}
}

// ListCourses returns every published course with paid lecture urls hidden.
// Enrolled students are read after the cached course list, so they are
// always current.
func (uc *CatalogUseCase) ListCourses(ctx context.Context) ([]domain.Course, error) {
	courses, err := uc.store.Courses.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Course, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.PublicCopy())
	}
	if err := withEnrolledStudents(ctx, uc.store, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *CatalogUseCase) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	c, err := uc.store.Courses.GetPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	public := c.PublicCopy()
	public.EnrolledStudents, err = uc.store.Enrollments.EnrolledStudentIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &public, nil
}
