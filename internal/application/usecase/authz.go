package usecase

import "coursehub/internal/domain"

// CanManageCourse reports whether userID may modify or delete the course.
// It must be checked before any write to the course or its dependents.
func CanManageCourse(userID string, c *domain.Course) error {
	if c == nil {
		return domain.ErrCourseNotFound
	}
	if userID == "" || c.EducatorID != userID {
		return domain.ErrNotCourseOwner
	}
	return nil
}
