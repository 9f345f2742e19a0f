package repository

import (
	"context"
	"time"

	"coursehub/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll adds the pair with set semantics. created is false when the user
// was already enrolled.
func (r *EnrollmentRepository) Enroll(ctx context.Context, userID string, courseID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: at})
	return res.RowsAffected > 0, res.Error
}

func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, userID string, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// EnrolledCourseIDs is the user's enrolled-course set, oldest first.
func (r *EnrollmentRepository) EnrolledCourseIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("user_id = ?", userID).
		Order("enrolled_at asc").
		Pluck("course_id", &ids).Error
	return ids, err
}

// EnrolledStudentIDs is the course's enrolled-student set, oldest first.
func (r *EnrollmentRepository) EnrolledStudentIDs(ctx context.Context, courseID uuid.UUID) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("course_id = ?", courseID).
		Order("enrolled_at asc").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *EnrollmentRepository) ListByCourses(ctx context.Context, courseIDs []uuid.UUID) ([]domain.Enrollment, error) {
	var out []domain.Enrollment
	if len(courseIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("enrolled_at asc").
		Find(&out).Error
	return out, err
}

// StudentIDsByCourses groups the enrolled-student sets of several courses.
// Every requested course has an entry, empty when nobody is enrolled.
func (r *EnrollmentRepository) StudentIDsByCourses(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	rows, err := r.ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]string, len(courseIDs))
	for _, id := range courseIDs {
		out[id] = []string{}
	}
	for _, e := range rows {
		out[e.CourseID] = append(out[e.CourseID], e.UserID)
	}
	return out, nil
}

// DeleteByCourse pulls the course out of every user's enrolled courses.
func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&domain.Enrollment{})
	return res.RowsAffected, res.Error
}

func (r *EnrollmentRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Enrollment{})
	return res.RowsAffected, res.Error
}
