package repository

import (
	"context"
	"errors"
	"time"

	"coursehub/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Touch creates the (user, course) progress record or refreshes its last
// access time, and returns the stored row.
func (r *ProgressRepository) Touch(ctx context.Context, userID string, courseID uuid.UUID, at time.Time) (*domain.CourseProgress, error) {
	row := domain.CourseProgress{UserID: userID, CourseID: courseID, LastAccessedAt: at}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"last_accessed_at": at, "updated_at": at}),
		}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}

	var stored domain.CourseProgress
	err = r.db.WithContext(ctx).
		First(&stored, "user_id = ? AND course_id = ?", userID, courseID).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// AddCompletedLecture inserts the lecture into the completed set. added is
// false when it was already there.
func (r *ProgressRepository) AddCompletedLecture(ctx context.Context, userID string, courseID uuid.UUID, lectureID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.CompletedLecture{
			UserID:      userID,
			CourseID:    courseID,
			LectureID:   lectureID,
			CompletedAt: at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *ProgressRepository) CompletedLectureIDs(ctx context.Context, userID string, courseID uuid.UUID) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&domain.CompletedLecture{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("completed_at asc").
		Pluck("lecture_id", &ids).Error
	return ids, err
}

// CountCompletedByUser maps course id to the number of completed lectures.
func (r *ProgressRepository) CountCompletedByUser(ctx context.Context, userID string) (map[uuid.UUID]int, error) {
	type row struct {
		CourseID uuid.UUID
		Count    int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.CompletedLecture{}).
		Select("course_id, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		out[r.CourseID] = r.Count
	}
	return out, nil
}

// Get returns the progress record with its completed lecture ids.
func (r *ProgressRepository) Get(ctx context.Context, userID string, courseID uuid.UUID) (*domain.CourseProgress, error) {
	var p domain.CourseProgress
	err := r.db.WithContext(ctx).
		First(&p, "user_id = ? AND course_id = ?", userID, courseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, err
	}

	p.LectureCompleted, err = r.CompletedLectureIDs(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.CourseProgress{}).
		Where("id = ?", id).
		Update("completed", true).Error
}

// DeleteByCourse removes progress rows and completed lectures of a course.
func (r *ProgressRepository) DeleteByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	if err := r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&domain.CompletedLecture{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&domain.CourseProgress{})
	return res.RowsAffected, res.Error
}

func (r *ProgressRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CompletedLecture{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CourseProgress{})
	return res.RowsAffected, res.Error
}
