package repository

import (
	"context"
	"errors"
	"log"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	db      *gorm.DB
	catalog *cache.CatalogCache
}

func NewCourseRepository(db *gorm.DB, catalog *cache.CatalogCache) *CourseRepository {
	return &CourseRepository{db: db, catalog: catalog}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return err
	}
	r.Invalidate(ctx)
	return nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).
		Preload("Ratings").
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// ListPublished is served from the catalog cache when possible.
func (r *CourseRepository) ListPublished(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	if err := r.catalog.GetList(ctx, &courses); err == nil {
		return courses, nil
	}

	err := r.db.WithContext(ctx).
		Preload("Ratings").
		Where("is_published = ?", true).
		Order("created_at desc").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}

	if err := r.catalog.SetList(ctx, courses); err != nil {
		log.Printf("catalog cache write failed: %v", err)
	}
	return courses, nil
}

// GetPublished returns a published course, cached for an hour.
func (r *CourseRepository) GetPublished(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	if err := r.catalog.GetDetail(ctx, id.String(), &course); err == nil {
		return &course, nil
	}

	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished {
		return nil, domain.ErrCourseNotFound
	}

	if err := r.catalog.SetDetail(ctx, id.String(), c); err != nil {
		log.Printf("catalog cache write failed: %v", err)
	}
	return c, nil
}

func (r *CourseRepository) ListByEducator(ctx context.Context, educatorID string) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Preload("Ratings").
		Where("educator_id = ?", educatorID).
		Order("created_at desc").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Course, error) {
	var courses []domain.Course
	if len(ids) == 0 {
		return courses, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Ratings").
		Where("id IN ?", ids).
		Order("created_at desc").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.Course{}, "id = ?", id)
	if res.Error != nil {
		return 0, res.Error
	}
	r.Invalidate(ctx, id)
	return res.RowsAffected, nil
}

// UpsertRating stores one rating per (course, user).
func (r *CourseRepository) UpsertRating(ctx context.Context, rating *domain.CourseRating) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).
		Create(rating).Error
	if err != nil {
		return err
	}
	r.Invalidate(ctx, rating.CourseID)
	return nil
}

func (r *CourseRepository) DeleteRatingsByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&domain.CourseRating{})
	return res.RowsAffected, res.Error
}

func (r *CourseRepository) DeleteRatingsByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CourseRating{})
	return res.RowsAffected, res.Error
}

// Invalidate drops cached catalog entries. Cache failures never fail the
// write; entries also expire by TTL.
func (r *CourseRepository) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	if err := r.catalog.Invalidate(ctx, keys...); err != nil {
		log.Printf("catalog cache invalidation failed: %v", err)
	}
}
