package repository

import (
	"context"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/cache"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle. A Store
// obtained inside Transaction is bound to that transaction.
type Store struct {
	db      *gorm.DB
	catalog *cache.CatalogCache

	Courses     *CourseRepository
	Users       *UserRepository
	Enrollments *EnrollmentRepository
	Purchases   *PurchaseRepository
	Progress    *ProgressRepository
}

func NewStore(db *gorm.DB, catalog *cache.CatalogCache) *Store {
	return &Store{
		db:          db,
		catalog:     catalog,
		Courses:     NewCourseRepository(db, catalog),
		Users:       NewUserRepository(db),
		Enrollments: NewEnrollmentRepository(db),
		Purchases:   NewPurchaseRepository(db),
		Progress:    NewProgressRepository(db),
	}
}

// Transaction runs fn with repositories bound to one database transaction.
// Any error returned by fn rolls every write back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx, s.catalog))
	})
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Course{},
		&domain.CourseRating{},
		&domain.Enrollment{},
		&domain.Purchase{},
		&domain.CourseProgress{},
		&domain.CompletedLecture{},
	)
}
