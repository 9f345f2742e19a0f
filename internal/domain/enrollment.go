package domain

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment links a user and a course in both directions: the course is in
// the user's enrolled courses and the user is in the course's enrolled
// students. The composite key makes repeated inserts a no-op.
type Enrollment struct {
	UserID     string    `gorm:"primaryKey"`
	CourseID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	EnrolledAt time.Time `gorm:"not null"`
}
