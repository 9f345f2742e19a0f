package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseProgress is unique per (user, course).
type CourseProgress struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string    `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"userId"`
	CourseID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_course" json:"courseId"`
	Completed      bool      `gorm:"default:false" json:"completed"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`

	LectureCompleted []string `gorm:"-" json:"lectureCompleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *CourseProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CompletedLecture struct {
	UserID      string    `gorm:"primaryKey"`
	CourseID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	LectureID   string    `gorm:"primaryKey"`
	CompletedAt time.Time
}

// CourseWithProgress is an enrolled course with its computed completion.
type CourseWithProgress struct {
	Course            Course  `json:"course"`
	CompletedLectures int     `json:"lectureCompleted"`
	TotalLectures     int     `json:"totalLectures"`
	ProgressPercent   float64 `json:"progressPercent"`
}

func NewCourseWithProgress(c Course, completed int) CourseWithProgress {
	total := c.TotalLectures()
	if completed > total {
		completed = total
	}
	var pct float64
	if total > 0 {
		pct = math.Round(float64(completed)/float64(total)*10000) / 100
	}
	return CourseWithProgress{
		Course:            c,
		CompletedLectures: completed,
		TotalLectures:     total,
		ProgressPercent:   pct,
	}
}
