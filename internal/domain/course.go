package domain

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID           uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"_id"`
	EducatorID   string                       `gorm:"index;not null" json:"educator"`
	Title        string                       `gorm:"not null" json:"courseTitle"`
	Description  string                       `gorm:"type:text;not null" json:"courseDescription"`
	ThumbnailURL string                       `gorm:"not null" json:"courseThumbnail"`
	PriceCents   int64                        `gorm:"not null" json:"coursePriceCents"`
	Discount     int                          `gorm:"not null;default:0" json:"discount"`
	IsPublished  bool                         `gorm:"index;default:false" json:"isPublished"`
	Content      datatypes.JSONSlice[Chapter] `json:"courseContent"`
	Ratings      []CourseRating               `gorm:"foreignKey:CourseID" json:"courseRatings"`

	// Read from the enrollments table, never stored on the course row.
	EnrolledStudents []string `gorm:"-" json:"enrolledStudents"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Chapter struct {
	ChapterID    string    `json:"chapterId"`
	ChapterOrder int       `json:"chapterOrder"`
	ChapterTitle string    `json:"chapterTitle"`
	Lectures     []Lecture `json:"chapterContent"`
}

type Lecture struct {
	LectureID       string  `json:"lectureId"`
	LectureTitle    string  `json:"lectureTitle"`
	LectureDuration float64 `json:"lectureDuration"` // minutes
	LectureURL      string  `json:"lectureUrl"`
	IsPreviewFree   bool    `json:"isPreviewFree"`
	LectureOrder    int     `json:"lectureOrder"`
}

// CourseRating is one user's rating of a course; re-rating replaces the value.
type CourseRating struct {
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID    string    `gorm:"primaryKey" json:"userId"`
	Rating    int       `gorm:"not null" json:"rating"`
	UpdatedAt time.Time `json:"-"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// MarshalJSON adds the derived price and rating fields the storefront reads.
func (c Course) MarshalJSON() ([]byte, error) {
	type alias Course
	return json.Marshal(struct {
		alias
		CoursePrice   float64 `json:"coursePrice"`
		AverageRating int     `json:"averageRating"`
	}{alias(c), c.Price(), c.AverageRating()})
}

// Price returns the list price in major currency units.
func (c *Course) Price() float64 {
	return float64(c.PriceCents) / 100
}

// NetAmountCents is the price after the percentage discount, in minor units.
func (c *Course) NetAmountCents() int64 {
	off := int64(math.Round(float64(c.PriceCents) * float64(c.Discount) / 100))
	return c.PriceCents - off
}

func (c *Course) TotalLectures() int {
	n := 0
	for _, ch := range c.Content {
		n += len(ch.Lectures)
	}
	return n
}

func (c *Course) HasLecture(lectureID string) bool {
	for _, ch := range c.Content {
		for _, l := range ch.Lectures {
			if l.LectureID == lectureID {
				return true
			}
		}
	}
	return false
}

// AverageRating is floored like the storefront shows it; 0 when unrated.
func (c *Course) AverageRating() int {
	if len(c.Ratings) == 0 {
		return 0
	}
	total := 0
	for _, r := range c.Ratings {
		total += r.Rating
	}
	return total / len(c.Ratings)
}

// SortContent orders chapters and their lectures by their order fields.
func (c *Course) SortContent() {
	sort.SliceStable(c.Content, func(i, j int) bool {
		return c.Content[i].ChapterOrder < c.Content[j].ChapterOrder
	})
	for i := range c.Content {
		lectures := c.Content[i].Lectures
		sort.SliceStable(lectures, func(a, b int) bool {
			return lectures[a].LectureOrder < lectures[b].LectureOrder
		})
	}
}

// PublicCopy hides lecture urls that are not free previews.
func (c Course) PublicCopy() Course {
	chapters := make([]Chapter, len(c.Content))
	for i, ch := range c.Content {
		lectures := make([]Lecture, len(ch.Lectures))
		for j, l := range ch.Lectures {
			if !l.IsPreviewFree {
				l.LectureURL = ""
			}
			lectures[j] = l
		}
		ch.Lectures = lectures
		chapters[i] = ch
	}
	c.Content = chapters
	return c
}

// PriceToCents converts a major-unit price to minor units.
func PriceToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
