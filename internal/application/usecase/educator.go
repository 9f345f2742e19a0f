package usecase

import (
	"context"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/repository"

	"github.com/google/uuid"
)

// AddCourseInput is the JSON document sent in the courseContent form field.
type AddCourseInput struct {
	Title       string           `json:"courseTitle"`
	Description string           `json:"courseDescription"`
	Price       float64          `json:"coursePrice"`
	Discount    int              `json:"discount"`
	Chapters    []domain.Chapter `json:"courseContent"`
}

type DeletionResult struct {
	Purchases       int64 `json:"purchases"`
	ProgressRecords int64 `json:"progressRecords"`
	Enrollments     int64 `json:"enrollments"`
}

type StudentSummary struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type EnrolledStudentRow struct {
	CourseTitle string         `json:"courseTitle"`
	Student     StudentSummary `json:"student"`
}

type DashboardData struct {
	TotalCourses         int                  `json:"totalCourses"`
	TotalEarnings        float64              `json:"totalEarnings"`
	EnrolledStudentsData []EnrolledStudentRow `json:"enrolledStudentsData"`
	UniqueStudents       int                  `json:"uniqueStudents"`
}

type EnrolledStudentPurchase struct {
	Student      StudentSummary `json:"student"`
	CourseTitle  string         `json:"courseTitle"`
	Amount       float64        `json:"amount"`
	PurchaseDate time.Time      `json:"purchaseDate"`
}

type EnrollmentSummary struct {
	TotalStudents  int     `json:"totalStudents"`
	TotalCourses   int     `json:"totalCourses"`
	TotalPurchases int     `json:"totalPurchases"`
	TotalRevenue   float64 `json:"totalRevenue"`
}

type EducatorUseCase struct {
	store    *repository.Store
	uploader ImageUploader
	events   EventPublisher
	now      func() time.Time
}

func NewEducatorUseCase(store *repository.Store, uploader ImageUploader, events EventPublisher) *EducatorUseCase {
	return &EducatorUseCase{
		store:    store,
		uploader: uploader,
		events:   events,
		now:      time.Now,
	}
}

// BecomeEducator grants the educator role to the caller.
func (uc *EducatorUseCase) BecomeEducator(ctx context.Context, id Identity) error {
	if _, err := ensureUser(ctx, uc.store, id); err != nil {
		return err
	}
	return uc.store.Users.SetRole(ctx, id.UserID, domain.RoleEducator)
}

func (uc *EducatorUseCase) AddCourse(ctx context.Context, educatorID string, in AddCourseInput, thumbnail io.Reader) (*domain.Course, error) {
	if thumbnail == nil {
		return nil, domain.NewValidationError("Thumbnail not attached")
	}
	chapters, err := normalizeCourse(&in)
	if err != nil {
		return nil, err
	}

	url, err := uc.uploader.Upload(ctx, thumbnail)
	if err != nil {
		return nil, err
	}

	course := &domain.Course{
		EducatorID:   educatorID,
		Title:        in.Title,
		Description:  in.Description,
		ThumbnailURL: url,
		PriceCents:   domain.PriceToCents(in.Price),
		Discount:     in.Discount,
		IsPublished:  true,
		Content:      chapters,

		EnrolledStudents: []string{},
	}
	if err := uc.store.Courses.Create(ctx, course); err != nil {
		return nil, err
	}

	log.Printf("course created id=%s educator=%s", course.ID, educatorID)
	return course, nil
}

func normalizeCourse(in *AddCourseInput) ([]domain.Chapter, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" {
		return nil, domain.NewValidationError("Course title is required")
	}
	if in.Description == "" {
		return nil, domain.NewValidationError("Course description is required")
	}
	if in.Price < 0 {
		return nil, domain.NewValidationError("Course price cannot be negative")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return nil, domain.NewValidationError("Discount must be between 0 and 100")
	}
	if len(in.Chapters) == 0 {
		return nil, domain.NewValidationError("At least one chapter is required")
	}

	// Progress counts unique lecture ids, so ids must be unique across chapters.
	lectureIDs := make(map[string]bool)

	chapters := make([]domain.Chapter, len(in.Chapters))
	copy(chapters, in.Chapters)
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].ChapterOrder < chapters[j].ChapterOrder
	})

	for i := range chapters {
		ch := &chapters[i]
		ch.ChapterOrder = i + 1
		ch.ChapterTitle = strings.TrimSpace(ch.ChapterTitle)
		if ch.ChapterTitle == "" {
			return nil, domain.NewValidationError("Every chapter needs a title")
		}
		if ch.ChapterID == "" {
			ch.ChapterID = uuid.NewString()
		}
		if len(ch.Lectures) == 0 {
			return nil, domain.NewValidationError("Chapter \"" + ch.ChapterTitle + "\" has no lectures")
		}

		sort.SliceStable(ch.Lectures, func(a, b int) bool {
			return ch.Lectures[a].LectureOrder < ch.Lectures[b].LectureOrder
		})
		for j := range ch.Lectures {
			l := &ch.Lectures[j]
			l.LectureOrder = j + 1
			if strings.TrimSpace(l.LectureTitle) == "" || strings.TrimSpace(l.LectureURL) == "" {
				return nil, domain.NewValidationError("Every lecture needs a title and url")
			}
			if l.LectureDuration < 0 {
				return nil, domain.NewValidationError("Lecture duration cannot be negative")
			}
			if l.LectureID == "" {
				l.LectureID = uuid.NewString()
			}
			if lectureIDs[l.LectureID] {
				return nil, domain.NewValidationError("Duplicate lecture id \"" + l.LectureID + "\"")
			}
			lectureIDs[l.LectureID] = true
		}
	}
	return chapters, nil
}

func (uc *EducatorUseCase) EducatorCourses(ctx context.Context, educatorID string) ([]domain.Course, error) {
	courses, err := uc.store.Courses.ListByEducator(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	if err := withEnrolledStudents(ctx, uc.store, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// DeleteCourse removes the course and everything that references it in one
// transaction.
func (uc *EducatorUseCase) DeleteCourse(ctx context.Context, educatorID string, courseID uuid.UUID) (*DeletionResult, error) {
	course, err := uc.store.Courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := CanManageCourse(educatorID, course); err != nil {
		return nil, err
	}

	var res DeletionResult
	err = uc.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if res.Purchases, err = tx.Purchases.DeleteByCourse(ctx, courseID); err != nil {
			return err
		}
		if res.ProgressRecords, err = tx.Progress.DeleteByCourse(ctx, courseID); err != nil {
			return err
		}
		if res.Enrollments, err = tx.Enrollments.DeleteByCourse(ctx, courseID); err != nil {
			return err
		}
		if _, err = tx.Courses.DeleteRatingsByCourse(ctx, courseID); err != nil {
			return err
		}
		n, err := tx.Courses.Delete(ctx, courseID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrCourseNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.store.Courses.Invalidate(ctx, courseID)

	log.Printf("course deleted id=%s purchases=%d progress=%d enrollments=%d",
		courseID, res.Purchases, res.ProgressRecords, res.Enrollments)

	publish(ctx, uc.events, domain.EventCourseDeleted, courseID.String(), domain.CourseDeletedPayload{
		CourseID:   courseID.String(),
		EducatorID: educatorID,
		Purchases:  res.Purchases,
		Progress:   res.ProgressRecords,
	})
	return &res, nil
}

func (uc *EducatorUseCase) Dashboard(ctx context.Context, educatorID string) (*DashboardData, error) {
	courses, err := uc.store.Courses.ListByEducator(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	ids, titles := courseIndex(courses)

	earnings, err := uc.store.Purchases.SumCompletedByCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	enrollments, err := uc.store.Enrollments.ListByCourses(ctx, ids)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		studentIDs = append(studentIDs, e.UserID)
	}
	students, err := uc.studentSummaries(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]EnrolledStudentRow, 0, len(enrollments))
	for _, e := range enrollments {
		rows = append(rows, EnrolledStudentRow{
			CourseTitle: titles[e.CourseID],
			Student:     students[e.UserID],
		})
	}

	return &DashboardData{
		TotalCourses:         len(courses),
		TotalEarnings:        float64(earnings) / 100,
		EnrolledStudentsData: rows,
		UniqueStudents:       len(students),
	}, nil
}

// EnrolledStudents lists completed purchases of the educator's courses.
func (uc *EducatorUseCase) EnrolledStudents(ctx context.Context, educatorID string) ([]EnrolledStudentPurchase, *EnrollmentSummary, error) {
	courses, err := uc.store.Courses.ListByEducator(ctx, educatorID)
	if err != nil {
		return nil, nil, err
	}
	ids, titles := courseIndex(courses)

	purchases, err := uc.store.Purchases.ListCompletedByCourses(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	userIDs := make([]string, 0, len(purchases))
	for _, p := range purchases {
		userIDs = append(userIDs, p.UserID)
	}
	students, err := uc.studentSummaries(ctx, userIDs)
	if err != nil {
		return nil, nil, err
	}

	summary := &EnrollmentSummary{
		TotalStudents:  len(students),
		TotalCourses:   len(courses),
		TotalPurchases: len(purchases),
	}
	var revenue int64
	out := make([]EnrolledStudentPurchase, 0, len(purchases))
	for _, p := range purchases {
		revenue += p.AmountCents
		out = append(out, EnrolledStudentPurchase{
			Student:      students[p.UserID],
			CourseTitle:  titles[p.CourseID],
			Amount:       p.Amount(),
			PurchaseDate: p.CreatedAt,
		})
	}
	summary.TotalRevenue = float64(revenue) / 100
	return out, summary, nil
}

func courseIndex(courses []domain.Course) ([]uuid.UUID, map[uuid.UUID]string) {
	ids := make([]uuid.UUID, 0, len(courses))
	titles := make(map[uuid.UUID]string, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
		titles[c.ID] = c.Title
	}
	return ids, titles
}

// studentSummaries loads each distinct user once. Users deleted from the
// identity provider still show up by id.
func (uc *EducatorUseCase) studentSummaries(ctx context.Context, ids []string) (map[string]StudentSummary, error) {
	out := make(map[string]StudentSummary)
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		out[id] = StudentSummary{ID: id, Name: domain.DefaultUserName}
		unique = append(unique, id)
	}

	users, err := uc.store.Users.ListByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = StudentSummary{ID: u.ID, Name: u.Name, ImageURL: u.ImageURL}
	}
	return out, nil
}
