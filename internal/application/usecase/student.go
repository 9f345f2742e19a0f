package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/payment"
	"coursehub/internal/infrastructure/repository"

	"github.com/google/uuid"
)

type UserView struct {
	domain.User
	EnrolledCourses []uuid.UUID `json:"enrolledCourses"`
}

type ProfileStatus struct {
	IsProfileComplete  bool       `json:"isProfileComplete"`
	Name               string     `json:"name"`
	ImageURL           string     `json:"imageUrl"`
	ProfileCompletedAt *time.Time `json:"profileCompletedAt,omitempty"`
}

type StudentUseCase struct {
	store    *repository.Store
	checkout CheckoutGateway
	currency string
	now      func() time.Time
}

func NewStudentUseCase(store *repository.Store, checkout CheckoutGateway, currency string) *StudentUseCase {
	return &StudentUseCase{
		store:    store,
		checkout: checkout,
		currency: strings.ToLower(currency),
		now:      time.Now,
	}
}

// UserData returns the caller, creating the record on first contact.
func (uc *StudentUseCase) UserData(ctx context.Context, id Identity) (*UserView, error) {
	user, err := ensureUser(ctx, uc.store, id)
	if err != nil {
		return nil, err
	}
	courses, err := uc.store.Enrollments.EnrolledCourseIDs(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []uuid.UUID{}
	}
	return &UserView{User: *user, EnrolledCourses: courses}, nil
}

// EnrolledCourses returns the user's courses, in enrollment order, with
// completion computed from the progress records.
func (uc *StudentUseCase) EnrolledCourses(ctx context.Context, userID string) ([]domain.CourseWithProgress, error) {
	ids, err := uc.store.Enrollments.EnrolledCourseIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses, err := uc.store.Courses.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := withEnrolledStudents(ctx, uc.store, courses); err != nil {
		return nil, err
	}
	counts, err := uc.store.Progress.CountCompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	out := make([]domain.CourseWithProgress, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, domain.NewCourseWithProgress(c, counts[id]))
	}
	return out, nil
}

// HasAccess reports whether the user is enrolled in the course.
func (uc *StudentUseCase) HasAccess(ctx context.Context, userID string, courseID uuid.UUID) (bool, error) {
	return uc.store.Enrollments.IsEnrolled(ctx, userID, courseID)
}

// Purchase opens a pending purchase and a checkout session for it. The
// purchase is settled later by the payment webhook.
func (uc *StudentUseCase) Purchase(ctx context.Context, id Identity, courseID uuid.UUID, origin string) (string, error) {
	if _, err := ensureUser(ctx, uc.store, id); err != nil {
		return "", err
	}
	course, err := uc.store.Courses.GetByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	if !course.IsPublished {
		return "", domain.ErrCourseNotForSale
	}
	enrolled, err := uc.store.Enrollments.IsEnrolled(ctx, id.UserID, courseID)
	if err != nil {
		return "", err
	}
	if enrolled {
		return "", domain.ErrAlreadyEnrolled
	}

	p := &domain.Purchase{
		UserID:      id.UserID,
		CourseID:    courseID,
		AmountCents: course.NetAmountCents(),
		Currency:    uc.currency,
		Status:      domain.PurchasePending,
	}
	if err := uc.store.Purchases.Create(ctx, p); err != nil {
		return "", err
	}

	origin = strings.TrimRight(origin, "/")
	session, err := uc.checkout.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		PurchaseID:  p.ID.String(),
		UserID:      id.UserID,
		CourseID:    courseID.String(),
		CourseTitle: course.Title,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		SuccessURL:  origin + "/loading/my-enrollments",
		CancelURL:   origin + "/",
	})
	if err != nil {
		if _, ferr := uc.store.Purchases.MarkFailed(ctx, p.ID, "", uc.now()); ferr != nil {
			log.Printf("mark purchase %s failed: %v", p.ID, ferr)
		}
		return "", err
	}

	if err := uc.store.Purchases.SetCheckoutSession(ctx, p.ID, session.ID); err != nil {
		return "", err
	}
	log.Printf("checkout started purchase=%s user=%s course=%s", p.ID, id.UserID, courseID)
	return session.URL, nil
}

// UpdateProgress marks a lecture completed. alreadyCompleted is true when the
// lecture was in the set before; the set never shrinks.
func (uc *StudentUseCase) UpdateProgress(ctx context.Context, userID string, courseID uuid.UUID, lectureID string) (alreadyCompleted bool, err error) {
	if strings.TrimSpace(lectureID) == "" {
		return false, domain.NewValidationError("lectureId is required")
	}
	course, err := uc.store.Courses.GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	enrolled, err := uc.store.Enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	if !enrolled {
		return false, domain.ErrNotEnrolled
	}
	if !course.HasLecture(lectureID) {
		return false, domain.ErrLectureNotFound
	}

	now := uc.now()
	err = uc.store.Transaction(ctx, func(tx *repository.Store) error {
		progress, err := tx.Progress.Touch(ctx, userID, courseID, now)
		if err != nil {
			return err
		}
		added, err := tx.Progress.AddCompletedLecture(ctx, userID, courseID, lectureID, now)
		if err != nil {
			return err
		}
		alreadyCompleted = !added
		if !added || progress.Completed {
			return nil
		}

		done, err := tx.Progress.CompletedLectureIDs(ctx, userID, courseID)
		if err != nil {
			return err
		}
		if countCourseLectures(course, done) >= course.TotalLectures() {
			return tx.Progress.MarkCompleted(ctx, progress.ID)
		}
		return nil
	})
	return alreadyCompleted, err
}

func countCourseLectures(c *domain.Course, ids []string) int {
	n := 0
	for _, id := range ids {
		if c.HasLecture(id) {
			n++
		}
	}
	return n
}

// GetProgress returns nil without error when the user has no record yet.
func (uc *StudentUseCase) GetProgress(ctx context.Context, userID string, courseID uuid.UUID) (*domain.CourseProgress, error) {
	p, err := uc.store.Progress.Get(ctx, userID, courseID)
	if errors.Is(err, domain.ErrProgressNotFound) {
		return nil, nil
	}
	return p, err
}

func (uc *StudentUseCase) AddRating(ctx context.Context, userID string, courseID uuid.UUID, rating int) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return domain.NewValidationError("Rating must be between 1 and 5")
	}
	if _, err := uc.store.Courses.GetByID(ctx, courseID); err != nil {
		return err
	}
	enrolled, err := uc.store.Enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return domain.ErrNotEnrolled
	}
	return uc.store.Courses.UpsertRating(ctx, &domain.CourseRating{
		CourseID: courseID,
		UserID:   userID,
		Rating:   rating,
	})
}

func (uc *StudentUseCase) CompleteProfile(ctx context.Context, id Identity, name, imageURL string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("Name is required")
	}
	if _, err := ensureUser(ctx, uc.store, id); err != nil {
		return nil, err
	}
	if err := uc.store.Users.CompleteProfile(ctx, id.UserID, name, strings.TrimSpace(imageURL), uc.now()); err != nil {
		return nil, err
	}
	return uc.store.Users.GetByID(ctx, id.UserID)
}

func (uc *StudentUseCase) ProfileStatus(ctx context.Context, userID string) (*ProfileStatus, error) {
	u, err := uc.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileStatus{
		IsProfileComplete:  u.IsProfileComplete,
		Name:               u.Name,
		ImageURL:           u.ImageURL,
		ProfileCompletedAt: u.ProfileCompletedAt,
	}, nil
}
