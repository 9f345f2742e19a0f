package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/payment"
	"coursehub/internal/infrastructure/repository"
	"coursehub/internal/testutil"

	"gorm.io/gorm"
)

type fakeCheckout struct {
	err  error
	reqs []payment.CheckoutRequest
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &payment.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
}

type fakeUploader struct {
	url string
	err error
}

func (f fakeUploader) Upload(context.Context, io.Reader) (string, error) {
	return f.url, f.err
}

type publishedEvent struct {
	Type          string
	CorrelationID string
	Payload       any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, correlationID string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType, correlationID, payload})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db    *gorm.DB
	store *repository.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	return &fixture{db: db, store: repository.NewStore(db, nil)}
}

func (f *fixture) course(t *testing.T, educatorID string) *domain.Course {
	t.Helper()
	c := &domain.Course{
		EducatorID:   educatorID,
		Title:        "Distributed Systems",
		Description:  "Consensus and replication",
		ThumbnailURL: "https://img.example.com/ds.png",
		PriceCents:   10000,
		Discount:     20,
		IsPublished:  true,
		Content: []domain.Chapter{
			{ChapterID: "ch1", ChapterOrder: 1, ChapterTitle: "Clocks", Lectures: []domain.Lecture{
				{LectureID: "l1", LectureTitle: "Lamport", LectureURL: "https://v/l1", LectureOrder: 1, IsPreviewFree: true},
				{LectureID: "l2", LectureTitle: "Vector", LectureURL: "https://v/l2", LectureOrder: 2},
			}},
			{ChapterID: "ch2", ChapterOrder: 2, ChapterTitle: "Raft", Lectures: []domain.Lecture{
				{LectureID: "l3", LectureTitle: "Leader election", LectureURL: "https://v/l3", LectureOrder: 1},
			}},
		},
	}
	if err := f.store.Courses.Create(context.Background(), c); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}

func (f *fixture) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := f.store.Users.FirstOrCreate(context.Background(), &domain.User{ID: id, Name: "Student " + id, Email: id + "@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) pendingPurchase(t *testing.T, userID string, c *domain.Course) *domain.Purchase {
	t.Helper()
	p := &domain.Purchase{
		UserID:      userID,
		CourseID:    c.ID,
		AmountCents: c.NetAmountCents(),
		Currency:    "usd",
		Status:      domain.PurchasePending,
	}
	if err := f.store.Purchases.Create(context.Background(), p); err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	return p
}

func (f *fixture) enroll(t *testing.T, userID string, c *domain.Course) {
	t.Helper()
	if _, err := f.store.Enrollments.Enroll(context.Background(), userID, c.ID, time.Now()); err != nil {
		t.Fatalf("enroll: %v", err)
	}
}

// failEnrollmentWrites makes every insert into enrollments fail.
func (f *fixture) failEnrollmentWrites(t *testing.T) {
	t.Helper()
	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_enrollments", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "enrollments" {
			tx.AddError(errors.New("injected enrollment failure"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

// failCourseDeletes makes every delete from courses fail.
func (f *fixture) failCourseDeletes(t *testing.T) {
	t.Helper()
	err := f.db.Callback().Delete().Before("gorm:delete").Register("test:fail_course_deletes", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "courses" {
			tx.AddError(errors.New("injected course delete failure"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}
