package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/cache"
	"coursehub/internal/infrastructure/repository"
	"coursehub/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	return repository.NewStore(testutil.OpenDB(t), nil)
}

func seedCourse(t *testing.T, s *repository.Store, educatorID string, published bool) *domain.Course {
	t.Helper()
	c := &domain.Course{
		EducatorID:   educatorID,
		Title:        "Intro to Go",
		Description:  "Channels and goroutines",
		ThumbnailURL: "https://img.example.com/go.png",
		PriceCents:   4999,
		Discount:     10,
		IsPublished:  published,
		Content: []domain.Chapter{{
			ChapterID:    "ch1",
			ChapterOrder: 1,
			ChapterTitle: "Basics",
			Lectures: []domain.Lecture{
				{LectureID: "l1", LectureTitle: "Hello", LectureURL: "https://v/1", LectureOrder: 1, IsPreviewFree: true},
				{LectureID: "l2", LectureTitle: "Types", LectureURL: "https://v/2", LectureOrder: 2},
			},
		}},
	}
	if err := s.Courses.Create(context.Background(), c); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}

func TestCourseRepository_CreateAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := seedCourse(t, s, "edu_1", true)

	got, err := s.Courses.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Intro to Go" || got.TotalLectures() != 2 {
		t.Fatalf("unexpected course: %+v", got)
	}
	if got.Content[0].Lectures[1].LectureURL != "https://v/2" {
		t.Errorf("content not persisted: %+v", got.Content)
	}

	if _, err := s.Courses.GetByID(ctx, uuid.New()); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestCourseRepository_PublishedOnly(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	pub := seedCourse(t, s, "edu_1", true)
	draft := seedCourse(t, s, "edu_1", false)

	list, err := s.Courses.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(list) != 1 || list[0].ID != pub.ID {
		t.Fatalf("expected only the published course, got %d", len(list))
	}

	if _, err := s.Courses.GetPublished(ctx, draft.ID); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Errorf("draft must not be visible, got %v", err)
	}

	mine, err := s.Courses.ListByEducator(ctx, "edu_1")
	if err != nil {
		t.Fatalf("ListByEducator: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 educator courses, got %d", len(mine))
	}
}

func TestCourseRepository_CacheInvalidatedOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := repository.NewStore(testutil.OpenDB(t), cache.NewCatalogCache(rdb))
	ctx := context.Background()
	seedCourse(t, s, "edu_1", true)

	if _, err := s.Courses.ListPublished(ctx); err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if !mr.Exists("courses:list:published") {
		t.Fatal("expected catalog list to be cached")
	}

	seedCourse(t, s, "edu_1", true)
	if mr.Exists("courses:list:published") {
		t.Fatal("expected catalog list to be invalidated after create")
	}

	list, err := s.Courses.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 courses after refill, got %d", len(list))
	}
}

func TestCourseRepository_UpsertRating(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := seedCourse(t, s, "edu_1", true)

	for _, v := range []int{2, 4} {
		if err := s.Courses.UpsertRating(ctx, &domain.CourseRating{CourseID: c.ID, UserID: "u1", Rating: v}); err != nil {
			t.Fatalf("UpsertRating: %v", err)
		}
	}
	if err := s.Courses.UpsertRating(ctx, &domain.CourseRating{CourseID: c.ID, UserID: "u2", Rating: 5}); err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}

	got, err := s.Courses.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Ratings) != 2 {
		t.Fatalf("expected one rating per user, got %d", len(got.Ratings))
	}
	if avg := got.AverageRating(); avg != 4 {
		t.Errorf("AverageRating = %d, want 4", avg)
	}
}

func TestEnrollmentRepository_SetSemantics(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := seedCourse(t, s, "edu_1", true)
	now := time.Now()

	created, err := s.Enrollments.Enroll(ctx, "u1", c.ID, now)
	if err != nil || !created {
		t.Fatalf("first Enroll: created=%v err=%v", created, err)
	}
	created, err = s.Enrollments.Enroll(ctx, "u1", c.ID, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second Enroll: %v", err)
	}
	if created {
		t.Error("second Enroll must be a no-op")
	}

	courses, err := s.Enrollments.EnrolledCourseIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("EnrolledCourseIDs: %v", err)
	}
	if len(courses) != 1 || courses[0] != c.ID {
		t.Errorf("unexpected enrolled courses: %v", courses)
	}

	students, err := s.Enrollments.EnrolledStudentIDs(ctx, c.ID)
	if err != nil {
		t.Fatalf("EnrolledStudentIDs: %v", err)
	}
	if len(students) != 1 || students[0] != "u1" {
		t.Errorf("unexpected enrolled students: %v", students)
	}

	ok, err := s.Enrollments.IsEnrolled(ctx, "u2", c.ID)
	if err != nil || ok {
		t.Errorf("u2 must not be enrolled: ok=%v err=%v", ok, err)
	}
}

func TestEnrollmentRepository_StudentIDsByCourses(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := seedCourse(t, s, "edu_1", true)
	b := seedCourse(t, s, "edu_1", true)
	now := time.Now()

	for i, userID := range []string{"u1", "u2"} {
		if _, err := s.Enrollments.Enroll(ctx, userID, a.ID, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Enroll: %v", err)
		}
	}

	got, err := s.Enrollments.StudentIDsByCourses(ctx, []uuid.UUID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("StudentIDsByCourses: %v", err)
	}
	if ids := got[a.ID]; len(ids) != 2 || ids[0] != "u1" || ids[1] != "u2" {
		t.Errorf("course a students = %v", ids)
	}
	if ids, ok := got[b.ID]; !ok || ids == nil || len(ids) != 0 {
		t.Errorf("course b must map to an empty set, got %v (present=%v)", ids, ok)
	}
}

func TestPurchaseRepository_TransitionsOnlyFromPending(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := seedCourse(t, s, "edu_1", true)

	p := &domain.Purchase{UserID: "u1", CourseID: c.ID, AmountCents: c.NetAmountCents(), Currency: "usd", Status: domain.PurchasePending}
	if err := s.Purchases.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := s.Purchases.MarkCompleted(ctx, p.ID, "cs_1", "pi_1", time.Now())
	if err != nil || !ok {
		t.Fatalf("MarkCompleted: ok=%v err=%v", ok, err)
	}

	ok, err = s.Purchases.MarkCompleted(ctx, p.ID, "cs_1", "pi_1", time.Now())
	if err != nil {
		t.Fatalf("MarkCompleted replay: %v", err)
	}
	if ok {
		t.Error("replayed completion must not apply")
	}

	ok, err = s.Purchases.MarkFailed(ctx, p.ID, "", time.Now())
	if err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if ok {
		t.Error("completed purchase must not become failed")
	}

	got, err := s.Purchases.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.PurchaseCompleted || got.CompletedAt == nil || got.PaymentIntentID != "pi_1" {
		t.Errorf("unexpected purchase: %+v", got)
	}

	total, err := s.Purchases.SumCompletedByCourses(ctx, []uuid.UUID{c.ID})
	if err != nil {
		t.Fatalf("SumCompletedByCourses: %v", err)
	}
	if total != 4499 {
		t.Errorf("total = %d, want 4499", total)
	}

	byIntent, err := s.Purchases.FindByPaymentIntent(ctx, "pi_1")
	if err != nil || byIntent.ID != p.ID {
		t.Errorf("FindByPaymentIntent: %v %v", byIntent, err)
	}

	if _, err := s.Purchases.GetByID(ctx, uuid.New()); !errors.Is(err, domain.ErrPurchaseNotFound) {
		t.Errorf("expected ErrPurchaseNotFound, got %v", err)
	}
}

func TestProgressRepository_TouchAndCompletedSet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := seedCourse(t, s, "edu_1", true)

	first, err := s.Progress.Touch(ctx, "u1", c.ID, time.Now())
	if err != nil {
		t.Fatalf("Touch: %v", err)
	}
	second, err := s.Progress.Touch(ctx, "u1", c.ID, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Touch again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected a single progress record, got %s and %s", first.ID, second.ID)
	}

	added, err := s.Progress.AddCompletedLecture(ctx, "u1", c.ID, "l1", time.Now())
	if err != nil || !added {
		t.Fatalf("AddCompletedLecture: added=%v err=%v", added, err)
	}
	added, err = s.Progress.AddCompletedLecture(ctx, "u1", c.ID, "l1", time.Now())
	if err != nil {
		t.Fatalf("AddCompletedLecture replay: %v", err)
	}
	if added {
		t.Error("lecture must only be added once")
	}

	p, err := s.Progress.Get(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(p.LectureCompleted) != 1 || p.LectureCompleted[0] != "l1" {
		t.Errorf("unexpected completed set: %v", p.LectureCompleted)
	}

	counts, err := s.Progress.CountCompletedByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("CountCompletedByUser: %v", err)
	}
	if counts[c.ID] != 1 {
		t.Errorf("count = %d, want 1", counts[c.ID])
	}

	if _, err := s.Progress.Get(ctx, "u2", c.ID); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Errorf("expected ErrProgressNotFound, got %v", err)
	}
}

func TestStore_TransactionRollsBack(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	c := seedCourse(t, s, "edu_1", true)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Enrollments.Enroll(ctx, "u1", c.ID, time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	ok, err := s.Enrollments.IsEnrolled(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("IsEnrolled: %v", err)
	}
	if ok {
		t.Error("enrollment must be rolled back")
	}
}

func TestUserRepository_FirstOrCreateAndProfile(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u, err := s.Users.FirstOrCreate(ctx, &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("FirstOrCreate: %v", err)
	}
	if u.Role != domain.RoleStudent || u.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", u)
	}

	again, err := s.Users.FirstOrCreate(ctx, &domain.User{ID: "u1", Name: "Other"})
	if err != nil {
		t.Fatalf("FirstOrCreate again: %v", err)
	}
	if again.Name != "Ada" {
		t.Errorf("existing user must not be overwritten, got %q", again.Name)
	}

	if err := s.Users.CompleteProfile(ctx, "u1", "Ada L.", "", time.Now()); err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if err := s.Users.SetRole(ctx, "u1", domain.RoleEducator); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	got, err := s.Users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsProfileComplete || got.Name != "Ada L." || !got.IsEducator() {
		t.Errorf("unexpected user after updates: %+v", got)
	}

	if err := s.Users.SetRole(ctx, "missing", domain.RoleEducator); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
