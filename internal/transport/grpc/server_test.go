package grpc_server

import (
	"context"
	"net"
	"testing"
	"time"

	"coursehub/internal/application/usecase"
	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/repository"
	"coursehub/internal/testutil"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func startServer(t *testing.T) (*grpc.ClientConn, *repository.Store) {
	t.Helper()
	store := repository.NewStore(testutil.OpenDB(t), nil)

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	Register(s, NewEnrollmentServer(usecase.NewStudentUseCase(store, nil, "usd")))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, store
}

func request(t *testing.T, userID, courseID string) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(map[string]interface{}{"user_id": userID, "course_id": courseID})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return req
}

func seed(t *testing.T, store *repository.Store) *domain.Course {
	t.Helper()
	c := &domain.Course{
		EducatorID:   "edu_1",
		Title:        "Distributed Systems",
		Description:  "Consensus and replication",
		ThumbnailURL: "https://img.example.com/ds.png",
		PriceCents:   5000,
		IsPublished:  true,
		Content: []domain.Chapter{{ChapterID: "c1", ChapterOrder: 1, ChapterTitle: "Raft", Lectures: []domain.Lecture{
			{LectureID: "l1", LectureTitle: "Leader election", LectureURL: "https://v/l1", LectureOrder: 1},
			{LectureID: "l2", LectureTitle: "Log replication", LectureURL: "https://v/l2", LectureOrder: 2},
		}}},
	}
	if err := store.Courses.Create(context.Background(), c); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}

func TestCheckAccess(t *testing.T) {
	conn, store := startServer(t)
	c := seed(t, store)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := new(wrapperspb.BoolValue)
	if err := conn.Invoke(ctx, MethodCheckAccess, request(t, "user_1", c.ID.String()), out); err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if out.GetValue() {
		t.Error("expected no access before enrollment")
	}

	if _, err := store.Enrollments.Enroll(ctx, "user_1", c.ID, time.Now()); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if err := conn.Invoke(ctx, MethodCheckAccess, request(t, "user_1", c.ID.String()), out); err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if !out.GetValue() {
		t.Error("expected access after enrollment")
	}
}

func TestCheckAccessRejectsBadRequest(t *testing.T) {
	conn, _ := startServer(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   string
		courseID string
	}{
		{"missing user", "", "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
		{"bad course id", "user_1", "not-a-uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := conn.Invoke(ctx, MethodCheckAccess, request(t, tt.userID, tt.courseID), new(wrapperspb.BoolValue))
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestGetCourseProgress(t *testing.T) {
	conn, store := startServer(t)
	c := seed(t, store)
	ctx := context.Background()

	out := new(structpb.Struct)
	err := conn.Invoke(ctx, MethodGetCourseProgress, request(t, "user_1", c.ID.String()), out)
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound before any progress, got %v", err)
	}

	student := usecase.NewStudentUseCase(store, nil, "usd")
	if _, err := store.Enrollments.Enroll(ctx, "user_1", c.ID, time.Now()); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := student.UpdateProgress(ctx, "user_1", c.ID, "l1"); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	if err := conn.Invoke(ctx, MethodGetCourseProgress, request(t, "user_1", c.ID.String()), out); err != nil {
		t.Fatalf("GetCourseProgress: %v", err)
	}
	fields := out.GetFields()
	if fields["completed"].GetBoolValue() {
		t.Error("course must not be completed after one of two lectures")
	}
	done := fields["lecture_completed"].GetListValue().GetValues()
	if len(done) != 1 || done[0].GetStringValue() != "l1" {
		t.Errorf("lecture_completed = %v", done)
	}
}
