package grpc_server

import (
	"context"
	"log"
	"time"

	"coursehub/internal/application/usecase"
	"coursehub/internal/domain"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "coursehub.enrollment.v1.EnrollmentService"

const (
	MethodCheckAccess       = "/" + ServiceName + "/CheckAccess"
	MethodGetCourseProgress = "/" + ServiceName + "/GetCourseProgress"
)

// EnrollmentServer lets internal services ask whether a user may watch a
// course and how far they got. Requests are Structs with user_id and course_id.
type EnrollmentServer struct {
	student *usecase.StudentUseCase
}

func NewEnrollmentServer(student *usecase.StudentUseCase) *EnrollmentServer {
	return &EnrollmentServer{student: student}
}

func (s *EnrollmentServer) CheckAccess(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	userID, courseID, err := parseRequest(req)
	if err != nil {
		return nil, err
	}

	ok, err := s.student.HasAccess(ctx, userID, courseID)
	if err != nil {
		log.Printf("grpc CheckAccess user=%s course=%s: %v", userID, courseID, err)
		return nil, status.Error(codes.Internal, "database error")
	}
	return wrapperspb.Bool(ok), nil
}

func (s *EnrollmentServer) GetCourseProgress(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, courseID, err := parseRequest(req)
	if err != nil {
		return nil, err
	}

	p, err := s.student.GetProgress(ctx, userID, courseID)
	if err != nil {
		log.Printf("grpc GetCourseProgress user=%s course=%s: %v", userID, courseID, err)
		return nil, status.Error(codes.Internal, "database error")
	}
	if p == nil {
		return nil, status.Error(codes.NotFound, "no progress recorded")
	}
	return progressStruct(p)
}

func parseRequest(req *structpb.Struct) (string, uuid.UUID, error) {
	fields := req.GetFields()
	userID := fields["user_id"].GetStringValue()
	if userID == "" {
		return "", uuid.Nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	courseID, err := uuid.Parse(fields["course_id"].GetStringValue())
	if err != nil {
		return "", uuid.Nil, status.Error(codes.InvalidArgument, "invalid course id")
	}
	return userID, courseID, nil
}

func progressStruct(p *domain.CourseProgress) (*structpb.Struct, error) {
	lectures := make([]interface{}, len(p.LectureCompleted))
	for i, id := range p.LectureCompleted {
		lectures[i] = id
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"user_id":           p.UserID,
		"course_id":         p.CourseID.String(),
		"completed":         p.Completed,
		"lecture_completed": lectures,
		"last_accessed_at":  p.LastAccessedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// There is no generated stub for this service; the descriptor is declared
// here against well-known message types.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*enrollmentService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckAccess", Handler: checkAccessHandler},
		{MethodName: "GetCourseProgress", Handler: getCourseProgressHandler},
	},
	Streams: []grpc.StreamDesc{},
}

type enrollmentService interface {
	CheckAccess(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	GetCourseProgress(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func Register(s *grpc.Server, srv *EnrollmentServer) {
	s.RegisterService(&serviceDesc, srv)
}

func checkAccessHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(enrollmentService).CheckAccess(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCheckAccess}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(enrollmentService).CheckAccess(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getCourseProgressHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(enrollmentService).GetCourseProgress(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetCourseProgress}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(enrollmentService).GetCourseProgress(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
