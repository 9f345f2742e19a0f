package usecase

import (
	"context"
	"io"
	"log"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/payment"
	"coursehub/internal/infrastructure/repository"

	"github.com/google/uuid"
)

// Identity is the authenticated caller as described by the session token.
type Identity struct {
	UserID   string
	Name     string
	Email    string
	ImageURL string
}

type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
}

type ImageUploader interface {
	Upload(ctx context.Context, file io.Reader) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload any) error
}

// ensureUser returns the stored user, creating it on first API contact.
func ensureUser(ctx context.Context, store *repository.Store, id Identity) (*domain.User, error) {
	name := id.Name
	if name == "" {
		name = domain.DefaultUserName
	}
	return store.Users.FirstOrCreate(ctx, &domain.User{
		ID:       id.UserID,
		Name:     name,
		Email:    id.Email,
		ImageURL: id.ImageURL,
	})
}

// withEnrolledStudents fills each course's enrolled-student set with one query.
func withEnrolledStudents(ctx context.Context, store *repository.Store, courses []domain.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
	}
	students, err := store.Enrollments.StudentIDsByCourses(ctx, ids)
	if err != nil {
		return err
	}
	for i := range courses {
		courses[i].EnrolledStudents = students[courses[i].ID]
	}
	return nil
}

func publish(ctx context.Context, events EventPublisher, eventType, correlationID string, payload any) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, eventType, correlationID, payload); err != nil {
		log.Printf("publish %s: %v", eventType, err)
	}
}
