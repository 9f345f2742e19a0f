package domain

import "errors"

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrLectureNotFound  = errors.New("lecture not found in course")
	ErrProgressNotFound = errors.New("progress not found")

	ErrNotCourseOwner   = errors.New("only the course educator can manage this course")
	ErrEducatorRequired = errors.New("educator role required")
	ErrNotEnrolled      = errors.New("user is not enrolled in this course")
	ErrAlreadyEnrolled  = errors.New("user is already enrolled in this course")
	ErrCourseNotForSale = errors.New("course is not published")

	ErrUploadUnavailable = errors.New("image upload is not configured")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrInvalidTransition = errors.New("invalid purchase status transition")
)

// ValidationError carries a message that is safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
