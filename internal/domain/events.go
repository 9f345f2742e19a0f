package domain

import (
	"encoding/json"
	"time"
)

const (
	EventEnrollmentCompleted = "EnrollmentCompleted"
	EventPurchaseFailed      = "PurchaseFailed"
	EventCourseDeleted       = "CourseDeleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // course id
	Payload       json.RawMessage `json:"payload"`
}

type EnrollmentCompletedPayload struct {
	PurchaseID  string `json:"purchase_id"`
	UserID      string `json:"user_id"`
	CourseID    string `json:"course_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type PurchaseFailedPayload struct {
	PurchaseID string `json:"purchase_id"`
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	Reason     string `json:"reason"`
}

type CourseDeletedPayload struct {
	CourseID   string `json:"course_id"`
	EducatorID string `json:"educator_id"`
	Purchases  int64  `json:"purchases"`
	Progress   int64  `json:"progress"`
}
