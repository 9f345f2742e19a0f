package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
)

// A purchase leaves pending exactly once and is never reopened.
var validNext = map[PurchaseStatus]map[PurchaseStatus]bool{
	PurchasePending:   {PurchaseCompleted: true, PurchaseFailed: true},
	PurchaseCompleted: {},
	PurchaseFailed:    {},
}

func CanTransition(from, to PurchaseStatus) bool {
	return validNext[from][to]
}

type Purchase struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string         `gorm:"index;not null" json:"userId"`
	CourseID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"courseId"`
	AmountCents       int64          `gorm:"not null" json:"amountCents"`
	Currency          string         `gorm:"size:10;not null;default:'usd'" json:"currency"`
	Status            PurchaseStatus `gorm:"size:20;index;not null;default:'pending'" json:"status"`
	PaymentIntentID   string         `gorm:"index" json:"paymentIntentId,omitempty"`
	CheckoutSessionID string         `gorm:"index" json:"checkoutSessionId,omitempty"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
	FailedAt          *time.Time     `json:"failedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Amount returns the net amount in major currency units.
func (p *Purchase) Amount() float64 {
	return float64(p.AmountCents) / 100
}
