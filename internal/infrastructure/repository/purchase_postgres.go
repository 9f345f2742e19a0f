package repository

import (
	"context"
	"errors"
	"time"

	"coursehub/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	var p domain.Purchase
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Purchase, error) {
	var p domain.Purchase
	err := r.db.WithContext(ctx).First(&p, "payment_intent_id = ?", paymentIntentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepository) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("id = ?", id).
		Update("checkout_session_id", sessionID).Error
}

// MarkCompleted moves a pending purchase to completed. It returns false when
// the purchase was no longer pending.
func (r *PurchaseRepository) MarkCompleted(ctx context.Context, id uuid.UUID, sessionID, paymentIntentID string, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":       domain.PurchaseCompleted,
		"completed_at": at,
	}
	if sessionID != "" {
		updates["checkout_session_id"] = sessionID
	}
	if paymentIntentID != "" {
		updates["payment_intent_id"] = paymentIntentID
	}
	return r.transition(ctx, id, updates)
}

// MarkFailed moves a pending purchase to failed. It returns false when the
// purchase was no longer pending.
func (r *PurchaseRepository) MarkFailed(ctx context.Context, id uuid.UUID, paymentIntentID string, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":    domain.PurchaseFailed,
		"failed_at": at,
	}
	if paymentIntentID != "" {
		updates["payment_intent_id"] = paymentIntentID
	}
	return r.transition(ctx, id, updates)
}

func (r *PurchaseRepository) transition(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("id = ? AND status = ?", id, domain.PurchasePending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PurchaseRepository) ListCompletedByCourses(ctx context.Context, courseIDs []uuid.UUID) ([]domain.Purchase, error) {
	var out []domain.Purchase
	if len(courseIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("course_id IN ? AND status = ?", courseIDs, domain.PurchaseCompleted).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// SumCompletedByCourses totals completed purchase amounts in cents.
func (r *PurchaseRepository) SumCompletedByCourses(ctx context.Context, courseIDs []uuid.UUID) (int64, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("course_id IN ? AND status = ?", courseIDs, domain.PurchaseCompleted).
		Scan(&total).Error
	return total, err
}

func (r *PurchaseRepository) DeleteByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&domain.Purchase{})
	return res.RowsAffected, res.Error
}
