package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/cache"
	"coursehub/internal/infrastructure/payment"
	"coursehub/internal/infrastructure/repository"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeAlreadyApplied Outcome = "already_applied"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeIgnored        Outcome = "ignored"
)

const providerStripe = "stripe"

type action int

const (
	actionNone action = iota
	actionComplete
	actionFail
)

// Only these event types move a purchase; everything else is acknowledged.
// A declined payment intent is not here: the checkout session stays open and
// the customer may retry, so only session events fail a purchase.
var eventActions = map[string]action{
	payment.EventCheckoutCompleted:      actionComplete,
	payment.EventCheckoutAsyncSucceeded: actionComplete,
	payment.EventIntentSucceeded:        actionComplete,
	payment.EventCheckoutAsyncFailed:    actionFail,
	payment.EventCheckoutExpired:        actionFail,
}

// Reconciler applies verified payment events to purchases. Every event
// is safe to deliver more than once.
type Reconciler struct {
	store  *repository.Store
	dedup  *cache.EventDedup
	events EventPublisher
	now    func() time.Time
}

func NewReconciler(store *repository.Store, dedup *cache.EventDedup, events EventPublisher) *Reconciler {
	return &Reconciler{
		store:  store,
		dedup:  dedup,
		events: events,
		now:    time.Now,
	}
}

// Handle returns an error only when the event must be redelivered.
func (r *Reconciler) Handle(ctx context.Context, evt *payment.Event) (Outcome, error) {
	if evt.Type == payment.EventIntentFailed {
		log.Printf("payment event %s: attempt on %s declined (%s), purchase %s stays pending", evt.ID, evt.PaymentIntentID, evt.Reason, evt.PurchaseID)
		return OutcomeIgnored, nil
	}
	act := eventActions[evt.Type]
	if act == actionNone {
		log.Printf("payment event %s type=%s ignored", evt.ID, evt.Type)
		return OutcomeIgnored, nil
	}
	// A checkout can complete before a delayed payment method settles.
	if evt.Type == payment.EventCheckoutCompleted && !evt.Paid {
		log.Printf("payment event %s: checkout %s awaiting payment", evt.ID, evt.CheckoutSessionID)
		return OutcomeIgnored, nil
	}

	seen, err := r.dedup.Seen(ctx, providerStripe, evt.ID)
	if err != nil {
		log.Printf("webhook dedup lookup failed: %v", err)
	}
	if seen {
		return OutcomeAlreadyApplied, nil
	}

	var outcome Outcome
	switch act {
	case actionComplete:
		outcome, err = r.complete(ctx, evt)
	case actionFail:
		outcome, err = r.fail(ctx, evt)
	}
	if err != nil {
		return "", err
	}

	if outcome != OutcomeNotFound {
		if err := r.dedup.Remember(ctx, providerStripe, evt.ID); err != nil {
			log.Printf("webhook dedup write failed: %v", err)
		}
	}
	log.Printf("payment event %s type=%s purchase=%s outcome=%s", evt.ID, evt.Type, evt.PurchaseID, outcome)
	return outcome, nil
}

func (r *Reconciler) complete(ctx context.Context, evt *payment.Event) (Outcome, error) {
	var (
		outcome  Outcome
		purchase *domain.Purchase
	)
	now := r.now()

	err := r.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := r.lookup(ctx, tx, evt)
		if err != nil {
			return err
		}
		if p == nil {
			outcome = OutcomeNotFound
			return nil
		}
		purchase = p

		switch p.Status {
		case domain.PurchaseCompleted:
			outcome = OutcomeAlreadyApplied
			return nil
		case domain.PurchaseFailed:
			log.Printf("purchase %s already failed, completion from %s not applied", p.ID, evt.ID)
			outcome = OutcomeIgnored
			return nil
		}
		if !domain.CanTransition(p.Status, domain.PurchaseCompleted) {
			return domain.ErrInvalidTransition
		}

		moved, err := tx.Purchases.MarkCompleted(ctx, p.ID, evt.CheckoutSessionID, evt.PaymentIntentID, now)
		if err != nil {
			return err
		}
		if !moved {
			// Another delivery settled it first.
			outcome = OutcomeAlreadyApplied
			return nil
		}
		if _, err := tx.Enrollments.Enroll(ctx, p.UserID, p.CourseID, now); err != nil {
			return err
		}
		outcome = OutcomeApplied
		return nil
	})
	if err != nil {
		return "", err
	}

	if outcome == OutcomeApplied {
		publish(ctx, r.events, domain.EventEnrollmentCompleted, purchase.CourseID.String(), domain.EnrollmentCompletedPayload{
			PurchaseID:  purchase.ID.String(),
			UserID:      purchase.UserID,
			CourseID:    purchase.CourseID.String(),
			AmountCents: purchase.AmountCents,
			Currency:    purchase.Currency,
		})
	}
	return outcome, nil
}

func (r *Reconciler) fail(ctx context.Context, evt *payment.Event) (Outcome, error) {
	p, err := r.lookup(ctx, r.store, evt)
	if err != nil {
		return "", err
	}
	if p == nil {
		return OutcomeNotFound, nil
	}
	switch p.Status {
	case domain.PurchaseFailed:
		return OutcomeAlreadyApplied, nil
	case domain.PurchaseCompleted:
		log.Printf("purchase %s already completed, failure from %s not applied", p.ID, evt.ID)
		return OutcomeIgnored, nil
	}
	if !domain.CanTransition(p.Status, domain.PurchaseFailed) {
		return "", domain.ErrInvalidTransition
	}

	moved, err := r.store.Purchases.MarkFailed(ctx, p.ID, evt.PaymentIntentID, r.now())
	if err != nil {
		return "", err
	}
	if !moved {
		return OutcomeAlreadyApplied, nil
	}

	publish(ctx, r.events, domain.EventPurchaseFailed, p.CourseID.String(), domain.PurchaseFailedPayload{
		PurchaseID: p.ID.String(),
		UserID:     p.UserID,
		CourseID:   p.CourseID.String(),
		Reason:     evt.Reason,
	})
	return OutcomeApplied, nil
}

// lookup finds the purchase named by the event. A nil purchase with a nil
// error means the event does not match anything stored.
func (r *Reconciler) lookup(ctx context.Context, s *repository.Store, evt *payment.Event) (*domain.Purchase, error) {
	var (
		p   *domain.Purchase
		err error
	)
	if id, perr := uuid.Parse(evt.PurchaseID); perr == nil {
		p, err = s.Purchases.GetByID(ctx, id)
	} else if evt.PaymentIntentID != "" {
		p, err = s.Purchases.FindByPaymentIntent(ctx, evt.PaymentIntentID)
	} else {
		log.Printf("payment event %s carries no purchase reference", evt.ID)
		return nil, nil
	}

	if errors.Is(err, domain.ErrPurchaseNotFound) {
		log.Printf("payment event %s: purchase %q not found", evt.ID, evt.PurchaseID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if (evt.UserID != "" && evt.UserID != p.UserID) || (evt.CourseID != "" && evt.CourseID != p.CourseID.String()) {
		log.Printf("payment event %s: metadata does not match purchase %s", evt.ID, p.ID)
		return nil, nil
	}
	return p, nil
}
