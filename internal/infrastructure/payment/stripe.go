package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"coursehub/internal/domain"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// Metadata keys carried on checkout sessions and their payment intents.
const (
	MetaPurchaseID = "purchaseId"
	MetaUserID     = "userId"
	MetaCourseID   = "courseId"
)

// Event types the reconciler reacts to.
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncFailed    = "checkout.session.async_payment_failed"
	EventCheckoutExpired        = "checkout.session.expired"
	EventIntentSucceeded        = "payment_intent.succeeded"
	EventIntentFailed           = "payment_intent.payment_failed"
)

type CheckoutRequest struct {
	PurchaseID  string
	UserID      string
	CourseID    string
	CourseTitle string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Gateway creates hosted checkout sessions.
type Gateway struct {
	sc *client.API
}

func NewGateway(secretKey string) *Gateway {
	return &Gateway{sc: client.New(secretKey, nil)}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	meta := map[string]string{
		MetaPurchaseID: req.PurchaseID,
		MetaUserID:     req.UserID,
		MetaCourseID:   req.CourseID,
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.PurchaseID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.CourseTitle),
				},
				UnitAmount: stripe.Int64(req.AmountCents),
			},
			Quantity: stripe.Int64(1),
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: meta,
		},
	}
	params.Context = ctx
	for k, v := range meta {
		params.AddMetadata(k, v)
	}

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// Event is a verified provider event reduced to what reconciliation needs.
type Event struct {
	ID                string
	Type              string
	PurchaseID        string
	UserID            string
	CourseID          string
	CheckoutSessionID string
	PaymentIntentID   string
	// Paid is false for a completed checkout whose payment is still pending.
	Paid   bool
	Reason string
}

// EventVerifier checks the provider signature before decoding anything.
type EventVerifier struct {
	secret string
}

func NewEventVerifier(secret string) *EventVerifier {
	return &EventVerifier{secret: secret}
}

func (v *EventVerifier) Verify(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncSucceeded, EventCheckoutAsyncFailed, EventCheckoutExpired:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			// Redelivery cannot fix a malformed object; acknowledge it without metadata.
			log.Printf("stripe event %s: decode checkout session: %v", evt.ID, err)
			return out, nil
		}
		out.CheckoutSessionID = s.ID
		if s.PaymentIntent != nil {
			out.PaymentIntentID = s.PaymentIntent.ID
		}
		out.Paid = s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
		out.Reason = string(s.Status)
		applyMetadata(out, s.Metadata)

	case EventIntentSucceeded, EventIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			log.Printf("stripe event %s: decode payment intent: %v", evt.ID, err)
			return out, nil
		}
		out.PaymentIntentID = pi.ID
		out.Paid = pi.Status == stripe.PaymentIntentStatusSucceeded
		if pi.LastPaymentError != nil {
			out.Reason = pi.LastPaymentError.Msg
		}
		applyMetadata(out, pi.Metadata)
	}
	return out, nil
}

func applyMetadata(e *Event, meta map[string]string) {
	e.PurchaseID = meta[MetaPurchaseID]
	e.UserID = meta[MetaUserID]
	e.CourseID = meta[MetaCourseID]
}
