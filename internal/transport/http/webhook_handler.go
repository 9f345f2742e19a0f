package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"coursehub/internal/application/usecase"
	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/payment"
	"coursehub/internal/infrastructure/security"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 16

type WebhookHandler struct {
	payments   *payment.EventVerifier
	reconciler *usecase.Reconciler
	identities *security.WebhookVerifier
	sync       *usecase.IdentitySyncUseCase
	errorMapper
}

func NewWebhookHandler(
	pv *payment.EventVerifier,
	r *usecase.Reconciler,
	iv *security.WebhookVerifier,
	s *usecase.IdentitySyncUseCase,
	exposeErrors bool,
) *WebhookHandler {
	return &WebhookHandler{
		payments:    pv,
		reconciler:  r,
		identities:  iv,
		sync:        s,
		errorMapper: errorMapper{exposeInternal: exposeErrors},
	}
}

// POST /stripe
// The signature covers the raw body, so it is read before any decoding.
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Could not read request body")
		return
	}

	evt, err := h.payments.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.fail(c, err)
		return
	}

	outcome, err := h.reconciler.Handle(c.Request.Context(), evt)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

// POST /clerk
func (h *WebhookHandler) Clerk(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Could not read request body")
		return
	}

	if err := h.identities.Verify(payload, c.Request.Header); err != nil {
		h.fail(c, err)
		return
	}

	var evt usecase.IdentityEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		h.fail(c, domain.NewValidationError("Invalid webhook payload"))
		return
	}

	if err := h.sync.Handle(c.Request.Context(), evt); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}
