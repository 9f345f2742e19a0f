package security

import (
	"fmt"
	"net/http"

	"coursehub/internal/domain"

	svix "github.com/svix/svix-webhooks/go"
)

// WebhookVerifier checks svix signatures on identity-provider webhooks.
type WebhookVerifier struct {
	wh *svix.Webhook
}

func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("identity webhook secret: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

func (v *WebhookVerifier) Verify(payload []byte, headers http.Header) error {
	if err := v.wh.Verify(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return nil
}
