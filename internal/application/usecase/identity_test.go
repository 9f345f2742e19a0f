package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coursehub/internal/domain"
)

func identityEvent(t *testing.T, typ string, data any) IdentityEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return IdentityEvent{Type: typ, Data: raw}
}

func clerkUser(id, first, last, email string) map[string]any {
	return map[string]any{
		"id":              id,
		"first_name":      first,
		"last_name":       last,
		"image_url":       "https://img/" + id,
		"email_addresses": []map[string]string{{"email_address": email}},
	}
}

func TestIdentitySync_Lifecycle(t *testing.T) {
	f := newFixture(t)
	uc := NewIdentitySyncUseCase(f.store)
	ctx := context.Background()

	if err := uc.Handle(ctx, identityEvent(t, "user.created", clerkUser("user_1", "Ada", "Lovelace", "ada@example.com"))); err != nil {
		t.Fatalf("user.created: %v", err)
	}
	u, err := f.store.Users.GetByID(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Name != "Ada Lovelace" || u.Email != "ada@example.com" || u.ImageURL != "https://img/user_1" {
		t.Errorf("unexpected user: %+v", u)
	}

	// Redelivered creation keeps a single row.
	if err := uc.Handle(ctx, identityEvent(t, "user.created", clerkUser("user_1", "Ada", "Lovelace", "ada@example.com"))); err != nil {
		t.Fatalf("user.created replay: %v", err)
	}

	if err := uc.Handle(ctx, identityEvent(t, "user.updated", clerkUser("user_1", "Ada", "King", "ada@king.example"))); err != nil {
		t.Fatalf("user.updated: %v", err)
	}
	u, _ = f.store.Users.GetByID(ctx, "user_1")
	if u.Name != "Ada King" || u.Email != "ada@king.example" {
		t.Errorf("update not applied: %+v", u)
	}

	c := f.course(t, "edu_1")
	f.enroll(t, "user_1", c)
	f.pendingPurchase(t, "user_1", c)
	if _, err := f.store.Progress.Touch(ctx, "user_1", c.ID, time.Now()); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	if err := uc.Handle(ctx, identityEvent(t, "user.deleted", map[string]any{"id": "user_1", "deleted": true})); err != nil {
		t.Fatalf("user.deleted: %v", err)
	}
	if _, err := f.store.Users.GetByID(ctx, "user_1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("user still present: %v", err)
	}
	assertEnrolled(t, f, "user_1", c.ID, false)

	var purchases int64
	f.db.Model(&domain.Purchase{}).Where("user_id = ?", "user_1").Count(&purchases)
	if purchases != 1 {
		t.Errorf("purchases must be kept, got %d", purchases)
	}
}

func TestIdentitySync_UnknownTypeAcknowledged(t *testing.T) {
	f := newFixture(t)
	uc := NewIdentitySyncUseCase(f.store)

	if err := uc.Handle(context.Background(), identityEvent(t, "session.created", map[string]any{"id": "sess_1"})); err != nil {
		t.Errorf("unknown type must be acknowledged, got %v", err)
	}
	if err := uc.Handle(context.Background(), IdentityEvent{Type: "user.created", Data: json.RawMessage(`{"id":`)}); !domain.IsValidation(err) {
		t.Errorf("expected validation error for malformed data, got %v", err)
	}
}
