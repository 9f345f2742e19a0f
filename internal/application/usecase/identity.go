package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"coursehub/internal/domain"
	"coursehub/internal/infrastructure/repository"
)

const (
	identityUserCreated = "user.created"
	identityUserUpdated = "user.updated"
	identityUserDeleted = "user.deleted"
)

// IdentityEvent is a user lifecycle event from the identity provider.
type IdentityEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type identityUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (u identityUser) name() string {
	n := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if n == "" {
		return domain.DefaultUserName
	}
	return n
}

func (u identityUser) email() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return u.EmailAddresses[0].EmailAddress
}

type IdentitySyncUseCase struct {
	store *repository.Store
}

func NewIdentitySyncUseCase(store *repository.Store) *IdentitySyncUseCase {
	return &IdentitySyncUseCase{store: store}
}

func (uc *IdentitySyncUseCase) Handle(ctx context.Context, evt IdentityEvent) error {
	var u identityUser
	if len(evt.Data) > 0 {
		if err := json.Unmarshal(evt.Data, &u); err != nil {
			return domain.NewValidationError(fmt.Sprintf("invalid %s payload", evt.Type))
		}
	}

	switch evt.Type {
	case identityUserCreated:
		if u.ID == "" {
			return domain.NewValidationError("user id is required")
		}
		err := uc.store.Users.Upsert(ctx, &domain.User{
			ID:       u.ID,
			Name:     u.name(),
			Email:    u.email(),
			ImageURL: u.ImageURL,
			Role:     domain.RoleStudent,
		})
		if err != nil {
			return err
		}
		log.Printf("identity sync: user %s created", u.ID)

	case identityUserUpdated:
		n, err := uc.store.Users.UpdateIdentity(ctx, u.ID, u.name(), u.email(), u.ImageURL)
		if err != nil {
			return err
		}
		log.Printf("identity sync: user %s updated (%d rows)", u.ID, n)

	case identityUserDeleted:
		if err := uc.deleteUser(ctx, u.ID); err != nil {
			return err
		}
		log.Printf("identity sync: user %s deleted", u.ID)

	default:
		log.Printf("identity sync: unhandled event type %q", evt.Type)
	}
	return nil
}

// deleteUser removes the user with its enrollments, progress and ratings.
// Purchases stay for the educators' earnings history.
func (uc *IdentitySyncUseCase) deleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return uc.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Enrollments.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.Progress.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.Courses.DeleteRatingsByUser(ctx, userID); err != nil {
			return err
		}
		_, err := tx.Users.Delete(ctx, userID)
		return err
	})
}
