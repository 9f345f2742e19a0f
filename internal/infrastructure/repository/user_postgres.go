package repository

import (
	"context"
	"errors"
	"time"

	"coursehub/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Upsert creates the user or refreshes its identity fields.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "image_url", "updated_at"}),
		}).
		Create(user).Error
}

// FirstOrCreate returns the stored user, creating it from the given one when
// missing.
func (r *UserRepository) FirstOrCreate(ctx context.Context, user *domain.User) (*domain.User, error) {
	var stored domain.User
	err := r.db.WithContext(ctx).
		Where(domain.User{ID: user.ID}).
		Attrs(domain.User{
			Name:     user.Name,
			Email:    user.Email,
			ImageURL: user.ImageURL,
			Role:     domain.RoleStudent,
		}).
		FirstOrCreate(&stored).Error
	return &stored, err
}

func (r *UserRepository) UpdateIdentity(ctx context.Context, id, name, email, imageURL string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":      name,
			"email":     email,
			"image_url": imageURL,
		})
	return res.RowsAffected, res.Error
}

func (r *UserRepository) SetRole(ctx context.Context, id, role string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CompleteProfile(ctx context.Context, id, name, imageURL string, at time.Time) error {
	updates := map[string]interface{}{
		"name":                 name,
		"is_profile_complete":  true,
		"profile_completed_at": at,
	}
	if imageURL != "" {
		updates["image_url"] = imageURL
	}
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	var users []domain.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
