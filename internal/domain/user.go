package domain

import "time"

const (
	RoleStudent  = "student"
	RoleEducator = "educator"

	DefaultUserName = "Anonymous User"
)

// User.ID is the identity provider's user id.
type User struct {
	ID                 string     `gorm:"primaryKey" json:"_id"`
	Name               string     `gorm:"not null;default:'Anonymous User'" json:"name"`
	Email              string     `gorm:"index" json:"email"`
	ImageURL           string     `json:"imageUrl"`
	Role               string     `gorm:"not null;default:'student'" json:"role"`
	IsProfileComplete  bool       `gorm:"default:false" json:"isProfileComplete"`
	ProfileCompletedAt *time.Time `json:"profileCompletedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) IsEducator() bool {
	return u.Role == RoleEducator
}
