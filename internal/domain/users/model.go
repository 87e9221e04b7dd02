package users

import "time"

const (
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
	RoleStudent    = "student"
)

type User struct {
	ID       uint    `gorm:"primaryKey"`
	Name     string  `gorm:"size:150"`
	Email    string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Password *string `gorm:"" json:"-"`
	Role     string  `gorm:"type:varchar(20);not null;default:'instructor'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func IsKnownRole(role string) bool {
	switch role {
	case RoleInstructor, RoleAdmin, RoleStudent:
		return true
	}
	return false
}
