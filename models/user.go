package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents any actor in the system (customer, tailor, delivery partner or admin)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string         `json:"phone"`
	Role      string         `gorm:"not null;default:'customer'" json:"role"` // "customer", "tailor", "delivery" or "admin"
	IsBanned  bool           `gorm:"not null;default:false" json:"is_banned"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
