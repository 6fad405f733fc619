package models

import (
	"time"

	"gorm.io/gorm"
)

// Payout statuses.
const (
	PayoutStatusPending    = "PENDING"
	PayoutStatusProcessing = "PROCESSING"
	PayoutStatusProcessed  = "PROCESSED"
	PayoutStatusFailed     = "FAILED"
)

// Payout is a settlement of accumulated earnings to a tailor or delivery
// partner. Distinct from Payment, which records money moving in from a
// customer.
type Payout struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	User           User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount         float64        `gorm:"not null;check:amount >= 0" json:"amount"`
	Currency       string         `gorm:"not null;default:'INR'" json:"currency"`
	Type           string         `gorm:"not null" json:"type"` // TAILOR or DELIVERY
	CycleStart     *time.Time     `json:"cycle_start"`
	CycleEnd       *time.Time     `json:"cycle_end"`
	Status         string         `gorm:"not null;default:'PENDING'" json:"status"`
	PayoutID       string         `gorm:"uniqueIndex" json:"payout_id"` // gateway payout id
	RazorpayStatus string         `json:"razorpay_status"`
	RecipientType  string         `json:"recipient_type"` // tailor or delivery
	ReferenceID    string         `json:"reference_id"`
	EarningsStatus string         `gorm:"not null;default:'PENDING'" json:"earnings_status"` // PENDING, SETTLED, FAILED
	ProcessedDate  *time.Time     `json:"processed_date"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payout model
func (Payout) TableName() string {
	return "payouts"
}
