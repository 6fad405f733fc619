package models

import (
	"time"

	"gorm.io/gorm"
)

// TailorDetail is the operational profile of a user with the tailor role.
type TailorDetail struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	UserID         uint        `gorm:"uniqueIndex;not null" json:"user_id"`
	User           User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ShopAddress    string      `json:"shop_address"`
	District       string      `json:"district"`
	Skills         StringList  `json:"skills"`
	CommissionRate float64     `gorm:"not null;default:0" json:"commission_rate"` // percentage
	ApprovalStatus string      `gorm:"not null;default:'pending'" json:"approval_status"`
	BankDetails    BankDetails `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
	EarningsPaid   float64     `gorm:"not null;default:0" json:"earnings_paid"`
	EarningsStatus string      `gorm:"not null;default:'PENDING'" json:"earnings_status"`
	LastPayoutAt   *time.Time  `json:"last_payout_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the TailorDetail model
func (TailorDetail) TableName() string {
	return "tailor_details"
}
