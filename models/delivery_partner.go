package models

import (
	"time"

	"gorm.io/gorm"
)

// BankDetails holds a recipient's settlement destination
type BankDetails struct {
	AccountHolderName string `json:"account_holder_name"`
	AccountNumber     string `json:"account_number"`
	IFSCCode          string `json:"ifsc_code"`
	UPIID             string `json:"upi_id"`
}

// DeliveryPartner is the operational profile of a user with the delivery
// role. TotalDeliveries is incremented inside the same transaction as the
// task transition that earns it, never as a detached follow-up write.
type DeliveryPartner struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	UserID          uint        `gorm:"uniqueIndex;not null" json:"user_id"`
	User            User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	VehicleType     string      `json:"vehicle_type"`
	IsOnline        bool        `gorm:"not null;default:false" json:"is_online"`
	TotalDeliveries int64       `gorm:"not null;default:0" json:"total_deliveries"`
	BankDetails     BankDetails `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
	PendingEarnings float64     `gorm:"not null;default:0" json:"pending_earnings"`
	EarningsPaid    float64     `gorm:"not null;default:0" json:"earnings_paid"`
	EarningsStatus  string      `gorm:"not null;default:'PENDING'" json:"earnings_status"`
	LastPayoutAt    *time.Time  `json:"last_payout_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the DeliveryPartner model
func (DeliveryPartner) TableName() string {
	return "delivery_partners"
}
