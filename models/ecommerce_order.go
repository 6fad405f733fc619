package models

import (
	"time"

	"gorm.io/gorm"
)

// EcommerceOrder represents a ready-made product order. It shares the payment
// settlement flow with stitching orders but has no production-stage machine.
type EcommerceOrder struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OrderNumber   string         `gorm:"uniqueIndex;not null" json:"order_number"` // human-readable id, "ECM-..."
	CustomerID    uint           `gorm:"not null;index" json:"customer_id"`
	Customer      User           `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status        string         `gorm:"not null;default:'PLACED'" json:"status"` // PLACED, CONFIRMED, SHIPPED, DELIVERED, CANCELLED
	PaymentStatus string         `gorm:"not null;default:'PENDING';index" json:"payment_status"`
	TotalAmount   float64        `gorm:"not null;check:total_amount >= 0" json:"total_amount"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the EcommerceOrder model
func (EcommerceOrder) TableName() string {
	return "ecommerce_orders"
}
