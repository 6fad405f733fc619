package models

import (
	"time"

	"gorm.io/gorm"
)

// AlterationRequest captures a customer's request to rework a delivered or
// in-progress garment. The order itself moves to alteration_requested in the
// same transaction that creates this record.
type AlterationRequest struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OrderID   uint           `gorm:"not null;index" json:"order_id"`
	Order     StitchingOrder `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Reason    string         `gorm:"not null" json:"reason"`
	Images    StringList     `json:"images"`
	Status    string         `gorm:"not null;default:'REQUESTED'" json:"status"` // REQUESTED, IN_PROGRESS, RESOLVED
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the AlterationRequest model
func (AlterationRequest) TableName() string {
	return "alteration_requests"
}
