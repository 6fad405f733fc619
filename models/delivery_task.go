package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryTask is a pickup or drop leg attached to a stitching order. Tasks
// are soft-deleted, never hard-deleted, so they cannot outlive their order's
// audit trail.
type DeliveryTask struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OrderID      uint           `gorm:"not null;index" json:"order_id"`
	Order        StitchingOrder `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	PartnerID    uint           `gorm:"not null;index" json:"partner_id"` // delivery partner user id
	Partner      User           `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	AssignedByID uint           `gorm:"not null" json:"assigned_by_id"`
	TaskType     string         `gorm:"not null;default:'drop'" json:"task_type"`  // pickup or drop
	Status       string         `gorm:"not null;default:'assigned'" json:"status"` // assigned, on_the_way, reached, picked_up, delivered, cancelled
	ProofImages  StringList     `json:"proof_images"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the DeliveryTask model
func (DeliveryTask) TableName() string {
	return "delivery_tasks"
}
