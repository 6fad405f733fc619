package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatusHistory is the append-only ledger of order status transitions.
// Entries are immutable: they are never updated or deleted, and the ordered
// sequence per order is the ground truth for what happened when.
type OrderStatusHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index:idx_history_order_time,priority:1" json:"order_id"`
	Status      string    `gorm:"not null" json:"status"`
	UpdatedByID uint      `gorm:"not null" json:"updated_by_id"`
	UpdatedBy   User      `gorm:"foreignKey:UpdatedByID" json:"updated_by,omitempty"`
	Timestamp   time.Time `gorm:"not null;index:idx_history_order_time,priority:2" json:"timestamp"`
	ProofImage  string    `json:"proof_image,omitempty"`
}

// TableName specifies the table name for the OrderStatusHistory model
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}

// AppendOrderHistory writes one immutable history entry for an order status
// transition. Callers must pass the transaction the transition itself runs in
// so the status write and the ledger entry commit together.
func AppendOrderHistory(tx *gorm.DB, orderID uint, status string, updatedBy uint, proofImage string) error {
	entry := OrderStatusHistory{
		OrderID:     orderID,
		Status:      NormalizeOrderStatus(status),
		UpdatedByID: updatedBy,
		Timestamp:   time.Now(),
		ProofImage:  proofImage,
	}
	return tx.Create(&entry).Error
}

// OrderTimeline returns the full history of an order in insertion order.
func OrderTimeline(db *gorm.DB, orderID uint) ([]OrderStatusHistory, error) {
	var entries []OrderStatusHistory
	err := db.Where("order_id = ?", orderID).
		Order("timestamp asc, id asc").
		Find(&entries).Error
	return entries, err
}
