package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment statuses.
const (
	PayStatusCreated  = "created"
	PayStatusPaid     = "paid"
	PayStatusFailed   = "failed"
	PayStatusRefunded = "refunded"
)

// Order model discriminators for the payment union.
const (
	OrderModelStitching = "StitchingOrder"
	OrderModelEcommerce = "EcommerceOrder"
)

// Payment is a single payment attempt against exactly one order of exactly
// one order type (OrderModel + OrderRefID form a discriminated union). An
// order may accumulate several failed attempts over its life, but at most one
// payment may ever reach "paid".
type Payment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	User       User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderModel string `gorm:"not null;index:idx_payment_order,priority:2" json:"order_model"` // StitchingOrder or EcommerceOrder
	OrderRefID uint   `gorm:"not null;index:idx_payment_order,priority:1" json:"order_ref_id"`

	RazorpayOrderID   string `gorm:"index" json:"razorpay_order_id"`
	RazorpayPaymentID string `gorm:"index" json:"razorpay_payment_id"`
	RazorpayRefundID  string `json:"razorpay_refund_id"`

	Amount      float64 `gorm:"not null;check:amount >= 0" json:"amount"`
	Currency    string  `gorm:"not null;default:'INR'" json:"currency"`
	PaymentType string  `gorm:"not null;default:'stitching'" json:"payment_type"` // stitching or ecommerce
	Status      string  `gorm:"not null;default:'created';index" json:"status"`   // created, paid, failed, refunded

	RefundAmount float64 `gorm:"not null;default:0;check:refund_amount >= 0" json:"refund_amount"` // invariant: <= Amount
	RefundStatus string  `gorm:"not null;default:'none'" json:"refund_status"`                     // none, processed, failed

	// Gateway webhook event ids already applied, kept for at-least-once
	// delivery idempotency. Monotonically non-shrinking.
	ProcessedWebhookEvents StringList `json:"processed_webhook_events"`

	TransactionDate time.Time      `json:"transaction_date"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// IsPaid reports whether this payment attempt has settled successfully.
// Refunded payments were necessarily paid first.
func (p *Payment) IsPaid() bool {
	return p.Status == PayStatusPaid || p.Status == PayStatusRefunded
}

// HasProcessedWebhookEvent reports whether a gateway event id was already
// applied to this payment.
func (p *Payment) HasProcessedWebhookEvent(eventID string) bool {
	for _, id := range p.ProcessedWebhookEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// RecordWebhookEvent adds a gateway event id to the processed set. Duplicate
// ids are ignored so the set only ever grows.
func (p *Payment) RecordWebhookEvent(eventID string) {
	if eventID == "" || p.HasProcessedWebhookEvent(eventID) {
		return
	}
	p.ProcessedWebhookEvents = append(p.ProcessedWebhookEvents, eventID)
}
