package models

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrOrderNotResolved is returned when an order number matches neither
// concrete order type (scoped to the requesting customer when one is given).
var ErrOrderNotResolved = errors.New("order not found for any order type")

// PayableOrder is the uniform handle the payment engine holds over a concrete
// order. Implementations project payment outcomes onto their own status
// fields; the payment engine never touches production-stage fields directly.
type PayableOrder interface {
	// OrderModel returns the discriminator tag stored on Payment records.
	OrderModel() string
	// RecordID returns the internal primary key.
	RecordID() uint
	// PublicNumber returns the human-readable order number.
	PublicNumber() string
	// Amount returns the order total the customer owes.
	Amount() float64
	// Paid reports whether the order already has a settled payment.
	Paid() bool
	// MarkPaymentPending projects a pending payment intent onto the order.
	MarkPaymentPending(tx *gorm.DB) error
	// MarkPaid projects a successful payment onto the order.
	MarkPaid(tx *gorm.DB, paymentID uint) error
	// MarkPaymentFailed projects a failed payment attempt onto the order.
	MarkPaymentFailed(tx *gorm.DB) error
	// MarkRefunded projects a processed refund onto the order.
	MarkRefunded(tx *gorm.DB) error
}

// ResolveOrderByNumber looks up an opaque order number across both order
// types and returns a uniform payment handle for whichever owns it. When
// customerID is non-zero the lookup is scoped to that customer. The row is
// locked for update so the caller's transaction owns it until commit.
func ResolveOrderByNumber(tx *gorm.DB, orderNumber string, customerID uint) (PayableOrder, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_number = ?", orderNumber)
		if customerID != 0 {
			q = q.Where("customer_id = ?", customerID)
		}
		return q
	}

	var stitching StitchingOrder
	err := scope(tx).First(&stitching).Error
	if err == nil {
		return &stitching, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var ecommerce EcommerceOrder
	err = scope(tx).First(&ecommerce).Error
	if err == nil {
		return &ecommerce, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return nil, ErrOrderNotResolved
}

// ResolveOrderByRecord loads a payment handle from a stored (orderModel, id)
// pair, as recorded on a Payment row.
func ResolveOrderByRecord(tx *gorm.DB, orderModel string, recordID uint) (PayableOrder, error) {
	switch orderModel {
	case OrderModelStitching:
		var order StitchingOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, recordID).Error; err != nil {
			return nil, err
		}
		return &order, nil
	case OrderModelEcommerce:
		var order EcommerceOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, recordID).Error; err != nil {
			return nil, err
		}
		return &order, nil
	default:
		return nil, ErrOrderNotResolved
	}
}

// PayableOrder implementation for stitching orders.

func (o *StitchingOrder) OrderModel() string   { return OrderModelStitching }
func (o *StitchingOrder) RecordID() uint       { return o.ID }
func (o *StitchingOrder) PublicNumber() string { return o.OrderNumber }
func (o *StitchingOrder) Amount() float64      { return o.TotalAmount }
func (o *StitchingOrder) Paid() bool           { return o.PaymentStatus == PaymentStatusPaid }

func (o *StitchingOrder) MarkPaymentPending(tx *gorm.DB) error {
	o.PaymentStatus = PaymentStatusPending
	return tx.Model(o).Update("payment_status", PaymentStatusPending).Error
}

func (o *StitchingOrder) MarkPaid(tx *gorm.DB, paymentID uint) error {
	o.PaymentStatus = PaymentStatusPaid
	o.PaymentID = &paymentID
	return tx.Model(o).Updates(map[string]interface{}{
		"payment_status": PaymentStatusPaid,
		"payment_id":     paymentID,
	}).Error
}

func (o *StitchingOrder) MarkPaymentFailed(tx *gorm.DB) error {
	o.PaymentStatus = PaymentStatusFailed
	return tx.Model(o).Update("payment_status", PaymentStatusFailed).Error
}

func (o *StitchingOrder) MarkRefunded(tx *gorm.DB) error {
	o.PaymentStatus = PaymentStatusRefunded
	return tx.Model(o).Update("payment_status", PaymentStatusRefunded).Error
}

// PayableOrder implementation for e-commerce orders. Payment success doubles
// as order confirmation since there is no separate production pipeline.

func (o *EcommerceOrder) OrderModel() string   { return OrderModelEcommerce }
func (o *EcommerceOrder) RecordID() uint       { return o.ID }
func (o *EcommerceOrder) PublicNumber() string { return o.OrderNumber }
func (o *EcommerceOrder) Amount() float64      { return o.TotalAmount }
func (o *EcommerceOrder) Paid() bool           { return o.PaymentStatus == PaymentStatusPaid }

func (o *EcommerceOrder) MarkPaymentPending(tx *gorm.DB) error {
	o.PaymentStatus = PaymentStatusPending
	return tx.Model(o).Update("payment_status", PaymentStatusPending).Error
}

func (o *EcommerceOrder) MarkPaid(tx *gorm.DB, paymentID uint) error {
	o.PaymentStatus = PaymentStatusPaid
	o.Status = "CONFIRMED"
	return tx.Model(o).Updates(map[string]interface{}{
		"payment_status": PaymentStatusPaid,
		"status":         "CONFIRMED",
	}).Error
}

func (o *EcommerceOrder) MarkPaymentFailed(tx *gorm.DB) error {
	o.PaymentStatus = PaymentStatusFailed
	return tx.Model(o).Update("payment_status", PaymentStatusFailed).Error
}

func (o *EcommerceOrder) MarkRefunded(tx *gorm.DB) error {
	o.PaymentStatus = PaymentStatusRefunded
	return tx.Model(o).Update("payment_status", PaymentStatusRefunded).Error
}
