package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ayush1910-maker/stitching-store-api/models"
)

// PaymentIntent is what checkout hands back to the client: the local payment
// record plus the gateway order to drive the payment widget.
type PaymentIntent struct {
	Payment      *models.Payment `json:"payment"`
	GatewayOrder *GatewayOrder   `json:"razorpay_order"`
}

// paymentTypeFor maps an order model onto the payment type tag.
func paymentTypeFor(orderModel string) string {
	if orderModel == models.OrderModelEcommerce {
		return "ecommerce"
	}
	return "stitching"
}

// CreatePaymentIntent resolves the order polymorphically, guards against
// double payment, registers the amount with the gateway and records a local
// Payment row. An existing non-terminal payment attempt for the same
// (order, user) pair is reused rather than inserting a new row, so retried
// checkouts do not orphan intents.
func CreatePaymentIntent(db *gorm.DB, gateway RazorpayInterface, orderNumber string, customer *models.User) (*PaymentIntent, error) {
	var intent *PaymentIntent

	err := db.Transaction(func(tx *gorm.DB) error {
		order, err := models.ResolveOrderByNumber(tx, orderNumber, customer.ID)
		if err != nil {
			if errors.Is(err, models.ErrOrderNotResolved) {
				return NewError(KindNotFound, "Order not found")
			}
			return err
		}

		if order.Paid() {
			return NewError(KindConflict, "Order is already paid")
		}

		amount := order.Amount()
		if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
			return NewError(KindValidationFailed, "Invalid order amount")
		}

		var paidCount int64
		if err := tx.Model(&models.Payment{}).
			Where("order_model = ? AND order_ref_id = ? AND user_id = ? AND status IN ?",
				order.OrderModel(), order.RecordID(), customer.ID,
				[]string{models.PayStatusPaid, models.PayStatusRefunded}).
			Count(&paidCount).Error; err != nil {
			return err
		}
		if paidCount > 0 {
			return NewError(KindConflict, "Payment already completed for this order")
		}

		gatewayOrder, err := gateway.CreateOrder(
			toPaise(amount),
			"INR",
			fmt.Sprintf("rcpt_%s", order.PublicNumber()),
			map[string]string{
				"orderNumber": order.PublicNumber(),
				"orderModel":  order.OrderModel(),
				"userId":      fmt.Sprintf("%d", customer.ID),
			},
		)
		if err != nil {
			return WrapError(KindExternalFailure, "Failed to create payment order with gateway", err)
		}

		// Reuse an open attempt instead of piling up intents.
		var payment models.Payment
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_model = ? AND order_ref_id = ? AND user_id = ? AND status IN ?",
				order.OrderModel(), order.RecordID(), customer.ID,
				[]string{models.PayStatusCreated, models.PayStatusFailed}).
			Order("created_at desc").
			First(&payment).Error
		switch {
		case err == nil:
			payment.RazorpayOrderID = gatewayOrder.ID
			payment.Amount = amount
			payment.Currency = gatewayOrder.Currency
			payment.Status = models.PayStatusCreated
			payment.PaymentType = paymentTypeFor(order.OrderModel())
			payment.TransactionDate = time.Now()
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			payment = models.Payment{
				UserID:          customer.ID,
				OrderModel:      order.OrderModel(),
				OrderRefID:      order.RecordID(),
				RazorpayOrderID: gatewayOrder.ID,
				Amount:          amount,
				Currency:        gatewayOrder.Currency,
				PaymentType:     paymentTypeFor(order.OrderModel()),
				Status:          models.PayStatusCreated,
				TransactionDate: time.Now(),
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := order.MarkPaymentPending(tx); err != nil {
			return err
		}

		intent = &PaymentIntent{Payment: &payment, GatewayOrder: gatewayOrder}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// VerifyPayment settles a client-reported payment confirmation. Idempotent:
// a payment already settled with the same gateway payment id returns success
// without reapplying effects; a different id on an already-paid payment is a
// conflict (payment substitution). A bad signature marks the attempt failed
// and projects the failure onto the order — that failed state commits, and
// the caller still receives SignatureInvalid.
func VerifyPayment(db *gorm.DB, gatewayOrderID, gatewayPaymentID, signature string, customer *models.User, keySecret string) (*models.Payment, error) {
	var payment *models.Payment
	var signatureValid bool

	err := db.Transaction(func(tx *gorm.DB) error {
		var record models.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("razorpay_order_id = ? AND user_id = ?", gatewayOrderID, customer.ID).
			First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewError(KindNotFound, "Payment record not found")
		}
		if err != nil {
			return err
		}
		payment = &record

		if record.Status == models.PayStatusPaid && record.RazorpayPaymentID == gatewayPaymentID {
			// Already verified with the same gateway payment: no-op.
			signatureValid = true
			return nil
		}
		if record.Status == models.PayStatusPaid && record.RazorpayPaymentID != "" {
			return NewError(KindConflict, "Payment already verified with another transaction")
		}

		signatureValid = VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, keySecret)
		if !signatureValid {
			return failPayment(tx, payment, gatewayPaymentID)
		}

		return settlePayment(tx, payment, gatewayPaymentID)
	})
	if err != nil {
		return nil, err
	}
	if !signatureValid {
		return payment, NewError(KindSignatureInvalid, "Invalid payment signature")
	}
	return payment, nil
}

// RefundPayment pushes an admin-initiated, amount-bounded refund through the
// gateway and projects the terminal state onto the order. If the gateway
// refund succeeds but the local commit fails, the error carries the gateway
// refund id; the refund.processed webhook is the reconciliation path that
// reapplies the terminal state.
func RefundPayment(db *gorm.DB, gateway RazorpayInterface, paymentID uint, amount float64, admin *models.User) (*models.Payment, error) {
	if admin.Role != models.RoleAdmin {
		return nil, NewError(KindForbidden, "Only admins can process refunds")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, NewError(KindValidationFailed, "Invalid refund amount")
	}

	var payment *models.Payment
	var refund *GatewayRefund

	err := db.Transaction(func(tx *gorm.DB) error {
		var record models.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, paymentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewError(KindNotFound, "Payment not found")
		}
		if err != nil {
			return err
		}
		payment = &record

		if record.Status == models.PayStatusRefunded || record.RefundAmount > 0 {
			return NewError(KindConflict, "Refund already processed for this payment")
		}
		if record.Status != models.PayStatusPaid {
			return NewError(KindValidationFailed, "Only paid transactions can be refunded")
		}
		if record.RazorpayPaymentID == "" {
			return NewError(KindValidationFailed, "Gateway payment id missing")
		}
		if amount > record.Amount {
			return NewError(KindValidationFailed, "Refund amount exceeds payment amount")
		}

		refund, err = gateway.CreateRefund(record.RazorpayPaymentID, toPaise(amount))
		if err != nil {
			return WrapError(KindExternalFailure, "Gateway refund failed", err)
		}

		if err := applyRefund(tx, payment, refund.ID, fromPaise(refund.Amount)); err != nil {
			// Money has already moved at the gateway; surface the refund id
			// so reconciliation can pick it up.
			return WrapError(KindExternalFailure,
				fmt.Sprintf("Refund %s processed at gateway but local commit failed", refund.ID), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// webhookEnvelope is the gateway's webhook body shape.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity *webhookPaymentEntity `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity *webhookRefundEntity `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

type webhookPaymentEntity struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type webhookRefundEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
}

// ProcessWebhook applies a gateway-pushed event. The signature is an HMAC
// over the raw body bytes exactly as received. Delivery is at-least-once:
// events already recorded in the payment's processed set are acknowledged
// without reapplying, and the event id is recorded in the same transaction
// as its effects. Events for unknown payments are acknowledged so the
// gateway stops retrying.
func ProcessWebhook(db *gorm.DB, rawBody []byte, signature, eventID, webhookSecret string) error {
	if webhookSecret == "" {
		return NewError(KindValidationFailed, "Webhook secret is not configured")
	}
	if signature == "" {
		return NewError(KindSignatureInvalid, "Missing webhook signature")
	}
	if !VerifyWebhookSignature(rawBody, signature, webhookSecret) {
		return NewError(KindSignatureInvalid, "Invalid webhook signature")
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		// Signed but unparseable: acknowledge, nothing to apply.
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"})

		switch envelope.Event {
		case "payment.captured", "payment.failed":
			entity := envelope.Payload.Payment.Entity
			if entity == nil {
				return nil
			}
			query = query.Where("razorpay_order_id = ?", entity.OrderID)
		case "refund.processed":
			entity := envelope.Payload.Refund.Entity
			if entity == nil {
				return nil
			}
			query = query.Where("razorpay_payment_id = ?", entity.PaymentID)
		default:
			return nil
		}

		err := query.First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if eventID != "" && payment.HasProcessedWebhookEvent(eventID) {
			return nil
		}

		switch envelope.Event {
		case "payment.captured":
			entity := envelope.Payload.Payment.Entity
			if !payment.IsPaid() {
				payment.Amount = fromPaise(entity.Amount)
				if entity.Currency != "" {
					payment.Currency = entity.Currency
				}
				if err := settlePayment(tx, &payment, entity.ID); err != nil {
					return err
				}
			}
		case "payment.failed":
			entity := envelope.Payload.Payment.Entity
			// A late failure notification must never downgrade a payment
			// that already settled.
			if !payment.IsPaid() {
				if err := failPayment(tx, &payment, entity.ID); err != nil {
					return err
				}
			}
		case "refund.processed":
			entity := envelope.Payload.Refund.Entity
			// Failed attempts carry a gateway payment id too; only a
			// settled payment can move to refunded.
			if payment.IsPaid() {
				if err := applyRefund(tx, &payment, entity.ID, fromPaise(entity.Amount)); err != nil {
					return err
				}
			}
		}

		payment.RecordWebhookEvent(eventID)
		return tx.Save(&payment).Error
	})
}

// settlePayment marks a payment paid, stamps the gateway payment id and
// projects PAID onto the owning order. Shared by VerifyPayment and the
// payment.captured webhook.
func settlePayment(tx *gorm.DB, payment *models.Payment, gatewayPaymentID string) error {
	payment.Status = models.PayStatusPaid
	payment.RazorpayPaymentID = gatewayPaymentID
	payment.TransactionDate = time.Now()
	if err := tx.Save(payment).Error; err != nil {
		return err
	}

	order, err := models.ResolveOrderByRecord(tx, payment.OrderModel, payment.OrderRefID)
	if err != nil {
		return err
	}
	return order.MarkPaid(tx, payment.ID)
}

// failPayment marks an attempt failed and projects the failure onto the
// order. The order stays payable: a later attempt creates or reuses another
// Payment row.
func failPayment(tx *gorm.DB, payment *models.Payment, gatewayPaymentID string) error {
	payment.Status = models.PayStatusFailed
	if gatewayPaymentID != "" {
		payment.RazorpayPaymentID = gatewayPaymentID
	}
	payment.TransactionDate = time.Now()
	if err := tx.Save(payment).Error; err != nil {
		return err
	}

	order, err := models.ResolveOrderByRecord(tx, payment.OrderModel, payment.OrderRefID)
	if err != nil {
		return err
	}
	return order.MarkPaymentFailed(tx)
}

// applyRefund records the refunded terminal state and projects REFUNDED onto
// the order. Shared by RefundPayment and the refund.processed webhook.
func applyRefund(tx *gorm.DB, payment *models.Payment, gatewayRefundID string, amount float64) error {
	if amount > payment.Amount {
		return NewError(KindValidationFailed, "Refund amount exceeds payment amount")
	}

	payment.Status = models.PayStatusRefunded
	payment.RefundStatus = "processed"
	payment.RefundAmount = amount
	payment.RazorpayRefundID = gatewayRefundID
	payment.TransactionDate = time.Now()
	if err := tx.Save(payment).Error; err != nil {
		return err
	}

	order, err := models.ResolveOrderByRecord(tx, payment.OrderModel, payment.OrderRefID)
	if err != nil {
		return err
	}
	return order.MarkRefunded(tx)
}

// toPaise converts rupees to the gateway's integer paise unit.
func toPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// fromPaise converts the gateway's paise unit back to rupees.
func fromPaise(paise int64) float64 {
	return float64(paise) / 100
}
