package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ayush1910-maker/stitching-store-api/models"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

func signCheckout(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func signWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// createIntent is a shorthand for the happy checkout path used as setup in
// verification, refund and webhook tests.
func createIntent(t *testing.T, db *gorm.DB, gateway *MockRazorpayService, order *models.StitchingOrder, customer *models.User) *PaymentIntent {
	intent, err := CreatePaymentIntent(db, gateway, order.OrderNumber, customer)
	require.NoError(t, err)
	return intent
}

func TestCreatePaymentIntent(t *testing.T) {
	db := setupServiceTestDB(t)
	gateway := NewMockRazorpayService()
	customer := seedUser(t, db, "auth0|cust", models.RoleCustomer)

	t.Run("creates a payment row and gateway order", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)

		intent, err := CreatePaymentIntent(db, gateway, order.OrderNumber, customer)
		require.NoError(t, err)
		assert.Equal(t, models.PayStatusCreated, intent.Payment.Status)
		assert.Equal(t, order.TotalAmount, intent.Payment.Amount)
		assert.Equal(t, models.OrderModelStitching, intent.Payment.OrderModel)
		assert.Equal(t, "stitching", intent.Payment.PaymentType)
		assert.Equal(t, intent.GatewayOrder.ID, intent.Payment.RazorpayOrderID)
		assert.Equal(t, toPaise(order.TotalAmount), intent.GatewayOrder.Amount)
		assert.Equal(t, fmt.Sprintf("rcpt_%s", order.OrderNumber), intent.GatewayOrder.Receipt)

		var stored models.StitchingOrder
		db.First(&stored, order.ID)
		assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	})

	t.Run("retry reuses the open attempt", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)

		first := createIntent(t, db, gateway, order, customer)
		second := createIntent(t, db, gateway, order, customer)

		assert.Equal(t, first.Payment.ID, second.Payment.ID)
		assert.NotEqual(t, first.GatewayOrder.ID, second.GatewayOrder.ID)

		var count int64
		db.Model(&models.Payment{}).
			Where("order_model = ? AND order_ref_id = ?", models.OrderModelStitching, order.ID).
			Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rejects an already paid order", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		db.Model(order).Update("payment_status", models.PaymentStatusPaid)

		_, err := CreatePaymentIntent(db, gateway, order.OrderNumber, customer)
		assert.True(t, IsKind(err, KindConflict))
	})

	t.Run("rejects a zero amount", func(t *testing.T) {
		order := &models.StitchingOrder{
			OrderNumber: NewOrderNumber(),
			CustomerID:  customer.ID,
			Status:      models.OrderStatusPending,
			TotalAmount: 0,
		}
		require.NoError(t, db.Create(order).Error)

		_, err := CreatePaymentIntent(db, gateway, order.OrderNumber, customer)
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("unknown order number", func(t *testing.T) {
		_, err := CreatePaymentIntent(db, gateway, "STG-NOPE", customer)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("another customer's order is invisible", func(t *testing.T) {
		stranger := seedUser(t, db, "auth0|stranger", models.RoleCustomer)
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)

		_, err := CreatePaymentIntent(db, gateway, order.OrderNumber, stranger)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("gateway failure surfaces as external", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		gateway.FailNextCall = true

		_, err := CreatePaymentIntent(db, gateway, order.OrderNumber, customer)
		assert.True(t, IsKind(err, KindExternalFailure))

		var count int64
		db.Model(&models.Payment{}).
			Where("order_model = ? AND order_ref_id = ?", models.OrderModelStitching, order.ID).
			Count(&count)
		assert.Equal(t, int64(0), count)
	})
}

func TestVerifyPayment(t *testing.T) {
	db := setupServiceTestDB(t)
	gateway := NewMockRazorpayService()
	customer := seedUser(t, db, "auth0|cust", models.RoleCustomer)

	t.Run("valid signature settles the payment and order", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)
		gatewayOrderID := intent.GatewayOrder.ID

		payment, err := VerifyPayment(db, gatewayOrderID, "pay_001",
			signCheckout(gatewayOrderID, "pay_001"), customer, testKeySecret)
		require.NoError(t, err)
		assert.Equal(t, models.PayStatusPaid, payment.Status)
		assert.Equal(t, "pay_001", payment.RazorpayPaymentID)

		var stored models.StitchingOrder
		db.First(&stored, order.ID)
		assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
		require.NotNil(t, stored.PaymentID)
		assert.Equal(t, payment.ID, *stored.PaymentID)
	})

	t.Run("replay with the same payment id is a no-op success", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)
		gatewayOrderID := intent.GatewayOrder.ID
		sig := signCheckout(gatewayOrderID, "pay_replay")

		_, err := VerifyPayment(db, gatewayOrderID, "pay_replay", sig, customer, testKeySecret)
		require.NoError(t, err)

		payment, err := VerifyPayment(db, gatewayOrderID, "pay_replay", sig, customer, testKeySecret)
		require.NoError(t, err)
		assert.Equal(t, models.PayStatusPaid, payment.Status)
	})

	t.Run("a different payment id on a settled payment conflicts", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)
		gatewayOrderID := intent.GatewayOrder.ID

		_, err := VerifyPayment(db, gatewayOrderID, "pay_first",
			signCheckout(gatewayOrderID, "pay_first"), customer, testKeySecret)
		require.NoError(t, err)

		_, err = VerifyPayment(db, gatewayOrderID, "pay_second",
			signCheckout(gatewayOrderID, "pay_second"), customer, testKeySecret)
		assert.True(t, IsKind(err, KindConflict))
	})

	t.Run("tampered signature commits the failed state", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)
		gatewayOrderID := intent.GatewayOrder.ID

		_, err := VerifyPayment(db, gatewayOrderID, "pay_bad", "not-a-real-signature", customer, testKeySecret)
		assert.True(t, IsKind(err, KindSignatureInvalid))

		var stored models.Payment
		db.First(&stored, intent.Payment.ID)
		assert.Equal(t, models.PayStatusFailed, stored.Status)

		var storedOrder models.StitchingOrder
		db.First(&storedOrder, order.ID)
		assert.Equal(t, models.PaymentStatusFailed, storedOrder.PaymentStatus)
	})

	t.Run("failed attempt can be retried and settled", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)

		_, err := VerifyPayment(db, intent.GatewayOrder.ID, "pay_x", "bad", customer, testKeySecret)
		assert.True(t, IsKind(err, KindSignatureInvalid))

		retry := createIntent(t, db, gateway, order, customer)
		assert.Equal(t, intent.Payment.ID, retry.Payment.ID)

		payment, err := VerifyPayment(db, retry.GatewayOrder.ID, "pay_retry",
			signCheckout(retry.GatewayOrder.ID, "pay_retry"), customer, testKeySecret)
		require.NoError(t, err)
		assert.Equal(t, models.PayStatusPaid, payment.Status)
	})

	t.Run("unknown gateway order", func(t *testing.T) {
		_, err := VerifyPayment(db, "order_missing", "pay_z",
			signCheckout("order_missing", "pay_z"), customer, testKeySecret)
		assert.True(t, IsKind(err, KindNotFound))
	})
}

func TestRefundPayment(t *testing.T) {
	db := setupServiceTestDB(t)
	gateway := NewMockRazorpayService()
	admin := seedUser(t, db, "auth0|admin", models.RoleAdmin)
	customer := seedUser(t, db, "auth0|cust", models.RoleCustomer)

	paidPayment := func(t *testing.T) (*models.StitchingOrder, *models.Payment) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)
		paymentID := "pay_" + order.OrderNumber
		payment, err := VerifyPayment(db, intent.GatewayOrder.ID, paymentID,
			signCheckout(intent.GatewayOrder.ID, paymentID), customer, testKeySecret)
		require.NoError(t, err)
		return order, payment
	}

	t.Run("refunds a paid payment in full", func(t *testing.T) {
		order, payment := paidPayment(t)

		refunded, err := RefundPayment(db, gateway, payment.ID, payment.Amount, admin)
		require.NoError(t, err)
		assert.Equal(t, models.PayStatusRefunded, refunded.Status)
		assert.Equal(t, payment.Amount, refunded.RefundAmount)
		assert.Equal(t, "processed", refunded.RefundStatus)
		assert.NotEmpty(t, refunded.RazorpayRefundID)

		var stored models.StitchingOrder
		db.First(&stored, order.ID)
		assert.Equal(t, models.PaymentStatusRefunded, stored.PaymentStatus)
	})

	t.Run("partial refund keeps the paid amount bound", func(t *testing.T) {
		_, payment := paidPayment(t)

		refunded, err := RefundPayment(db, gateway, payment.ID, payment.Amount/2, admin)
		require.NoError(t, err)
		assert.Equal(t, payment.Amount/2, refunded.RefundAmount)
	})

	t.Run("amount above the original is rejected", func(t *testing.T) {
		_, payment := paidPayment(t)

		_, err := RefundPayment(db, gateway, payment.ID, payment.Amount+1, admin)
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("double refund conflicts", func(t *testing.T) {
		_, payment := paidPayment(t)

		_, err := RefundPayment(db, gateway, payment.ID, payment.Amount, admin)
		require.NoError(t, err)

		_, err = RefundPayment(db, gateway, payment.ID, payment.Amount, admin)
		assert.True(t, IsKind(err, KindConflict))
	})

	t.Run("only paid payments can be refunded", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)

		_, err := RefundPayment(db, gateway, intent.Payment.ID, intent.Payment.Amount, admin)
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("rejects NaN amounts", func(t *testing.T) {
		_, payment := paidPayment(t)

		_, err := RefundPayment(db, gateway, payment.ID, math.NaN(), admin)
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("admin only", func(t *testing.T) {
		_, payment := paidPayment(t)

		_, err := RefundPayment(db, gateway, payment.ID, payment.Amount, customer)
		assert.True(t, IsKind(err, KindForbidden))
	})

	t.Run("gateway failure surfaces as external and changes nothing", func(t *testing.T) {
		_, payment := paidPayment(t)
		gateway.FailNextCall = true

		_, err := RefundPayment(db, gateway, payment.ID, payment.Amount, admin)
		assert.True(t, IsKind(err, KindExternalFailure))

		var stored models.Payment
		db.First(&stored, payment.ID)
		assert.Equal(t, models.PayStatusPaid, stored.Status)
	})
}

func TestProcessWebhook(t *testing.T) {
	db := setupServiceTestDB(t)
	gateway := NewMockRazorpayService()
	customer := seedUser(t, db, "auth0|cust", models.RoleCustomer)

	capturedBody := func(gatewayOrderID, paymentID string, amountPaise int64) []byte {
		return []byte(fmt.Sprintf(
			`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"amount":%d,"currency":"INR"}}}}`,
			paymentID, gatewayOrderID, amountPaise))
	}

	t.Run("payment.captured settles the payment", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)

		body := capturedBody(intent.GatewayOrder.ID, "pay_hook1", toPaise(order.TotalAmount))
		err := ProcessWebhook(db, body, signWebhook(body), "evt_1", testWebhookSecret)
		require.NoError(t, err)

		var stored models.Payment
		db.First(&stored, intent.Payment.ID)
		assert.Equal(t, models.PayStatusPaid, stored.Status)
		assert.Equal(t, "pay_hook1", stored.RazorpayPaymentID)
		assert.True(t, stored.HasProcessedWebhookEvent("evt_1"))

		var storedOrder models.StitchingOrder
		db.First(&storedOrder, order.ID)
		assert.Equal(t, models.PaymentStatusPaid, storedOrder.PaymentStatus)
	})

	t.Run("duplicate event id is acknowledged without reapplying", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)

		body := capturedBody(intent.GatewayOrder.ID, "pay_hook2", toPaise(order.TotalAmount))
		require.NoError(t, ProcessWebhook(db, body, signWebhook(body), "evt_dup", testWebhookSecret))
		require.NoError(t, ProcessWebhook(db, body, signWebhook(body), "evt_dup", testWebhookSecret))

		var stored models.Payment
		db.First(&stored, intent.Payment.ID)
		assert.Equal(t, models.StringList{"evt_dup"}, stored.ProcessedWebhookEvents)
	})

	t.Run("payment.failed never downgrades a settled payment", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)
		gatewayOrderID := intent.GatewayOrder.ID

		_, err := VerifyPayment(db, gatewayOrderID, "pay_settled",
			signCheckout(gatewayOrderID, "pay_settled"), customer, testKeySecret)
		require.NoError(t, err)

		body := []byte(fmt.Sprintf(
			`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_settled","order_id":%q}}}}`,
			gatewayOrderID))
		require.NoError(t, ProcessWebhook(db, body, signWebhook(body), "evt_late", testWebhookSecret))

		var stored models.Payment
		db.First(&stored, intent.Payment.ID)
		assert.Equal(t, models.PayStatusPaid, stored.Status)
		assert.True(t, stored.HasProcessedWebhookEvent("evt_late"))
	})

	t.Run("payment.failed marks an open attempt failed", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)

		body := []byte(fmt.Sprintf(
			`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_declined","order_id":%q}}}}`,
			intent.GatewayOrder.ID))
		require.NoError(t, ProcessWebhook(db, body, signWebhook(body), "evt_fail", testWebhookSecret))

		var stored models.Payment
		db.First(&stored, intent.Payment.ID)
		assert.Equal(t, models.PayStatusFailed, stored.Status)

		var storedOrder models.StitchingOrder
		db.First(&storedOrder, order.ID)
		assert.Equal(t, models.PaymentStatusFailed, storedOrder.PaymentStatus)
	})

	t.Run("refund.processed projects the refund", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)
		gatewayOrderID := intent.GatewayOrder.ID

		_, err := VerifyPayment(db, gatewayOrderID, "pay_to_refund",
			signCheckout(gatewayOrderID, "pay_to_refund"), customer, testKeySecret)
		require.NoError(t, err)

		body := []byte(fmt.Sprintf(
			`{"event":"refund.processed","payload":{"refund":{"entity":{"id":"rfnd_hook","payment_id":"pay_to_refund","amount":%d}}}}`,
			toPaise(order.TotalAmount)))
		require.NoError(t, ProcessWebhook(db, body, signWebhook(body), "evt_refund", testWebhookSecret))

		var stored models.Payment
		db.First(&stored, intent.Payment.ID)
		assert.Equal(t, models.PayStatusRefunded, stored.Status)
		assert.Equal(t, "rfnd_hook", stored.RazorpayRefundID)

		var storedOrder models.StitchingOrder
		db.First(&storedOrder, order.ID)
		assert.Equal(t, models.PaymentStatusRefunded, storedOrder.PaymentStatus)
	})

	t.Run("refund.processed never resurrects a failed attempt", func(t *testing.T) {
		order := seedOrder(t, db, customer.ID, models.OrderStatusPending)
		intent := createIntent(t, db, gateway, order, customer)
		gatewayOrderID := intent.GatewayOrder.ID

		// A failed attempt still records the gateway payment id
		failedBody := []byte(fmt.Sprintf(
			`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_never_paid","order_id":%q}}}}`,
			gatewayOrderID))
		require.NoError(t, ProcessWebhook(db, failedBody, signWebhook(failedBody), "evt_nf1", testWebhookSecret))

		refundBody := []byte(fmt.Sprintf(
			`{"event":"refund.processed","payload":{"refund":{"entity":{"id":"rfnd_stray","payment_id":"pay_never_paid","amount":%d}}}}`,
			toPaise(order.TotalAmount)))
		require.NoError(t, ProcessWebhook(db, refundBody, signWebhook(refundBody), "evt_nf2", testWebhookSecret))

		var stored models.Payment
		db.First(&stored, intent.Payment.ID)
		assert.Equal(t, models.PayStatusFailed, stored.Status)
		assert.Zero(t, stored.RefundAmount)
		assert.True(t, stored.HasProcessedWebhookEvent("evt_nf2"))
	})

	t.Run("bad signature is rejected", func(t *testing.T) {
		body := []byte(`{"event":"payment.captured"}`)
		err := ProcessWebhook(db, body, "wrong", "evt_x", testWebhookSecret)
		assert.True(t, IsKind(err, KindSignatureInvalid))
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		body := []byte(`{"event":"payment.captured"}`)
		err := ProcessWebhook(db, body, "", "evt_x", testWebhookSecret)
		assert.True(t, IsKind(err, KindSignatureInvalid))
	})

	t.Run("missing secret is a configuration error", func(t *testing.T) {
		body := []byte(`{}`)
		err := ProcessWebhook(db, body, signWebhook(body), "evt_x", "")
		assert.True(t, IsKind(err, KindValidationFailed))
	})

	t.Run("unknown events are acknowledged", func(t *testing.T) {
		body := []byte(`{"event":"subscription.charged","payload":{}}`)
		assert.NoError(t, ProcessWebhook(db, body, signWebhook(body), "evt_x", testWebhookSecret))
	})

	t.Run("events for unknown payments are acknowledged", func(t *testing.T) {
		body := capturedBody("order_unknown", "pay_unknown", 100)
		assert.NoError(t, ProcessWebhook(db, body, signWebhook(body), "evt_x", testWebhookSecret))
	})

	t.Run("signed but unparseable body is acknowledged", func(t *testing.T) {
		body := []byte("not json")
		assert.NoError(t, ProcessWebhook(db, body, signWebhook(body), "evt_x", testWebhookSecret))
	})
}
