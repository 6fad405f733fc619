package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/middleware"
	"github.com/ayush1910-maker/stitching-store-api/models"
	"github.com/ayush1910-maker/stitching-store-api/services"
)

// CreatePaymentRequest represents the request body for starting a payment
type CreatePaymentRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
}

// VerifyPaymentRequest represents the client-side payment confirmation
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// CreatePayment handles POST /api/v1/payments - registers a payment intent
// for one of the caller's orders
func CreatePayment(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	intent, err := services.CreatePaymentIntent(config.GetDB(), services.GetRazorpayService(), req.OrderNumber, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    intent,
	})
}

// VerifyPayment handles POST /api/v1/payments/verify - settles a payment from
// the client's gateway callback
func VerifyPayment(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	cfg := config.GetConfig()
	payment, err := services.VerifyPayment(config.GetDB(), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, user, cfg.RazorpayKeySecret)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payment,
	})
}

// ListMyPayments handles GET /api/v1/payments - lists the caller's payment attempts
func ListMyPayments(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var payments []models.Payment
	if err := config.GetDB().Where("user_id = ?", user.ID).Order("created_at desc").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load payments",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payments,
	})
}

// RazorpayWebhook handles POST /api/v1/payments/webhook - gateway-pushed
// payment events. The signature covers the exact raw body bytes, so the body
// must be read before any JSON binding touches it. Duplicate deliveries are
// acknowledged with a 200 so the gateway stops retrying.
func RazorpayWebhook(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_BODY",
				"message": "Could not read webhook body",
			},
		})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	eventID := c.GetHeader("X-Razorpay-Event-Id")
	cfg := config.GetConfig()

	if err := services.ProcessWebhook(config.GetDB(), rawBody, signature, eventID, cfg.RazorpayWebhookSecret); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
