package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/middleware"
	"github.com/ayush1910-maker/stitching-store-api/models"
	"github.com/ayush1910-maker/stitching-store-api/services"
)

// AssignTailorRequest represents the request body for assigning a tailor
type AssignTailorRequest struct {
	TailorID uint `json:"tailor_id" binding:"required"`
}

// AssignTaskRequest represents the request body for creating a delivery task
type AssignTaskRequest struct {
	PartnerID uint   `json:"partner_id" binding:"required"`
	TaskType  string `json:"task_type" binding:"required,oneof=pickup drop"`
}

// ReassignOrderRequest represents the request body for replacing participants
type ReassignOrderRequest struct {
	TailorID  *uint  `json:"tailor_id"`
	PartnerID *uint  `json:"partner_id"`
	TaskType  string `json:"task_type" binding:"omitempty,oneof=pickup drop"`
}

// CancelOrderRequest represents the request body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// RefundRequest represents the request body for refunding a payment
type RefundRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// PayoutRequest represents the request body for settling earnings
type PayoutRequest struct {
	UserID uint    `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// ListAllOrders handles GET /api/v1/admin/orders - lists every stitching order
func ListAllOrders(c *gin.Context) {
	db := config.GetDB()
	query := db.Preload("Customer").Preload("Tailor")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", models.NormalizeOrderStatus(status))
	}

	var orders []models.StitchingOrder
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// AssignTailorToOrder handles POST /api/v1/admin/orders/:id/assign-tailor
func AssignTailorToOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req AssignTailorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := services.AssignTailor(config.GetDB(), orderID, req.TailorID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// AssignDeliveryTask handles POST /api/v1/admin/orders/:id/assign-task
func AssignDeliveryTask(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, task, err := services.AssignDeliveryTask(config.GetDB(), orderID, req.PartnerID, req.TaskType, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order": order,
			"task":  task,
		},
	})
}

// ReassignOrder handles POST /api/v1/admin/orders/:id/reassign - swaps the
// tailor and/or a delivery partner on an in-flight order
func ReassignOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req ReassignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.TailorID == nil && req.PartnerID == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "At least one of tailor_id or partner_id is required",
			},
		})
		return
	}

	order, err := services.ReassignOrder(config.GetDB(), orderID, req.TailorID, req.PartnerID, req.TaskType, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// QualityApproveOrder handles POST /api/v1/admin/orders/:id/quality-approve
func QualityApproveOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	order, err := services.QualityApprove(config.GetDB(), orderID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CancelOrder handles POST /api/v1/admin/orders/:id/cancel
func CancelOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	// Reason is optional, so an empty body is fine.
	var req CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := services.CancelOrder(config.GetDB(), orderID, user, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CancelDeliveryTask handles POST /api/v1/admin/tasks/:id/cancel
func CancelDeliveryTask(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	taskID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	task, err := services.CancelDeliveryTask(config.GetDB(), taskID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}

// RefundPayment handles POST /api/v1/admin/payments/:id/refund
func RefundPayment(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	paymentID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	payment, err := services.RefundPayment(config.GetDB(), services.GetRazorpayService(), paymentID, req.Amount, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    payment,
	})
}

// CreatePayout handles POST /api/v1/admin/payouts - settles earnings out to a
// tailor or delivery partner
func CreatePayout(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	payout, err := services.CreatePayout(config.GetDB(), services.GetRazorpayService(), config.GetConfig(), req.UserID, req.Amount, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    payout,
	})
}
