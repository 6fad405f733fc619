package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/middleware"
	"github.com/ayush1910-maker/stitching-store-api/models"
	"github.com/ayush1910-maker/stitching-store-api/services"
)

// RejectOrderRequest represents the request body for rejecting an assignment
type RejectOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AdvanceStageRequest represents the request body for moving an order through production
type AdvanceStageRequest struct {
	Stage string `json:"stage" binding:"required,oneof=cutting stitching finishing ready"`
}

// ListAssignedOrders handles GET /api/v1/tailor/orders - lists orders assigned to the caller
func ListAssignedOrders(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	db := config.GetDB()
	query := db.Preload("Customer").Where("tailor_id = ?", user.ID)
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

// AcceptOrder handles POST /api/v1/tailor/orders/:id/accept
func AcceptOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	order, err := services.AcceptOrder(config.GetDB(), orderID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// RejectOrder handles POST /api/v1/tailor/orders/:id/reject
func RejectOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := services.RejectOrder(config.GetDB(), orderID, user, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// AdvanceStage handles POST /api/v1/tailor/orders/:id/stage - moves an order
// one production step forward (cutting, stitching, finishing, ready)
func AdvanceStage(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req AdvanceStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := services.AdvanceProductionStage(config.GetDB(), orderID, user, req.Stage)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// MarkReadyForDelivery handles POST /api/v1/tailor/orders/:id/ready-for-delivery
func MarkReadyForDelivery(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	order, err := services.MarkReadyForDelivery(config.GetDB(), orderID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UploadCompletionPhoto handles POST /api/v1/tailor/orders/:id/photos - attaches
// a finished-garment photo to an order the caller owns
func UploadCompletionPhoto(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A photo file is required",
			},
		})
		return
	}

	imageKey, err := services.GetImageService().UploadImage(fileHeader, services.ImageCategoryCompletion)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	order, err := services.AddCompletionPhoto(config.GetDB(), orderID, user, imageKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
