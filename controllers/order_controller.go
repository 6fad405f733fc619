package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/middleware"
	"github.com/ayush1910-maker/stitching-store-api/models"
	"github.com/ayush1910-maker/stitching-store-api/services"
)

// CreateOrderRequest represents the request body for creating a stitching order
type CreateOrderRequest struct {
	DeliveryType        string   `json:"delivery_type" binding:"omitempty,oneof=normal express premium"`
	FabricSource        string   `json:"fabric_source" binding:"omitempty,oneof=CUSTOMER PLATFORM"`
	SpecialInstructions string   `json:"special_instructions"`
	BasePrice           float64  `json:"base_price" binding:"required,gt=0"`
	DeliveryCharge      float64  `json:"delivery_charge" binding:"omitempty,gte=0"`
	RushCharge          float64  `json:"rush_charge" binding:"omitempty,gte=0"`
	Discount            float64  `json:"discount" binding:"omitempty,gte=0"`
	Tax                 float64  `json:"tax" binding:"omitempty,gte=0"`
	DesignImages        []string `json:"design_images"`
}

// AlterationRequestBody represents the request body for requesting an alteration
type AlterationRequestBody struct {
	Reason string   `json:"reason" binding:"required"`
	Images []string `json:"images"`
}

// CreateOrder handles POST /api/v1/orders - places a new stitching order (customers only)
func CreateOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order := models.StitchingOrder{
		CustomerID:          user.ID,
		DeliveryType:        req.DeliveryType,
		FabricSource:        req.FabricSource,
		SpecialInstructions: req.SpecialInstructions,
		Pricing: models.Pricing{
			BasePrice:      req.BasePrice,
			DeliveryCharge: req.DeliveryCharge,
			RushCharge:     req.RushCharge,
			Discount:       req.Discount,
			Tax:            req.Tax,
		},
		DesignImages: req.DesignImages,
	}
	if order.DeliveryType == "" {
		order.DeliveryType = "normal"
	}
	if order.FabricSource == "" {
		order.FabricSource = "CUSTOMER"
	}
	order.TotalAmount = req.BasePrice + req.DeliveryCharge + req.RushCharge + req.Tax - req.Discount

	created, err := services.CreateStitchingOrder(config.GetDB(), &order)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

// ListMyOrders handles GET /api/v1/orders - lists the caller's stitching orders
func ListMyOrders(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	db := config.GetDB()
	query := db.Where("customer_id = ?", user.ID)
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

// GetOrder handles GET /api/v1/orders/:id - returns one order with its status timeline
func GetOrder(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	db := config.GetDB()
	var order models.StitchingOrder
	query := db.Preload("Customer").Preload("Tailor")
	// Customers only see their own orders; staff roles see any order.
	if user.Role == models.RoleCustomer {
		query = query.Where("customer_id = ?", user.ID)
	}
	if err := query.First(&order, orderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}
	order.Status = models.NormalizeOrderStatus(order.Status)

	timeline, err := models.OrderTimeline(db, order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order timeline",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":    order,
			"timeline": timeline,
		},
	})
}

// RequestAlteration handles POST /api/v1/orders/:id/alteration - customer asks for rework
func RequestAlteration(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req AlterationRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, request, err := services.RequestAlteration(config.GetDB(), orderID, user, req.Reason, req.Images)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":      order,
			"alteration": request,
		},
	})
}

// UploadDesignImage handles POST /api/v1/orders/:id/design-images - attaches a
// reference image to an order the caller owns, before production starts
func UploadDesignImage(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	fileHeader, err := c.FormFile("design")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A design file is required",
			},
		})
		return
	}

	imageKey, err := services.GetImageService().UploadImage(fileHeader, services.ImageCategoryDesign)
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

	order, err := services.AddDesignImage(config.GetDB(), orderID, user, imageKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// parseIDParam reads a numeric path parameter, writing a validation error on failure
func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid id parameter",
			},
		})
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
