package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/middleware"
	"github.com/ayush1910-maker/stitching-store-api/models"
	"github.com/ayush1910-maker/stitching-store-api/services"
)

// AdvanceTaskRequest represents the request body for moving a task forward
type AdvanceTaskRequest struct {
	Status string `json:"status" binding:"required,oneof=on_the_way reached picked_up delivered"`
}

// ListMyTasks handles GET /api/v1/delivery/tasks - lists tasks assigned to the caller
func ListMyTasks(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	db := config.GetDB()
	query := db.Preload("Order").Where("partner_id = ?", user.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []models.DeliveryTask
	if err := query.Order("created_at desc").Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load tasks",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tasks,
	})
}

// AdvanceTask handles POST /api/v1/delivery/tasks/:id/status - moves a task
// one step forward along its route
func AdvanceTask(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	taskID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req AdvanceTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	task, err := services.AdvanceDeliveryTask(config.GetDB(), taskID, user, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}

// UploadProofImage handles POST /api/v1/delivery/tasks/:id/proof - attaches a
// proof-of-handling photo to the caller's task
func UploadProofImage(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondUnauthorized(c)
		return
	}

	taskID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A proof image file is required",
			},
		})
		return
	}

	imageKey, err := services.GetImageService().UploadImage(fileHeader, services.ImageCategoryProof)
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

	task, err := services.AddProofImages(config.GetDB(), taskID, user, []string{imageKey})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    task,
	})
}
