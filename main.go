package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/controllers"
	"github.com/ayush1910-maker/stitching-store-api/middleware"
	"github.com/ayush1910-maker/stitching-store-api/models"
	"github.com/ayush1910-maker/stitching-store-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Stitching Store API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.TailorDetail{},
		&models.DeliveryPartner{},
		&models.StitchingOrder{},
		&models.EcommerceOrder{},
		&models.OrderStatusHistory{},
		&models.DeliveryTask{},
		&models.AlterationRequest{},
		&models.Payment{},
		&models.Payout{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize services
	s3Service, err := services.InitS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}
	services.InitImageService(s3Service)
	services.InitRazorpayService(cfg)

	router := setupRouter(cfg)

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the router with all routes and middleware attached
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authRequired := middleware.EnsureValidToken(cfg)

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Gateway webhook: authenticated by HMAC signature, not by JWT
		v1.POST("/payments/webhook", controllers.RazorpayWebhook)

		// Locally stored images
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)

		// Account management
		users := v1.Group("/users", authRequired)
		{
			users.POST("", controllers.CreateUser)
			users.GET("/me", controllers.GetMyProfile)
			users.PUT("/me", controllers.UpdateMyProfile)
		}

		// Customer surface
		orders := v1.Group("/orders", authRequired, middleware.RequireRole(models.RoleCustomer, models.RoleAdmin))
		{
			orders.POST("", controllers.CreateOrder)
			orders.GET("", controllers.ListMyOrders)
			orders.GET("/:id", controllers.GetOrder)
			orders.POST("/:id/design-images", controllers.UploadDesignImage)
			orders.POST("/:id/alteration", controllers.RequestAlteration)
		}

		payments := v1.Group("/payments", authRequired, middleware.RequireRole(models.RoleCustomer, models.RoleAdmin))
		{
			payments.POST("", controllers.CreatePayment)
			payments.POST("/verify", controllers.VerifyPayment)
			payments.GET("", controllers.ListMyPayments)
		}

		// Tailor surface
		tailor := v1.Group("/tailor", authRequired, middleware.RequireRole(models.RoleTailor))
		{
			tailor.GET("/orders", controllers.ListAssignedOrders)
			tailor.POST("/orders/:id/accept", controllers.AcceptOrder)
			tailor.POST("/orders/:id/reject", controllers.RejectOrder)
			tailor.POST("/orders/:id/stage", controllers.AdvanceStage)
			tailor.POST("/orders/:id/ready-for-delivery", controllers.MarkReadyForDelivery)
			tailor.POST("/orders/:id/photos", controllers.UploadCompletionPhoto)
		}

		// Delivery partner surface
		delivery := v1.Group("/delivery", authRequired, middleware.RequireRole(models.RoleDelivery))
		{
			delivery.GET("/tasks", controllers.ListMyTasks)
			delivery.POST("/tasks/:id/status", controllers.AdvanceTask)
			delivery.POST("/tasks/:id/proof", controllers.UploadProofImage)
		}

		// Admin surface
		admin := v1.Group("/admin", authRequired, middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/orders", controllers.ListAllOrders)
			admin.POST("/orders/:id/assign-tailor", controllers.AssignTailorToOrder)
			admin.POST("/orders/:id/assign-task", controllers.AssignDeliveryTask)
			admin.POST("/orders/:id/reassign", controllers.ReassignOrder)
			admin.POST("/orders/:id/quality-approve", controllers.QualityApproveOrder)
			admin.POST("/orders/:id/cancel", controllers.CancelOrder)
			admin.POST("/tasks/:id/cancel", controllers.CancelDeliveryTask)
			admin.POST("/payments/:id/refund", controllers.RefundPayment)
			admin.POST("/payouts", controllers.CreatePayout)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Stitching Store API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
