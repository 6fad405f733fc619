package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/ayush1910-maker/stitching-store-api/config"
	"github.com/ayush1910-maker/stitching-store-api/controllers"
	"github.com/ayush1910-maker/stitching-store-api/middleware"
	"github.com/ayush1910-maker/stitching-store-api/models"
	"github.com/ayush1910-maker/stitching-store-api/services"
	"github.com/ayush1910-maker/stitching-store-api/tests/testutil"
	"github.com/ayush1910-maker/stitching-store-api/utils"
)

// FileUploadAcceptanceTestSuite covers the image workflows over a real HTTP
// server: tailors attaching completion photos, partners attaching proof
// shots, and the local image serving endpoint.
type FileUploadAcceptanceTestSuite struct {
	suite.Suite
	server    *httptest.Server
	db        *gorm.DB
	uploadDir string

	tailor  models.User
	partner models.User
}

// SetupSuite runs once before all tests
func (suite *FileUploadAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	os.Setenv("GO_ENV", "test")

	db := testutil.OpenTestDB(suite.T(),
		&models.User{},
		&models.DeliveryPartner{},
		&models.StitchingOrder{},
		&models.OrderStatusHistory{},
		&models.DeliveryTask{},
	)
	suite.db = db
	config.SetDB(db)

	// Create temporary upload directory for the local serving path
	suite.uploadDir = suite.T().TempDir()
	utils.UploadDir = suite.uploadDir

	suite.server = httptest.NewServer(suite.createRouter())
}

// TearDownSuite runs once after all tests
func (suite *FileUploadAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
	if suite.db != nil {
		sqlDB, _ := suite.db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	}
}

// SetupTest runs before each test
func (suite *FileUploadAcceptanceTestSuite) SetupTest() {
	for _, table := range []string{
		"delivery_tasks", "order_status_histories", "stitching_orders",
		"delivery_partners", "users",
	} {
		suite.db.Exec("DELETE FROM " + table)
	}

	services.NewMockImageService().SetAsMockForTesting()

	suite.tailor = models.User{
		Auth0ID: "auth0|tailor",
		Name:    "Upload Tailor",
		Email:   "tailor@acceptance.test",
		Role:    models.RoleTailor,
	}
	suite.NoError(suite.db.Create(&suite.tailor).Error)

	suite.partner = models.User{
		Auth0ID: "auth0|partner",
		Name:    "Upload Partner",
		Email:   "partner@acceptance.test",
		Role:    models.RoleDelivery,
	}
	suite.NoError(suite.db.Create(&suite.partner).Error)
	suite.NoError(suite.db.Create(&models.DeliveryPartner{UserID: suite.partner.ID}).Error)
}

// createRouter mounts the image-bearing surfaces behind mocked tokens.
func (suite *FileUploadAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)

		tailor := v1.Group("/tailor",
			testutil.MockAuthMiddleware("auth0|tailor", models.RoleTailor),
			middleware.RequireRole(models.RoleTailor))
		{
			tailor.POST("/orders/:id/photos", controllers.UploadCompletionPhoto)
		}

		delivery := v1.Group("/delivery",
			testutil.MockAuthMiddleware("auth0|partner", models.RoleDelivery),
			middleware.RequireRole(models.RoleDelivery))
		{
			delivery.POST("/tasks/:id/proof", controllers.UploadProofImage)
			delivery.POST("/tasks/:id/status", controllers.AdvanceTask)
		}
	}

	return router
}

// seedOrder creates an order assigned to the suite tailor.
func (suite *FileUploadAcceptanceTestSuite) seedOrder(status string) models.StitchingOrder {
	customer := models.User{
		Auth0ID: "auth0|upl-customer",
		Name:    "Upload Customer",
		Email:   "customer@acceptance.test",
		Role:    models.RoleCustomer,
	}
	suite.NoError(suite.db.Create(&customer).Error)

	order := models.StitchingOrder{
		OrderNumber: services.NewOrderNumber(),
		CustomerID:  customer.ID,
		TailorID:    &suite.tailor.ID,
		Status:      status,
		TotalAmount: 1100,
	}
	suite.NoError(suite.db.Create(&order).Error)
	return order
}

// uploadFile posts a multipart file to the live server and returns the
// decoded response.
func (suite *FileUploadAcceptanceTestSuite) uploadFile(path, field, filename string, content []byte) (*http.Response, map[string]interface{}) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if filename != "" {
		part, err := writer.CreateFormFile(field, filename)
		suite.NoError(err)
		_, err = part.Write(content)
		suite.NoError(err)
	}
	suite.NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, suite.server.URL+path, body)
	suite.NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	suite.NoError(err)

	var responseData map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&responseData)
	suite.NoError(err)
	resp.Body.Close()

	return resp, responseData
}

// TestCompletionPhotoWorkflow_Acceptance uploads completion photos and
// verifies they accumulate on the order.
func (suite *FileUploadAcceptanceTestSuite) TestCompletionPhotoWorkflow_Acceptance() {
	order := suite.seedOrder(models.OrderStatusFinishing)

	resp, respData := suite.uploadFile(
		fmt.Sprintf("/api/v1/tailor/orders/%d/photos", order.ID),
		"photo", "front_view.png", []byte("fake png content"))
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	assert.True(suite.T(), respData["success"].(bool))

	resp, respData = suite.uploadFile(
		fmt.Sprintf("/api/v1/tailor/orders/%d/photos", order.ID),
		"photo", "back_view.jpg", []byte("fake jpeg content"))
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	photos := respData["data"].(map[string]interface{})["completion_photos"].([]interface{})
	assert.Len(suite.T(), photos, 2)

	var reloaded models.StitchingOrder
	suite.NoError(suite.db.First(&reloaded, order.ID).Error)
	assert.Len(suite.T(), reloaded.CompletionPhotos, 2)
	assert.Contains(suite.T(), reloaded.CompletionPhotos[0], "completion/")
}

// TestProofUploadAndDelivery_Acceptance runs the proof gate over the wire:
// upload the doorstep shot, then close the leg.
func (suite *FileUploadAcceptanceTestSuite) TestProofUploadAndDelivery_Acceptance() {
	order := suite.seedOrder(models.OrderStatusReadyForDelivery)
	task := models.DeliveryTask{
		OrderID:      order.ID,
		PartnerID:    suite.partner.ID,
		AssignedByID: suite.tailor.ID,
		TaskType:     models.TaskTypeDrop,
		Status:       models.TaskStatusPickedUp,
	}
	suite.NoError(suite.db.Create(&task).Error)

	resp, respData := suite.uploadFile(
		fmt.Sprintf("/api/v1/delivery/tasks/%d/proof", task.ID),
		"proof", "doorstep.jpg", []byte("fake jpeg content"))
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	proofs := respData["data"].(map[string]interface{})["proof_images"].([]interface{})
	assert.Len(suite.T(), proofs, 1)

	// With proof attached the delivered transition goes through
	payload, _ := json.Marshal(map[string]string{"status": "delivered"})
	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/v1/delivery/tasks/%d/status", suite.server.URL, task.ID),
		bytes.NewReader(payload))
	suite.NoError(err)
	req.Header.Set("Content-Type", "application/json")

	deliverResp, err := http.DefaultClient.Do(req)
	suite.NoError(err)
	deliverResp.Body.Close()
	assert.Equal(suite.T(), http.StatusOK, deliverResp.StatusCode)

	var reloaded models.StitchingOrder
	suite.NoError(suite.db.First(&reloaded, order.ID).Error)
	assert.Equal(suite.T(), models.OrderStatusDelivered, reloaded.Status)
}

// TestFileUploadValidation_Acceptance rejects bad uploads over the wire.
func (suite *FileUploadAcceptanceTestSuite) TestFileUploadValidation_Acceptance() {
	order := suite.seedOrder(models.OrderStatusFinishing)

	testCases := []struct {
		name          string
		filename      string
		content       []byte
		expectedCode  string
		expectedError string
	}{
		{"Text file", "notes.txt", []byte("not an image"), "UPLOAD_FAILED", "Only PNG and JPEG"},
		{"GIF file", "animation.gif", []byte("fake gif"), "UPLOAD_FAILED", "Only PNG and JPEG"},
		{"Missing file", "", nil, "MISSING_FILE", "photo file is required"},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			resp, respData := suite.uploadFile(
				fmt.Sprintf("/api/v1/tailor/orders/%d/photos", order.ID),
				"photo", tc.filename, tc.content)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.False(t, respData["success"].(bool))

			errorObj := respData["error"].(map[string]interface{})
			assert.Equal(t, tc.expectedCode, errorObj["code"])
			assert.Contains(t, errorObj["message"], tc.expectedError)
		})
	}

	// Nothing was attached
	var reloaded models.StitchingOrder
	suite.NoError(suite.db.First(&reloaded, order.ID).Error)
	assert.Empty(suite.T(), reloaded.CompletionPhotos)
}

// TestLocalImageServing_Acceptance round-trips locally stored files through
// the public serving endpoint.
func (suite *FileUploadAcceptanceTestSuite) TestLocalImageServing_Acceptance() {
	files := map[string][]byte{
		"design_a.png": []byte("design a content"),
		"design_b.jpg": []byte("design b content"),
	}
	for filename, content := range files {
		suite.NoError(os.WriteFile(filepath.Join(suite.uploadDir, filename), content, 0644))
	}

	for filename, expected := range files {
		resp, err := http.Get(suite.server.URL + "/api/v1/uploads/" + filename)
		suite.NoError(err)

		body, err := io.ReadAll(resp.Body)
		suite.NoError(err)
		resp.Body.Close()

		assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
		assert.Equal(suite.T(), expected, body)
		assert.Equal(suite.T(), utils.ImageContentType(filename), resp.Header.Get("Content-Type"))
	}

	// Unknown files are a clean 404
	resp, err := http.Get(suite.server.URL + "/api/v1/uploads/missing.png")
	suite.NoError(err)
	resp.Body.Close()
	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
}

// TestFileUploadAcceptanceSuite runs the acceptance test suite
func TestFileUploadAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(FileUploadAcceptanceTestSuite))
}
