package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ayush1910-maker/stitching-store-api/services"
)

// kindStatus maps a service error kind to an HTTP status code. An invalid
// transition is a 409: the resource exists but its current state refuses the
// request.
var kindStatus = map[services.Kind]int{
	services.KindNotFound:          http.StatusNotFound,
	services.KindForbidden:         http.StatusForbidden,
	services.KindInvalidTransition: http.StatusConflict,
	services.KindValidationFailed:  http.StatusBadRequest,
	services.KindConflict:          http.StatusConflict,
	services.KindExternalFailure:   http.StatusBadGateway,
	services.KindSignatureInvalid:  http.StatusBadRequest,
	services.KindInternal:          http.StatusInternalServerError,
}

// respondServiceError writes a service-layer error in the standard envelope.
func respondServiceError(c *gin.Context, err error) {
	kind := services.ErrorKind(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
		kind = services.KindInternal
	}

	message := "An unexpected error occurred"
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    string(kind),
			"message": message,
		},
	})
}

// respondValidationError writes a binding failure in the standard envelope.
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondUnauthorized writes an auth resolution failure in the standard envelope.
func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Could not extract user information",
		},
	})
}
