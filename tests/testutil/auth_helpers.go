package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/ayush1910-maker/stitching-store-api/middleware"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing. The role is
// written into the namespaced custom claim the way the Auth0 post-login action
// does in production.
func MockValidatedClaims(subject, issuer, role string, scopes []string) *validator.ValidatedClaims {
	scopeString := ""
	if len(scopes) > 0 {
		for i, scope := range scopes {
			if i > 0 {
				scopeString += " "
			}
			scopeString += scope
		}
	}

	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: scopeString,
			Role:  role,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID, issuer, role string, scopes []string) {
	claims := MockValidatedClaims(userID, issuer, role, scopes)
	c.Set("user_id", userID)
	c.Set("validated_claims", claims)
}

// MockAuthMiddleware returns a middleware that stamps the context the way
// EnsureValidToken would for a token belonging to the given user.
func MockAuthMiddleware(auth0ID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, auth0ID, "https://test.auth0.invalid/", role, nil)
		c.Next()
	}
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}
