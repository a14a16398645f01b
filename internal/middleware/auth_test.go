package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fulfillment-api/internal/models"
	"github.com/noah-isme/fulfillment-api/internal/service"
)

const testSecret = "middleware-test-secret"

func testAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: testSecret,
		AccessTokenExpiry: time.Minute,
		Issuer:            "fulfillment-api",
	})
}

func signToken(t *testing.T, secret string, role models.UserRole) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		Email:  "ops@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runProtected(t *testing.T, handlers []gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reached := false
	r := gin.New()
	chain := append([]gin.HandlerFunc{}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})
	r.GET("/protected", chain...)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, reached
}

func TestJWTMissingHeader(t *testing.T) {
	w, reached := runProtected(t, []gin.HandlerFunc{JWT(testAuthService())}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestJWTMalformedHeader(t *testing.T) {
	w, reached := runProtected(t, []gin.HandlerFunc{JWT(testAuthService())}, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestJWTWrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", models.RoleStaff)
	w, reached := runProtected(t, []gin.HandlerFunc{JWT(testAuthService())}, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestJWTValidToken(t *testing.T) {
	token := signToken(t, testSecret, models.RoleStaff)
	w, reached := runProtected(t, []gin.HandlerFunc{JWT(testAuthService())}, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
}

func TestRequireRolesRejectsStaff(t *testing.T) {
	token := signToken(t, testSecret, models.RoleStaff)
	handlers := []gin.HandlerFunc{JWT(testAuthService()), RequireRoles(models.RoleAdmin)}
	w, reached := runProtected(t, handlers, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, reached)
}

func TestRequireRolesAllowsAdmin(t *testing.T) {
	token := signToken(t, testSecret, models.RoleAdmin)
	handlers := []gin.HandlerFunc{JWT(testAuthService()), RequireRoles(models.RoleAdmin)}
	w, reached := runProtected(t, handlers, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	w, reached := runProtected(t, []gin.HandlerFunc{RequireRoles(models.RoleAdmin)}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}
