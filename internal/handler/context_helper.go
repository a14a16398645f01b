package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fulfillment-api/internal/middleware"
	"github.com/noah-isme/fulfillment-api/internal/models"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// pathID parses the :id parameter. Non-numeric values do not address any
// resource, so they surface as not found rather than bad request.
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}
	return id, nil
}
