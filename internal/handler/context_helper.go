package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/gatortutors/gator-tutors-api/internal/middleware"
	"github.com/gatortutors/gator-tutors-api/internal/models"
)

// currentClaims pulls validated JWT claims from the gin context. The second
// return is false on public routes where no token was presented.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
