package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/newrestaurant/services"
	"github.com/yeremiapane/newrestaurant/utils"
)

// RequireResource lets the request through when the caller may manage resource.
// Owner-scoped checks stay in the services.
func RequireResource(resource services.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := services.Authorize(ActorFrom(c), resource, 0); err != nil {
			utils.RespondServiceError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
