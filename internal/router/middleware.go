package router

import (
	"net/url"

	"github.com/buildledger/backend/internal/models"
	"github.com/gin-gonic/gin"
)

// URLMiddleware makes the API base URL available to all handlers so that
// they can build absolute links.
func URLMiddleware(url *url.URL) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(models.DBContextURL), url.String())
		c.Next()
	}
}
