package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// allowed answers a preflight request with the verbs the resource supports.
func allowed(c *gin.Context, verbs string) {
	c.Header("allow", verbs)
	c.Status(http.StatusNoContent)
}

func OptionsGet(c *gin.Context) {
	allowed(c, "GET")
}

func OptionsGetPost(c *gin.Context) {
	allowed(c, "GET, POST")
}

func OptionsGetPatchDelete(c *gin.Context) {
	allowed(c, "GET, PATCH, DELETE")
}

func OptionsPatchDelete(c *gin.Context) {
	allowed(c, "PATCH, DELETE")
}

func OptionsPost(c *gin.Context) {
	allowed(c, "POST")
}
