package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipe-recommender/backend/internal/api"
	"github.com/pageza/recipe-recommender/backend/internal/logging"
)

// Recovery turns a panic in a handler into a 500 error envelope
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.Ctx(c.Request.Context()).Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("Recovered from panic")
		api.AbortWithError(c, http.StatusInternalServerError, "Internal Server Error")
	})
}
