package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/recipe-recommender/backend/internal/database"
	"github.com/pageza/recipe-recommender/backend/internal/logging"
	"github.com/pageza/recipe-recommender/backend/internal/service"
)

// HealthCheck reports whether the API can reach its database
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context(), db); err != nil {
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("Health check failed")
			RespondError(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// NotFound answers unknown routes with an error envelope
func NotFound(c *gin.Context) {
	RespondError(c, http.StatusNotFound, "Not found.")
}

// MethodNotAllowed answers known routes called with an unsupported method
func MethodNotAllowed(c *gin.Context) {
	RespondError(c, http.StatusMethodNotAllowed, "Method \""+c.Request.Method+"\" not allowed.")
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, db *gorm.DB, recipes service.IRecipeService) {
	router.GET("/health", HealthCheck(db))

	root := router.Group("")
	NewIngredientHandler(recipes).RegisterRoutes(root)
	NewTagHandler(recipes).RegisterRoutes(root)
	NewRecipeHandler(recipes).RegisterRoutes(root)

	// A redirect would answer without an envelope
	router.RedirectTrailingSlash = false
	router.HandleMethodNotAllowed = true
	router.NoRoute(NotFound)
	router.NoMethod(MethodNotAllowed)
}
