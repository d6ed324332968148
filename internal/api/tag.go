package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipe-recommender/backend/internal/logging"
	"github.com/pageza/recipe-recommender/backend/internal/service"
)

type TagHandler struct {
	recipes service.IRecipeService
}

func NewTagHandler(recipes service.IRecipeService) *TagHandler {
	return &TagHandler{recipes: recipes}
}

func (h *TagHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tags/", h.ListTags)
}

// ListTags returns every tag
func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.recipes.ListTags(c.Request.Context())
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to list tags")
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	RespondSimple(c, "Successfully retrieved all tags", tags)
}
