package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipe-recommender/backend/internal/logging"
	"github.com/pageza/recipe-recommender/backend/internal/service"
)

type IngredientHandler struct {
	recipes service.IRecipeService
}

func NewIngredientHandler(recipes service.IRecipeService) *IngredientHandler {
	return &IngredientHandler{recipes: recipes}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ingredients/", h.ListIngredients)
}

// ListIngredients returns every ingredient
func (h *IngredientHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.recipes.ListIngredients(c.Request.Context())
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to list ingredients")
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	RespondSimple(c, "Successfully retrieved all ingredients", ingredients)
}
