package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipe-recommender/backend/internal/logging"
	"github.com/pageza/recipe-recommender/backend/internal/model"
	"github.com/pageza/recipe-recommender/backend/internal/pagination"
	"github.com/pageza/recipe-recommender/backend/internal/service"
)

const (
	msgRecipes                  = "Successfully retrieved recipes"
	msgRecipesByIngredients     = "Successfully retrieved recipes containing the ingredients"
	msgRecipesByTags            = "Successfully retrieved recipes containing the tags"
	msgRecipesByIngredientsTags = "Successfully retrieved recipes containing the tags and ingredients"
	msgInvalidAction            = "Invalid action"
	msgInvalidPage              = "Invalid page."
)

// filterAction is one POST filter route: where it lives, how its body maps to
// a filter and what a successful response says.
type filterAction struct {
	path    string
	message string
	decode  func(body []byte) (service.RecipeFilter, error)
}

var filterActions = []filterAction{
	{
		path:    "/recipes/ingredients/",
		message: msgRecipesByIngredients,
		decode: func(body []byte) (service.RecipeFilter, error) {
			var req IngredientsRequest
			err := decodeBody(body, &req)
			return service.RecipeFilter{Ingredients: req.Ingredients}, err
		},
	},
	{
		path:    "/recipes/tags/",
		message: msgRecipesByTags,
		decode: func(body []byte) (service.RecipeFilter, error) {
			var req TagsRequest
			err := decodeBody(body, &req)
			return service.RecipeFilter{Tags: req.Tags}, err
		},
	},
	{
		path:    "/recipes/ingredients-and-tags/",
		message: msgRecipesByIngredientsTags,
		decode: func(body []byte) (service.RecipeFilter, error) {
			var req IngredientsAndTagsRequest
			err := decodeBody(body, &req)
			return service.RecipeFilter{Ingredients: req.Ingredients, Tags: req.Tags}, err
		},
	},
}

// invalidActionMethods are answered with "Invalid action" on the filter routes
var invalidActionMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// RecipeHandler serves the paginated recipe listing and the filter routes
type RecipeHandler struct {
	recipes service.IRecipeService
}

func NewRecipeHandler(recipes service.IRecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/recipes/", h.ListRecipes)
	router.POST("/recipes/", InvalidAction)

	for _, action := range filterActions {
		router.POST(action.path, h.filterRecipes(action))
		for _, method := range invalidActionMethods {
			router.Handle(method, action.path, InvalidAction)
		}
	}
}

// ListRecipes returns a page of all recipes ordered by id
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	h.respondRecipes(c, service.RecipeFilter{}, msgRecipes)
}

func (h *RecipeHandler) filterRecipes(action filterAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			RespondError(c, http.StatusBadRequest, err.Error())
			return
		}

		filter, err := action.decode(body)
		if err != nil {
			RespondError(c, http.StatusBadRequest, err.Error())
			return
		}

		h.respondRecipes(c, filter, action.message)
	}
}

func (h *RecipeHandler) respondRecipes(c *gin.Context, filter service.RecipeFilter, message string) {
	page, err := h.recipes.ListRecipes(c.Request.Context(), filter, c.Query(pagination.PageQueryParam))
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPage) {
			RespondError(c, http.StatusNotFound, msgInvalidPage)
			return
		}
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to list recipes")
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	recipes := page.Recipes
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	RespondList(c, message, recipes, page.Page)
}

// InvalidAction rejects a method that the route does not support
func InvalidAction(c *gin.Context) {
	RespondError(c, http.StatusBadRequest, msgInvalidAction)
}
