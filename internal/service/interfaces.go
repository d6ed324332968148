package service

import (
	"context"

	"github.com/pageza/recipe-recommender/backend/internal/model"
)

// IRecipeService defines the read operations exposed by the API
type IRecipeService interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	ListIngredients(ctx context.Context) ([]model.Ingredient, error)
	ListRecipes(ctx context.Context, filter RecipeFilter, page string) (*RecipePage, error)
}

var _ IRecipeService = (*RecipeService)(nil)
