package testhelpers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipe-recommender/backend/internal/model"
)

// RecipeFixture describes a recipe to seed along with its associations
type RecipeFixture struct {
	Name        string
	Tags        []string
	Ingredients []string
}

// SeedRecipes inserts the fixtures in order, so ids ascend with the argument
// order. Tags and ingredients are created on first use.
func SeedRecipes(t *testing.T, db *gorm.DB, fixtures ...RecipeFixture) []model.Recipe {
	t.Helper()

	recipes := make([]model.Recipe, 0, len(fixtures))
	for _, f := range fixtures {
		recipe := model.Recipe{
			Name:         f.Name,
			Minutes:      30,
			Description:  "seeded " + f.Name,
			Steps:        model.StringList{"prepare", "cook"},
			NSteps:       2,
			NIngredients: len(f.Ingredients),
			Calories:     100,
		}
		require.NoError(t, db.Omit("Tags", "Ingredients").Create(&recipe).Error)

		for _, name := range f.Tags {
			tag := model.Tag{TagName: name}
			require.NoError(t, db.Where(model.Tag{TagName: name}).FirstOrCreate(&tag).Error)
			require.NoError(t, db.Create(&model.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error)
		}
		for _, name := range f.Ingredients {
			ingredient := model.Ingredient{IngredientName: name}
			require.NoError(t, db.Where(model.Ingredient{IngredientName: name}).FirstOrCreate(&ingredient).Error)
			require.NoError(t, db.Create(&model.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ingredient.ID}).Error)
		}

		recipes = append(recipes, recipe)
	}
	return recipes
}

// SeedNumberedRecipes inserts n recipes named "recipe-1" ... "recipe-n" with no associations
func SeedNumberedRecipes(t *testing.T, db *gorm.DB, n int) {
	t.Helper()

	recipes := make([]model.Recipe, n)
	for i := range recipes {
		recipes[i] = model.Recipe{
			Name:  fmt.Sprintf("recipe-%d", i+1),
			Steps: model.StringList{"step"},
		}
	}
	require.NoError(t, db.Omit("Tags", "Ingredients").CreateInBatches(&recipes, 100).Error)
}
