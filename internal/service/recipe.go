package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pageza/recipe-recommender/backend/internal/metrics"
	"github.com/pageza/recipe-recommender/backend/internal/model"
	"github.com/pageza/recipe-recommender/backend/internal/pagination"
)

// RecipeFilter holds the tag and ingredient names a recipe must all carry.
// Names that match no stored tag or ingredient are ignored.
type RecipeFilter struct {
	Tags        []string
	Ingredients []string
}

// RecipePage is one page of a filtered, id ordered recipe listing
type RecipePage struct {
	Recipes []model.Recipe
	Page    pagination.Page
}

// RecipeService handles read access to recipes, tags and ingredients
type RecipeService struct {
	db       *gorm.DB
	pageSize int
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{
		db:       db,
		pageSize: pagination.DefaultPageSize,
	}
}

// ListTags returns every tag ordered by id
func (s *RecipeService) ListTags(ctx context.Context) ([]model.Tag, error) {
	tags := []model.Tag{}
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// ListIngredients returns every ingredient ordered by id
func (s *RecipeService) ListIngredients(ctx context.Context) ([]model.Ingredient, error) {
	ingredients := []model.Ingredient{}
	if err := s.db.WithContext(ctx).Order("id").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// ListRecipes returns the requested page of recipes associated with every
// resolved tag and ingredient of the filter, ordered by id
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter, page string) (*RecipePage, error) {
	start := time.Now()
	result, err := s.listRecipes(ctx, filter, page)
	metrics.RecordRecipeFilter(len(filter.Tags) > 0, len(filter.Ingredients) > 0, time.Since(start), err)
	return result, err
}

func (s *RecipeService) listRecipes(ctx context.Context, filter RecipeFilter, rawPage string) (*RecipePage, error) {
	db := s.db.WithContext(ctx)

	tagIDs, err := resolveIDs(db, &model.Tag{}, "tag_name", filter.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tags: %w", err)
	}
	ingredientIDs, err := resolveIDs(db, &model.Ingredient{}, "ingredient_name", filter.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve ingredients: %w", err)
	}

	// filtered builds a fresh statement each time so count and find don't share state
	filtered := func() *gorm.DB {
		q := db.Model(&model.Recipe{})
		for _, id := range tagIDs {
			q = q.Where("recipes.id IN (?)", db.Table("recipe_tags").Select("recipe_id").Where("tag_id = ?", id))
		}
		for _, id := range ingredientIDs {
			q = q.Where("recipes.id IN (?)", db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id = ?", id))
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}

	page, err := pagination.Resolve(rawPage, total, s.pageSize)
	if err != nil {
		return nil, err
	}

	recipes := []model.Recipe{}
	if total > 0 {
		err := filtered().
			Preload("Tags", orderByID("tags")).
			Preload("Ingredients", orderByID("ingredients")).
			Order("recipes.id ASC").
			Offset(page.Offset()).
			Limit(page.Size).
			Find(&recipes).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load recipes: %w", err)
		}
	}

	for i := range recipes {
		if recipes[i].Tags == nil {
			recipes[i].Tags = []model.Tag{}
		}
		if recipes[i].Ingredients == nil {
			recipes[i].Ingredients = []model.Ingredient{}
		}
	}

	return &RecipePage{Recipes: recipes, Page: page}, nil
}

// resolveIDs maps names to the ids of existing rows; unknown names drop out
func resolveIDs(db *gorm.DB, table interface{}, column string, names []string) ([]uint, error) {
	names = uniqueNames(names)
	if len(names) == 0 {
		return nil, nil
	}

	var ids []uint
	err := db.Model(table).
		Where(column+" IN ?", names).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func orderByID(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id")
	}
}
