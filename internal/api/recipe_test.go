package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-recommender/backend/internal/mocks"
	"github.com/pageza/recipe-recommender/backend/internal/pagination"
	"github.com/pageza/recipe-recommender/backend/internal/service"
	"github.com/pageza/recipe-recommender/backend/internal/testhelpers"
)

func TestListRecipes(t *testing.T) {
	router, _ := setupSeededRouter(t)

	w := performRequest(router, http.MethodGet, "/recipes/", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeList(t, w)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, http.StatusOK, body.Code)
	assert.Equal(t, "Successfully retrieved recipes", body.Message)
	assert.Equal(t, []uint{1, 2, 3}, idsOf(body.Data))
	assert.Equal(t, Meta{Total: 3, Pages: 1}, body.Meta)
	assert.Nil(t, body.Links.Next)
	assert.Nil(t, body.Links.Previous)

	require.Len(t, body.Data[0].Tags, 2)
	assert.Equal(t, "dessert", body.Data[0].Tags[0].TagName)
	assert.Equal(t, "cocoa", body.Data[0].Ingredients[1].IngredientName)
}

func TestFilterRecipes(t *testing.T) {
	router, _ := setupSeededRouter(t)

	tests := []struct {
		name    string
		path    string
		body    string
		want    []uint
		message string
	}{
		{
			name:    "by tag",
			path:    "/recipes/tags/",
			body:    `{"tags": ["dessert"]}`,
			want:    []uint{1, 2},
			message: "Successfully retrieved recipes containing the tags",
		},
		{
			name:    "by ingredient",
			path:    "/recipes/ingredients/",
			body:    `{"ingredients": ["flour"]}`,
			want:    []uint{1, 3},
			message: "Successfully retrieved recipes containing the ingredients",
		},
		{
			name:    "by tag and ingredient",
			path:    "/recipes/ingredients-and-tags/",
			body:    `{"tags": ["dessert"], "ingredients": ["flour"]}`,
			want:    []uint{1},
			message: "Successfully retrieved recipes containing the tags and ingredients",
		},
		{
			name:    "unknown names ignored",
			path:    "/recipes/tags/",
			body:    `{"tags": ["nonexistent-xyz"]}`,
			want:    []uint{1, 2, 3},
			message: "Successfully retrieved recipes containing the tags",
		},
		{
			name:    "tags route ignores ingredients",
			path:    "/recipes/tags/",
			body:    `{"tags": ["dessert"], "ingredients": ["water"]}`,
			want:    []uint{1, 2},
			message: "Successfully retrieved recipes containing the tags",
		},
		{
			name:    "ingredients route ignores tags",
			path:    "/recipes/ingredients/",
			body:    `{"ingredients": ["flour"], "tags": 42}`,
			want:    []uint{1, 3},
			message: "Successfully retrieved recipes containing the ingredients",
		},
		{
			name:    "null fields",
			path:    "/recipes/ingredients-and-tags/",
			body:    `{"tags": null, "ingredients": null}`,
			want:    []uint{1, 2, 3},
			message: "Successfully retrieved recipes containing the tags and ingredients",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			body := decodeList(t, w)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.want, idsOf(body.Data))
			assert.Equal(t, int64(len(tt.want)), body.Meta.Total)
		})
	}
}

func TestFilterRecipesNoMatch(t *testing.T) {
	router, _ := setupSeededRouter(t)

	w := performRequest(router, http.MethodPost, "/recipes/ingredients-and-tags/", `{"tags": ["bread"], "ingredients": ["lemon"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)

	body := decodeList(t, w)
	assert.Equal(t, Meta{Total: 0, Pages: 0}, body.Meta)
	assert.Nil(t, body.Links.Next)
	assert.Nil(t, body.Links.Previous)
}

func TestFilterRecipesBadBody(t *testing.T) {
	router, _ := setupSeededRouter(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "empty", path: "/recipes/tags/", body: ""},
		{name: "whitespace", path: "/recipes/tags/", body: "  \n"},
		{name: "not json", path: "/recipes/tags/", body: "not json"},
		{name: "truncated", path: "/recipes/ingredients/", body: `{"ingredients": ["flour"`},
		{name: "null body", path: "/recipes/tags/", body: "null"},
		{name: "padded null body", path: "/recipes/ingredients-and-tags/", body: " \n null "},
		{name: "array body", path: "/recipes/tags/", body: `["dessert"]`},
		{name: "number body", path: "/recipes/ingredients/", body: "42"},
		{name: "string instead of list", path: "/recipes/tags/", body: `{"tags": "dessert"}`},
		{name: "numbers in list", path: "/recipes/ingredients-and-tags/", body: `{"ingredients": [1, 2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			body := decodeError(t, w)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, http.StatusBadRequest, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestInvalidAction(t *testing.T) {
	router, _ := setupSeededRouter(t)

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/recipes/tags/"},
		{http.MethodHead, "/recipes/tags/"},
		{http.MethodOptions, "/recipes/ingredients/"},
		{http.MethodPut, "/recipes/ingredients/"},
		{http.MethodPatch, "/recipes/ingredients-and-tags/"},
		{http.MethodDelete, "/recipes/tags/"},
		{http.MethodPost, "/recipes/"},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := performRequest(router, r.method, r.path, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, NewErrorResponse(http.StatusBadRequest, "Invalid action"), decodeError(t, w))
		})
	}
}

func TestListRecipesPagination(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	testhelpers.SeedNumberedRecipes(t, db, 250)
	router := setupRouter(t, service.NewRecipeService(db), db)

	expected := []struct {
		page     string
		count    int
		first    uint
		next     *string
		previous *string
	}{
		{page: "", count: 100, first: 1, next: strPtr("http://example.com/recipes/?page=2")},
		{page: "2", count: 100, first: 101, next: strPtr("http://example.com/recipes/?page=3"), previous: strPtr("http://example.com/recipes/")},
		{page: "3", count: 50, first: 201, previous: strPtr("http://example.com/recipes/?page=2")},
	}

	for _, e := range expected {
		t.Run("page "+e.page, func(t *testing.T) {
			target := "/recipes/"
			if e.page != "" {
				target += "?page=" + e.page
			}
			w := performRequest(router, http.MethodGet, target, "")
			require.Equal(t, http.StatusOK, w.Code)

			body := decodeList(t, w)
			assert.Len(t, body.Data, e.count)
			assert.Equal(t, e.first, body.Data[0].ID)
			assert.Equal(t, Meta{Total: 250, Pages: 3}, body.Meta)
			assert.Equal(t, e.next, body.Links.Next)
			assert.Equal(t, e.previous, body.Links.Previous)
		})
	}
}

func TestFilterRecipesPaginationKeepsQuery(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	testhelpers.SeedNumberedRecipes(t, db, 150)
	router := setupRouter(t, service.NewRecipeService(db), db)

	w := performRequest(router, http.MethodPost, "/recipes/tags/?page=2", `{"tags": []}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeList(t, w)
	assert.Len(t, body.Data, 50)
	assert.Nil(t, body.Links.Next)
	assert.Equal(t, strPtr("http://example.com/recipes/tags/"), body.Links.Previous)
}

func TestListRecipesInvalidPage(t *testing.T) {
	router, _ := setupSeededRouter(t)

	for _, page := range []string{"2", "0", "-1", "abc"} {
		t.Run(page, func(t *testing.T) {
			w := performRequest(router, http.MethodGet, "/recipes/?page="+page, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, NewErrorResponse(http.StatusNotFound, "Invalid page."), decodeError(t, w))
		})
	}
}

func TestListRecipesForwardedScheme(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	testhelpers.SeedNumberedRecipes(t, db, 101)
	router := setupRouter(t, service.NewRecipeService(db), db)

	req := newRequest(http.MethodGet, "/recipes/")
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "api.example.org")
	w := serve(router, req)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeList(t, w)
	assert.Equal(t, strPtr("https://api.example.org/recipes/?page=2"), body.Links.Next)
}

func TestListRecipesServiceError(t *testing.T) {
	recipes := new(mocks.MockRecipeService)
	recipes.On("ListRecipes", mock.Anything, service.RecipeFilter{Tags: []string{"dessert"}}, "").
		Return(nil, errors.New("failed to count recipes: connection refused"))
	router := setupRouter(t, recipes, nil)

	w := performRequest(router, http.MethodPost, "/recipes/tags/", `{"tags": ["dessert"]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t,
		NewErrorResponse(http.StatusInternalServerError, "failed to count recipes: connection refused"),
		decodeError(t, w))
	recipes.AssertExpectations(t)
}

func TestListRecipesPassesPage(t *testing.T) {
	recipes := new(mocks.MockRecipeService)
	recipes.On("ListRecipes", mock.Anything, service.RecipeFilter{}, "last").
		Return(&service.RecipePage{Page: pagination.Page{Number: 1, Size: 100}}, nil)
	router := setupRouter(t, recipes, nil)

	w := performRequest(router, http.MethodGet, "/recipes/?page=last", "")
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, []interface{}{}, raw["data"])
	recipes.AssertExpectations(t)
}

func TestRecipeHandlerUsesRequestContext(t *testing.T) {
	recipes := new(mocks.MockRecipeService)
	recipes.On("ListRecipes", mock.MatchedBy(func(ctx context.Context) bool { return ctx != nil }), service.RecipeFilter{Ingredients: []string{"salt"}}, "1").
		Return(&service.RecipePage{Page: pagination.Page{Number: 1, Size: 100}}, nil)
	router := setupRouter(t, recipes, nil)

	w := performRequest(router, http.MethodPost, "/recipes/ingredients/?page="+strconv.Itoa(1), `{"ingredients": ["salt"]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	recipes.AssertExpectations(t)
}

func strPtr(s string) *string {
	return &s
}
