package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipe-recommender/backend/internal/model"
	"github.com/pageza/recipe-recommender/backend/internal/service"
	"github.com/pageza/recipe-recommender/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recipeListBody struct {
	Status  string         `json:"status"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    []model.Recipe `json:"data"`
	Meta    Meta           `json:"meta"`
	Links   Links          `json:"links"`
}

func setupRouter(t *testing.T, recipes service.IRecipeService, db *gorm.DB) *gin.Engine {
	t.Helper()
	router := gin.New()
	RegisterRoutes(router, db, recipes)
	return router
}

// setupSeededRouter serves the fixture kitchen used by the handler tests:
// 1 brownies, 2 sorbet, 3 flatbread.
func setupSeededRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupSQLiteDB(t)
	testhelpers.SeedRecipes(t, db,
		testhelpers.RecipeFixture{Name: "brownies", Tags: []string{"dessert", "quick"}, Ingredients: []string{"flour", "cocoa"}},
		testhelpers.RecipeFixture{Name: "sorbet", Tags: []string{"dessert"}, Ingredients: []string{"sugar", "lemon"}},
		testhelpers.RecipeFixture{Name: "flatbread", Tags: []string{"bread"}, Ingredients: []string{"flour", "water"}},
	)
	return setupRouter(t, service.NewRecipeService(db), db), db
}

func performRequest(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return serve(router, req)
}

func newRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) recipeListBody {
	t.Helper()
	var body recipeListBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func idsOf(recipes []model.Recipe) []uint {
	ids := make([]uint, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	return ids
}

func setupEmptyDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testhelpers.SetupSQLiteDB(t)
}

func newService(db *gorm.DB) service.IRecipeService {
	return service.NewRecipeService(db)
}
