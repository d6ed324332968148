package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/pageza/recipe-recommender/backend/internal/logging"
	"github.com/pageza/recipe-recommender/backend/internal/pagination"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Meta summarises the full result set behind a list response
type Meta struct {
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Links holds absolute URLs to the neighbouring pages, null when absent
type Links struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// ListResponse is the envelope for paginated results
type ListResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Meta    Meta        `json:"meta"`
	Links   Links       `json:"links"`
}

// SimpleResponse is the envelope for unpaginated results
type SimpleResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the envelope for every failure
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse builds an error envelope for the given status code
func NewErrorResponse(code int, message string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Code: code, Message: message}
}

// RespondList writes a paginated success envelope. Links are built from the
// absolute URL of the current request.
func RespondList(c *gin.Context, message string, data interface{}, page pagination.Page) {
	current := RequestURL(c)
	writeJSON(c, http.StatusOK, ListResponse{
		Status:  StatusSuccess,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
		Meta:    Meta{Total: page.Total, Pages: page.Pages},
		Links: Links{
			Next:     page.NextLink(current),
			Previous: page.PreviousLink(current),
		},
	})
}

// RespondSimple writes an unpaginated success envelope
func RespondSimple(c *gin.Context, message string, data interface{}) {
	writeJSON(c, http.StatusOK, SimpleResponse{
		Status:  StatusSuccess,
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// RespondError writes an error envelope. The transport status always matches
// the code in the body.
func RespondError(c *gin.Context, code int, message string) {
	writeJSON(c, code, NewErrorResponse(code, message))
}

// AbortWithError writes an error envelope and stops the handler chain
func AbortWithError(c *gin.Context, code int, message string) {
	RespondError(c, code, message)
	c.Abort()
}

func writeJSON(c *gin.Context, code int, body interface{}) {
	b, err := json.Marshal(body)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to encode response")
		code = http.StatusInternalServerError
		b, _ = json.Marshal(NewErrorResponse(code, "failed to encode response"))
	}
	c.Data(code, "application/json; charset=utf-8", b)
}
