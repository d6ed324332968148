package api

import (
	"bytes"
	"errors"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// TagsRequest is the body of POST /recipes/tags/
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// IngredientsRequest is the body of POST /recipes/ingredients/
type IngredientsRequest struct {
	Ingredients []string `json:"ingredients"`
}

// IngredientsAndTagsRequest is the body of POST /recipes/ingredients-and-tags/
type IngredientsAndTagsRequest struct {
	Ingredients []string `json:"ingredients"`
	Tags        []string `json:"tags"`
}

var (
	errEmptyBody = errors.New("request body is empty")
	errNotObject = errors.New("request body must be a JSON object")
)

// decodeBody unmarshals a JSON object into out. Null fields inside the
// object leave out untouched, which means no filter for that field.
func decodeBody(body []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return errEmptyBody
	}
	if trimmed[0] != '{' {
		return errNotObject
	}
	return json.Unmarshal(trimmed, out)
}

// RequestURL rebuilds the absolute URL the client used, honouring the
// forwarding headers set by a reverse proxy.
func RequestURL(c *gin.Context) *url.URL {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := c.Request.Host
	if forwarded := c.GetHeader("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}

	return &url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
	}
}
