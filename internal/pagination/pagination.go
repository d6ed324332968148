// Package pagination slices id-ordered result sets into fixed size pages and
// builds the navigation links returned with every list response.
package pagination

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is the fixed number of items per page
	DefaultPageSize = 100
	// PageQueryParam is the query parameter carrying the 1-indexed page number
	PageQueryParam = "page"
	// LastPage may be passed instead of a number to request the final page
	LastPage = "last"
)

// ErrInvalidPage is returned for a page number that is not a positive integer
// or lies beyond the last page.
var ErrInvalidPage = errors.New("invalid page")

// Page describes one slice of a result set
type Page struct {
	Number int
	Size   int
	Total  int64
	Pages  int
}

// PageCount returns the number of pages needed for total items. An empty
// result has zero pages.
func PageCount(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Resolve validates the raw page parameter against the size of the result set
func Resolve(raw string, total int64, size int) (Page, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := PageCount(total, size)

	number, err := parseNumber(raw, pages)
	if err != nil {
		return Page{}, err
	}

	// An empty result set answers every page with an empty page
	if total > 0 && number > pages {
		return Page{}, ErrInvalidPage
	}

	return Page{Number: number, Size: size, Total: total, Pages: pages}, nil
}

func parseNumber(raw string, pages int) (int, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return 1, nil
	case LastPage:
		return max(pages, 1), nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrInvalidPage
	}
	return n, nil
}

// Offset is the index of the first item on the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasNext reports whether a later page exists
func (p Page) HasNext() bool {
	return p.Number < p.Pages
}

// HasPrevious reports whether an earlier page exists
func (p Page) HasPrevious() bool {
	return p.Pages > 0 && p.Number > 1
}

// NextLink returns the URL of the next page, or nil on the last page
func (p Page) NextLink(current *url.URL) *string {
	if !p.HasNext() {
		return nil
	}
	return withPage(current, p.Number+1)
}

// PreviousLink returns the URL of the previous page, or nil on the first page.
// The link to the first page carries no page parameter at all.
func (p Page) PreviousLink(current *url.URL) *string {
	if !p.HasPrevious() {
		return nil
	}
	return withPage(current, p.Number-1)
}

func withPage(current *url.URL, number int) *string {
	u := *current
	q := u.Query()
	if number <= 1 {
		q.Del(PageQueryParam)
	} else {
		q.Set(PageQueryParam, strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
