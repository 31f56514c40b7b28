// Package search ranks posts, tags and categories matching a free-text query.
package search

import (
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
)

const (
	// DefaultPage first page
	DefaultPage = 1
	// DefaultLimit page size used when none is given
	DefaultLimit = 10
)

var (
	// ErrSearchFailed returned when the store could not serve a search
	ErrSearchFailed = errors.New("search failed")
	// ErrInvalidType unknown result type filter
	ErrInvalidType = errors.New("invalid search type")
)

// ResultType which entities a search covers
type ResultType string

const (
	TypeAll        ResultType = "all"
	TypePosts      ResultType = "posts"
	TypeTags       ResultType = "tags"
	TypeCategories ResultType = "categories"
)

// ParseResultType parse type filter, empty means all
func ParseResultType(raw string) (ResultType, error) {
	switch t := ResultType(strings.ToLower(strings.TrimSpace(raw))); t {
	case "":
		return TypeAll, nil
	case TypeAll, TypePosts, TypeTags, TypeCategories:
		return t, nil
	default:
		return "", errors.Wrapf(ErrInvalidType, "%q", raw)
	}
}

// EntityType discriminator of a single result
type EntityType string

const (
	EntityPost     EntityType = "post"
	EntityTag      EntityType = "tag"
	EntityCategory EntityType = "category"
)

// Result one scored match, exactly one of Post, Tag, Category is set
type Result struct {
	Type     EntityType
	Post     *model.Post
	Tag      *model.Tag
	Category *model.Category
	Score    float64
}

// Request search arguments
type Request struct {
	Query string
	Page  int
	Limit int
	Type  ResultType
}

// Response one page of ranked results
type Response struct {
	Results []Result
	// Total number of matches across the requested types
	Total int64
	Page  int
	Limit int
	Query string
}

func (r Request) normalize() (Request, error) {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}

	t, err := ParseResultType(string(r.Type))
	if err != nil {
		return r, err
	}
	r.Type = t

	return r, nil
}

// storeError keeps the store failure as cause while matching ErrSearchFailed
type storeError struct {
	op    string
	cause error
}

func (e *storeError) Error() string {
	return ErrSearchFailed.Error() + ": " + e.op + ": " + e.cause.Error()
}

func (e *storeError) Unwrap() error {
	return e.cause
}

func (e *storeError) Is(target error) bool {
	return target == ErrSearchFailed
}

func failed(op string, err error) error {
	return &storeError{op: op, cause: err}
}
