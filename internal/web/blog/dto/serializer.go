// Package dto json views of blog entities
package dto

import (
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/jinzhu/copier"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
)

// PostSummary post fields shown in listings
type PostSummary struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Excerpt      string     `json:"excerpt"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	ViewCount    int        `json:"view_count"`
	TagNames     []string   `json:"tags"`
	CategoryName string     `json:"category,omitempty"`
}

// Post full post
type Post struct {
	PostSummary
	AuthorID uint   `json:"author_id"`
	Markdown string `json:"markdown"`
	Content  string `json:"content"`
}

// Taxonomy tag or category
type Taxonomy struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	PostCount   int     `json:"post_count"`
}

// SearchResult one ranked hit, exactly one of Post, Tag, Category is set
type SearchResult struct {
	Type     search.EntityType `json:"type"`
	Score    float64           `json:"score"`
	Post     *PostSummary      `json:"post,omitempty"`
	Tag      *Taxonomy         `json:"tag,omitempty"`
	Category *Taxonomy         `json:"category,omitempty"`
}

// SearchResponse one page of search results
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
	Query   string         `json:"query"`
}

// NewPost full view of p
func NewPost(p *model.Post) (*Post, error) {
	out := &Post{}
	if err := copier.Copy(out, p); err != nil {
		return nil, errors.Wrapf(err, "copy post %d", p.ID)
	}

	return out, nil
}

// NewSearchResponse json view of ranked results
func NewSearchResponse(resp *search.Response) (*SearchResponse, error) {
	out := &SearchResponse{
		Results: make([]SearchResult, 0, len(resp.Results)),
		Total:   resp.Total,
		Page:    resp.Page,
		Limit:   resp.Limit,
		Query:   resp.Query,
	}

	for _, r := range resp.Results {
		item := SearchResult{Type: r.Type, Score: r.Score}
		var src, dst any
		switch r.Type {
		case search.EntityPost:
			item.Post = &PostSummary{}
			src, dst = r.Post, item.Post
		case search.EntityTag:
			item.Tag = &Taxonomy{}
			src, dst = r.Tag, item.Tag
		case search.EntityCategory:
			item.Category = &Taxonomy{}
			src, dst = r.Category, item.Category
		default:
			return nil, errors.Errorf("unknown result type %q", r.Type)
		}

		if err := copier.Copy(dst, src); err != nil {
			return nil, errors.Wrapf(err, "copy %s", r.Type)
		}

		out.Results = append(out.Results, item)
	}

	return out, nil
}
