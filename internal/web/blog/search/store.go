package search

import (
	"context"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
)

// Store read access to the entities search runs over.
//
// Post methods only see published posts that are not soft-deleted,
// and a post matches when its title, content, excerpt or any tag name
// contains the filter text. Returned posts carry their tags.
// Tag and category methods match on name or description.
type Store interface {
	FindPosts(ctx context.Context, filter Filter, window *Window) ([]*model.Post, error)
	CountPosts(ctx context.Context, filter Filter) (int64, error)
	FindTags(ctx context.Context, filter Filter, window *Window) ([]*model.Tag, error)
	CountTags(ctx context.Context, filter Filter) (int64, error)
	FindCategories(ctx context.Context, filter Filter, window *Window) ([]*model.Category, error)
	CountCategories(ctx context.Context, filter Filter) (int64, error)
}
