// Package dao contains all the data access object used in the application.
package dao

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
)

var (
	// ErrNotFound record does not exist or is not visible
	ErrNotFound = errors.New("not found")
	// ErrDuplicate unique constraint violated, e.g. slug already taken
	ErrDuplicate = errors.New("duplicate record")
)

// Blog persistence of the blog, implemented by SQL and Mongo.
type Blog interface {
	search.Store

	// Migrate create tables or indexes
	Migrate(ctx context.Context) error
	// SlugExists whether any post, deleted ones included, owns slug
	SlugExists(ctx context.Context, slug string) (bool, error)
	// CreatePost store post, upserting tags and category by name
	// and bumping their post counts. tagNames must be deduplicated.
	CreatePost(ctx context.Context, post *model.Post, tagNames []string, categoryName string) error
	// LoadPostBySlug load a published post and count one view
	LoadPostBySlug(ctx context.Context, slug string) (*model.Post, error)
	LoadUserByID(ctx context.Context, id uint) (*model.User, error)
	// EnsureUser load user by account, create it if missing
	EnsureUser(ctx context.Context, account, username string) (*model.User, error)
	Close(ctx context.Context) error
}

// NormalizeNames trim names, drop blanks and duplicates, keep order
func NormalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, name)
	}

	return out
}
