package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/dao"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/slug"
)

const excerptLength = 200

// NewPostInput fields an author provides for a new post
type NewPostInput struct {
	Title    string
	Markdown string
	// Excerpt optional, derived from the content when empty
	Excerpt   string
	Tags      []string
	Category  string
	Published bool
}

// NewPost render, slug and store a new post of author.
//
// Returns ErrInvalidPost on bad input and slug.ErrSlugCollision
// when no free slug could be generated.
func (s *Blog) NewPost(ctx context.Context, author *model.User, in NewPostInput) (*model.Post, error) {
	if author == nil || author.ID == 0 {
		return nil, errors.Wrap(ErrInvalidPost, "author is required")
	}

	in, err := sanitizeNewPost(in)
	if err != nil {
		return nil, err
	}

	ts := s.clock()
	p := &model.Post{
		Title:     in.Title,
		Markdown:  in.Markdown,
		Content:   ParseMarkdown2HTML([]byte(in.Markdown)),
		Excerpt:   in.Excerpt,
		Published: in.Published,
		AuthorID:  author.ID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if p.Excerpt == "" {
		p.Excerpt = Truncate(PlainText(p.Content), excerptLength)
	}
	if p.Published {
		p.PublishedAt = &ts
	}

	if p.Slug, err = s.slugs.Generate(ctx, p.Title, author.ID); err != nil {
		return nil, errors.Wrapf(err, "generate slug for %q", p.Title)
	}

	logger := s.logger.With(
		zap.String("title", p.Title),
		zap.String("slug", p.Slug),
		zap.Uint("author", author.ID),
	)
	if s.dry {
		logger.Info("insert post", zap.Strings("tags", in.Tags), zap.String("category", in.Category))
		return p, nil
	}

	if err = s.dao.CreatePost(ctx, p, in.Tags, in.Category); err != nil {
		if errors.Is(err, dao.ErrDuplicate) {
			// lost a race with another insert after the exists check
			return nil, errors.Wrapf(slug.ErrSlugCollision, "insert %q: %v", p.Slug, err)
		}

		return nil, errors.Wrap(err, "create post")
	}

	logger.Info("new post created", zap.Uint("id", p.ID))
	return p, nil
}

// LoadPostBySlug load published post, counting one view
func (s *Blog) LoadPostBySlug(ctx context.Context, rawSlug string) (*model.Post, error) {
	name, err := sanitizeSlug(rawSlug)
	if err != nil {
		return nil, err
	}

	p, err := s.dao.LoadPostBySlug(ctx, name)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, errors.Wrapf(ErrPostNotFound, "slug %q", name)
		}

		return nil, errors.Wrapf(err, "load post %q", name)
	}

	return p, nil
}

// LoadUserByID load author by id
func (s *Blog) LoadUserByID(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.dao.LoadUserByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load user %d", id)
	}

	return u, nil
}
