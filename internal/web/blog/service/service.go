// Package service is the service layer of blog.
package service

import (
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/dao"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/slug"
	"github.com/Laisky/laisky-blog-search/library/log"
)

var (
	// ErrInvalidPost post input failed validation
	ErrInvalidPost = errors.New("invalid post")
	// ErrPostNotFound no published post owns the slug
	ErrPostNotFound = errors.New("post not found")
)

// Blog blog service
type Blog struct {
	logger logSDK.Logger
	dao    dao.Blog
	slugs  *slug.Generator
	clock  func() time.Time
	dry    bool
}

// Option blog service option
type Option func(*Blog) error

// WithLogger set logger
func WithLogger(logger logSDK.Logger) Option {
	return func(b *Blog) error {
		if logger == nil {
			return errors.New("logger is nil")
		}

		b.logger = logger
		return nil
	}
}

// WithClock set time source for timestamps and slugs
func WithClock(clock func() time.Time) Option {
	return func(b *Blog) error {
		if clock == nil {
			return errors.New("clock is nil")
		}

		b.clock = clock
		return nil
	}
}

// WithDryRun log new posts instead of storing them
func WithDryRun(dry bool) Option {
	return func(b *Blog) error {
		b.dry = dry
		return nil
	}
}

// New new blog service
func New(store dao.Blog, opts ...Option) (*Blog, error) {
	if store == nil {
		return nil, errors.New("dao is required")
	}

	b := &Blog{
		logger: log.Logger.Named("blog_service"),
		dao:    store,
		clock:  gutils.Clock.GetUTCNow,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	var err error
	if b.slugs, err = slug.NewGenerator(store.SlugExists, slug.Clock(b.clock)); err != nil {
		return nil, errors.Wrap(err, "new slug generator")
	}

	return b, nil
}
