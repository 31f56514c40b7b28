// Package controller http handlers of the blog
package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/dto"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/service"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/slug"
	"github.com/Laisky/laisky-blog-search/library/jwt"
)

const (
	defaultMaxLimit = 100
	ctxKeyUser      = "blog_user"
)

// Searcher runs ranked searches
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// Posts post operations behind the api
type Posts interface {
	NewPost(ctx context.Context, author *model.User, in service.NewPostInput) (*model.Post, error)
	LoadPostBySlug(ctx context.Context, slug string) (*model.Post, error)
	LoadUserByID(ctx context.Context, id uint) (*model.User, error)
}

// Blog blog http controller
type Blog struct {
	searcher     Searcher
	posts        Posts
	jwt          *jwt.JWT
	defaultLimit int
	maxLimit     int
}

// Option controller option
type Option func(*Blog) error

// WithLimits set default and max page size of search
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(c *Blog) error {
		if defaultLimit < 1 || maxLimit < defaultLimit {
			return errors.Errorf("invalid limits default=%d max=%d", defaultLimit, maxLimit)
		}

		c.defaultLimit = defaultLimit
		c.maxLimit = maxLimit
		return nil
	}
}

// New new blog controller
func New(searcher Searcher, posts Posts, tokens *jwt.JWT, opts ...Option) (*Blog, error) {
	if searcher == nil || posts == nil || tokens == nil {
		return nil, errors.New("searcher, posts and jwt are required")
	}

	c := &Blog{
		searcher:     searcher,
		posts:        posts,
		jwt:          tokens,
		defaultLimit: search.DefaultLimit,
		maxLimit:     defaultMaxLimit,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	return c, nil
}

// RegisterRoutes mount blog api under r
func (c *Blog) RegisterRoutes(r gin.IRouter) {
	r.GET("/search", c.Search)
	r.GET("/posts/:slug", c.GetPost)
	r.POST("/posts", c.Auth, c.CreatePost)
}

func abortWithError(ctx *gin.Context, status int, msg string) {
	ctx.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// parsePositiveInt absent means fallback
func parsePositiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %q", raw)
	}
	if v < 1 {
		return 0, errors.Errorf("%d is not positive", v)
	}

	return v, nil
}

// Search GET /search?q=&page=&limit=&type=
func (c *Blog) Search(ctx *gin.Context) {
	logger := gmw.GetLogger(ctx)

	page, err := parsePositiveInt(ctx.Query("page"), search.DefaultPage)
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, "invalid page")
		return
	}
	limit, err := parsePositiveInt(ctx.Query("limit"), c.defaultLimit)
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, c.maxLimit)

	typ, err := search.ParseResultType(ctx.Query("type"))
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, "invalid type")
		return
	}

	resp, err := c.searcher.Search(ctx, search.Request{
		Query: ctx.Query("q"),
		Page:  page,
		Limit: limit,
		Type:  typ,
	})
	if err != nil {
		logger.Error("search", zap.Error(err))
		if errors.Is(err, search.ErrSearchFailed) {
			abortWithError(ctx, http.StatusInternalServerError, search.ErrSearchFailed.Error())
			return
		}

		abortWithError(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	out, err := dto.NewSearchResponse(resp)
	if err != nil {
		logger.Error("serialize search response", zap.Error(err))
		abortWithError(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	ctx.JSON(http.StatusOK, out)
}

type createPostReq struct {
	Title     string   `json:"title" binding:"required"`
	Markdown  string   `json:"markdown" binding:"required"`
	Excerpt   string   `json:"excerpt"`
	Tags      []string `json:"tags"`
	Category  string   `json:"category"`
	Published bool     `json:"published"`
}

// CreatePost POST /posts, requires Auth
func (c *Blog) CreatePost(ctx *gin.Context) {
	logger := gmw.GetLogger(ctx)
	user, ok := currentUser(ctx)
	if !ok {
		abortWithError(ctx, http.StatusUnauthorized, "login required")
		return
	}

	req := new(createPostReq)
	if err := ctx.ShouldBindJSON(req); err != nil {
		abortWithError(ctx, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := c.posts.NewPost(ctx, user, service.NewPostInput{
		Title:     req.Title,
		Markdown:  req.Markdown,
		Excerpt:   req.Excerpt,
		Tags:      req.Tags,
		Category:  req.Category,
		Published: req.Published,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidPost):
		abortWithError(ctx, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, slug.ErrSlugCollision):
		logger.Warn("slug collision", zap.Error(err))
		abortWithError(ctx, http.StatusConflict, slug.ErrSlugCollision.Error())
		return
	default:
		logger.Error("create post", zap.Error(err))
		abortWithError(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	out, err := dto.NewPost(p)
	if err != nil {
		logger.Error("serialize post", zap.Error(err))
		abortWithError(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	ctx.JSON(http.StatusCreated, out)
}

// GetPost GET /posts/:slug
func (c *Blog) GetPost(ctx *gin.Context) {
	logger := gmw.GetLogger(ctx)
	p, err := c.posts.LoadPostBySlug(ctx, ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			abortWithError(ctx, http.StatusNotFound, "post not found")
			return
		}

		logger.Error("load post", zap.Error(err))
		abortWithError(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	out, err := dto.NewPost(p)
	if err != nil {
		logger.Error("serialize post", zap.Error(err))
		abortWithError(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	ctx.JSON(http.StatusOK, out)
}
