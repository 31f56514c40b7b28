package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/service"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/slug"
	"github.com/Laisky/laisky-blog-search/library/jwt"
	"github.com/Laisky/laisky-blog-search/library/log"
)

var ginModeOnce sync.Once

func setupGinTestMode() {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}

type fakeSearcher struct {
	mu    sync.Mutex
	calls []search.Request
	resp  *search.Response
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) (*search.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}

	return &search.Response{Results: []search.Result{}, Page: req.Page, Limit: req.Limit, Query: req.Query}, nil
}

type fakePosts struct {
	users   map[uint]*model.User
	posts   map[string]*model.Post
	created []service.NewPostInput
	newErr  error
}

func (f *fakePosts) NewPost(_ context.Context, author *model.User, in service.NewPostInput) (*model.Post, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}

	f.created = append(f.created, in)
	return &model.Post{ID: 10, Title: in.Title, Slug: "abc", AuthorID: author.ID, Markdown: in.Markdown}, nil
}

func (f *fakePosts) LoadPostBySlug(_ context.Context, s string) (*model.Post, error) {
	if p, ok := f.posts[s]; ok {
		return p, nil
	}

	return nil, errors.Wrapf(service.ErrPostNotFound, "slug %q", s)
}

func (f *fakePosts) LoadUserByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}

	return nil, errors.Errorf("user %d not found", id)
}

type testEnv struct {
	router   *gin.Engine
	searcher *fakeSearcher
	posts    *fakePosts
	tokens   *jwt.JWT
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	setupGinTestMode()

	tokens, err := jwt.New([]byte("test-secret"))
	require.NoError(t, err)

	env := &testEnv{
		router:   gin.New(),
		searcher: &fakeSearcher{},
		posts: &fakePosts{
			users: map[uint]*model.User{1: {ID: 1, Username: "laisky", Account: "laisky@example.com"}},
			posts: map[string]*model.Post{"abc123": {ID: 3, Title: "hello", Slug: "abc123", Published: true}},
		},
		tokens: tokens,
	}

	c, err := New(env.searcher, env.posts, tokens, WithLimits(10, 50))
	require.NoError(t, err)
	env.router.Use(gmw.NewLoggerMiddleware(gmw.WithLogger(log.Logger.Named("test"))))
	c.RegisterRoutes(env.router.Group("/api"))
	return env
}

func (e *testEnv) do(method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestSearchParams(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/search?q=react&page=2&limit=5&type=tags", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, search.Request{Query: "react", Page: 2, Limit: 5, Type: search.TypeTags}, env.searcher.calls[0])

	w = env.do(http.MethodGet, "/api/search?q=react", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, search.Request{Query: "react", Page: 1, Limit: 10, Type: search.TypeAll}, env.searcher.calls[1])

	w = env.do(http.MethodGet, "/api/search?q=react&limit=1000", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 50, env.searcher.calls[2].Limit)
}

func TestSearchBadRequest(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{
		"/api/search?q=a&page=0",
		"/api/search?q=a&page=x",
		"/api/search?q=a&limit=-1",
		"/api/search?q=a&type=users",
	} {
		w := env.do(http.MethodGet, target, "", "")
		require.Equal(t, http.StatusBadRequest, w.Code, target)
		require.Contains(t, decodeBody(t, w), "error")
	}

	require.Empty(t, env.searcher.calls)
}

func TestSearchResults(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/search?q=++", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, []any{}, body["results"])
	require.EqualValues(t, 0, body["total"])

	at := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	env.searcher.resp = &search.Response{
		Results: []search.Result{
			{Type: search.EntityPost, Score: 169, Post: &model.Post{ID: 1, Title: "Next.js", PublishedAt: &at}},
			{Type: search.EntityTag, Score: 103, Tag: &model.Tag{ID: 2, Name: "nextjs"}},
		},
		Total: 7,
		Page:  1,
		Limit: 10,
		Query: "Next",
	}
	w = env.do(http.MethodGet, "/api/search?q=Next", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	require.EqualValues(t, 7, body["total"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	require.Equal(t, "post", results[0].(map[string]any)["type"])
	require.Equal(t, "tag", results[1].(map[string]any)["type"])
}

func TestSearchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.searcher.err = errors.Wrap(search.ErrSearchFailed, "find posts: connection refused")

	w := env.do(http.MethodGet, "/api/search?q=react", "", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"search failed"}`, w.Body.String())
}

func TestCreatePostAuth(t *testing.T) {
	env := newTestEnv(t)
	body := `{"title":"hello","markdown":"world"}`

	w := env.do(http.MethodPost, "/api/posts", body, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/posts", body, "garbage")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	unknown, err := env.tokens.Sign(99, "ghost")
	require.NoError(t, err)
	w = env.do(http.MethodPost, "/api/posts", body, unknown)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	require.Empty(t, env.posts.created)
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.tokens.Sign(1, "laisky")
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/api/posts",
		`{"title":"hello","markdown":"world","tags":["go"],"category":"dev","published":true}`, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	require.Equal(t, "hello", body["title"])
	require.Equal(t, "abc", body["slug"])
	require.EqualValues(t, 1, body["author_id"])
	require.Equal(t, service.NewPostInput{
		Title:     "hello",
		Markdown:  "world",
		Tags:      []string{"go"},
		Category:  "dev",
		Published: true,
	}, env.posts.created[0])

	w = env.do(http.MethodPost, "/api/posts", `{"title":"hello"}`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/api/posts", `not json`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePostErrors(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.tokens.Sign(1, "laisky")
	require.NoError(t, err)
	body := `{"title":"hello","markdown":"world"}`

	for _, tc := range []struct {
		err    error
		status int
	}{
		{errors.Wrap(service.ErrInvalidPost, "title is required"), http.StatusBadRequest},
		{errors.Wrap(slug.ErrSlugCollision, "slugs a and b"), http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	} {
		env.posts.newErr = tc.err
		w := env.do(http.MethodPost, "/api/posts", body, token)
		require.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestGetPost(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/posts/abc123", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "hello", decodeBody(t, w)["title"])

	w = env.do(http.MethodGet, "/api/posts/nope", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBearerToken(t *testing.T) {
	tok, err := bearerToken("Bearer abc")
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	tok, err = bearerToken("bearer  abc ")
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer ", "Basic abc", "abc"} {
		_, err = bearerToken(h)
		require.Error(t, err, h)
	}
}

func TestNewValidation(t *testing.T) {
	tokens, err := jwt.New([]byte("s"))
	require.NoError(t, err)

	_, err = New(nil, &fakePosts{}, tokens)
	require.Error(t, err)
	_, err = New(&fakeSearcher{}, &fakePosts{}, tokens, WithLimits(10, 5))
	require.Error(t, err)
}
