package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
)

func newTestRanker(t *testing.T, store Store, opts ...Option) *Ranker {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	r, err := NewRanker(store, opts...)
	require.NoError(t, err)
	return r
}

func seededStore() *memStore {
	return &memStore{
		posts: []*model.Post{
			{ID: 1, Title: "Next.js 15 新特性详解", Published: true, ViewCount: 128, PublishedAt: daysAgo(1)},
			{ID: 2, Title: "Go generics", Content: "notes on Next.js routing", Published: true, PublishedAt: daysAgo(60)},
			{ID: 3, Title: "Next.js draft", Published: false},
			{ID: 4, Title: "Next.js deleted", Published: true, PublishedAt: daysAgo(1),
				DeletedAt: gorm.DeletedAt{Time: testNow, Valid: true}},
			{ID: 5, Title: "frontend", Tags: []model.Tag{{Name: "Next.js"}}, Published: true, PublishedAt: daysAgo(40)},
		},
		tags: []*model.Tag{
			{ID: 1, Name: "Next.js", PostCount: 3},
			{ID: 2, Name: "react", Description: strPtr("Next.js and friends"), PostCount: 50},
		},
		cates: []*model.Category{
			{ID: 1, Name: "Frontend", Description: strPtr("Next.js, vue"), PostCount: 2},
			{ID: 2, Name: "Backend"},
		},
	}
}

func TestSearchBlankQuery(t *testing.T) {
	store := seededStore()
	r := newTestRanker(t, store)

	for _, q := range []string{"", "   ", "\t\n"} {
		resp, err := r.Search(context.Background(), Request{Query: q})
		require.NoError(t, err)
		require.Empty(t, resp.Results)
		require.NotNil(t, resp.Results)
		require.Equal(t, int64(0), resp.Total)
		require.Equal(t, DefaultPage, resp.Page)
		require.Equal(t, DefaultLimit, resp.Limit)
	}

	require.Zero(t, store.calls, "blank query must not reach the store")
}

func TestSearchNoMatch(t *testing.T) {
	r := newTestRanker(t, seededStore())
	for _, typ := range []ResultType{TypeAll, TypePosts, TypeTags, TypeCategories} {
		resp, err := r.Search(context.Background(), Request{Query: "nonexistent-xyz", Type: typ})
		require.NoError(t, err)
		require.Empty(t, resp.Results)
		require.Equal(t, int64(0), resp.Total)
	}
}

func TestSearchPostsScenario(t *testing.T) {
	r := newTestRanker(t, seededStore())
	resp, err := r.Search(context.Background(), Request{Query: "Next.js", Type: TypePosts})
	require.NoError(t, err)

	require.Equal(t, int64(3), resp.Total)
	require.Len(t, resp.Results, 3)

	var found bool
	for _, res := range resp.Results {
		require.Equal(t, EntityPost, res.Type)
		require.NotContains(t, []uint{3, 4}, res.Post.ID, "unpublished or deleted post leaked")
		if res.Post.ID == 1 {
			found = true
			require.GreaterOrEqual(t, res.Score, float64(169))
		}
	}
	require.True(t, found)
	require.Equal(t, uint(1), resp.Results[0].Post.ID)
}

func TestSearchAllMergesSortedAndTruncates(t *testing.T) {
	r := newTestRanker(t, seededStore())
	resp, err := r.Search(context.Background(), Request{Query: "Next.js", Limit: 3})
	require.NoError(t, err)

	// 3 posts + 2 tags + 1 category
	require.Equal(t, int64(6), resp.Total)
	require.Len(t, resp.Results, 3)
	for i := 1; i < len(resp.Results); i++ {
		require.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}

	// post 1: 100+19+50=169, tag 1: 100+3=103, tag 2: 50+30=80
	require.Equal(t, EntityPost, resp.Results[0].Type)
	require.Equal(t, float64(169), resp.Results[0].Score)
	require.Equal(t, EntityTag, resp.Results[1].Type)
	require.Equal(t, "Next.js", resp.Results[1].Tag.Name)

	next, err := r.Search(context.Background(), Request{Query: "Next.js", Limit: 3, Page: 2})
	require.NoError(t, err)
	require.Equal(t, int64(6), next.Total)
	require.Len(t, next.Results, 3)
	require.LessOrEqual(t, next.Results[0].Score, resp.Results[2].Score)

	beyond, err := r.Search(context.Background(), Request{Query: "Next.js", Limit: 3, Page: 9})
	require.NoError(t, err)
	require.Empty(t, beyond.Results)
	require.Equal(t, int64(6), beyond.Total)
}

func TestSearchAllStableOnTies(t *testing.T) {
	store := &memStore{
		tags: []*model.Tag{{ID: 1, Name: "go-a"}, {ID: 2, Name: "go-b"}},
		cates: []*model.Category{
			{ID: 7, Name: "go-c"},
		},
	}
	r := newTestRanker(t, store)
	resp, err := r.Search(context.Background(), Request{Query: "go"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	require.Equal(t, uint(1), resp.Results[0].Tag.ID)
	require.Equal(t, uint(2), resp.Results[1].Tag.ID)
	require.Equal(t, uint(7), resp.Results[2].Category.ID)
}

func TestSearchSingleTypePaginatesInStore(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 25; i++ {
		store.tags = append(store.tags, &model.Tag{ID: uint(i + 1), Name: fmt.Sprintf("tag-%02d", i), PostCount: i})
	}
	r := newTestRanker(t, store)

	resp, err := r.Search(context.Background(), Request{Query: "tag-", Type: TypeTags, Page: 3, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(25), resp.Total)
	require.Len(t, resp.Results, 5)
	for _, res := range resp.Results {
		require.Greater(t, res.Tag.ID, uint(20))
	}
}

func TestSearchCategories(t *testing.T) {
	r := newTestRanker(t, seededStore())
	resp, err := r.Search(context.Background(), Request{Query: "end", Type: TypeCategories})
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.Total)
	require.Equal(t, "Frontend", resp.Results[0].Category.Name)
	require.Equal(t, float64(102), resp.Results[0].Score)
}

func TestSearchStoreFailure(t *testing.T) {
	cause := errors.New("connection refused")
	r := newTestRanker(t, &memStore{err: cause})

	for _, typ := range []ResultType{TypeAll, TypePosts, TypeTags, TypeCategories} {
		resp, err := r.Search(context.Background(), Request{Query: "go", Type: typ})
		require.Nil(t, resp)
		require.ErrorIs(t, err, ErrSearchFailed)
		require.ErrorIs(t, err, cause)
	}
}

func TestSearchInvalidType(t *testing.T) {
	r := newTestRanker(t, seededStore())
	_, err := r.Search(context.Background(), Request{Query: "go", Type: "users"})
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestSearchCaseInsensitiveMode(t *testing.T) {
	store := seededStore()

	sensitive := newTestRanker(t, store)
	resp, err := sensitive.Search(context.Background(), Request{Query: "next.js", Type: TypePosts})
	require.NoError(t, err)
	require.Empty(t, resp.Results)

	insensitive := newTestRanker(t, store, WithMatchMode(MatchCaseInsensitive))
	resp, err = insensitive.Search(context.Background(), Request{Query: "next.js", Type: TypePosts})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
}

func TestNewRankerValidation(t *testing.T) {
	_, err := NewRanker(nil)
	require.Error(t, err)

	_, err = NewRanker(&memStore{}, WithClock(nil))
	require.Error(t, err)

	_, err = NewRanker(&memStore{}, WithMatchMode(MatchMode(9)))
	require.Error(t, err)
}
