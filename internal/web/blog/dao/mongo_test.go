package dao

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
)

func TestTextRegex(t *testing.T) {
	for _, q := range []string{"c++", "a.b", "(x)", "[go]", `\d`, "$1^", "a|b"} {
		re := textRegex(literal(q))
		require.Empty(t, re.Options)

		compiled := regexp.MustCompile(re.Pattern)
		require.True(t, compiled.MatchString("before "+q+" after"), q)
		require.Equal(t, q, compiled.FindString("xx"+q+"yy"), q)
	}

	re := textRegex(search.NewFilter("React", search.MatchCaseInsensitive))
	require.Equal(t, primitive.Regex{Pattern: "React", Options: "i"}, re)
}

func TestPostsFilter(t *testing.T) {
	re := primitive.Regex{Pattern: `c\+\+`}
	require.Equal(t, bson.D{
		{Key: "published", Value: true},
		{Key: "deleted_at", Value: nil},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "content", Value: re}},
			bson.D{{Key: "excerpt", Value: re}},
			bson.D{{Key: "tags.name", Value: re}},
		}},
	}, postsFilter(literal("c++")))
}

func TestTaxonomyFilter(t *testing.T) {
	re := primitive.Regex{Pattern: "go", Options: "i"}
	require.Equal(t, bson.D{
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}},
	}, taxonomyFilter(search.NewFilter("go", search.MatchCaseInsensitive)))
}

func TestFindOptions(t *testing.T) {
	opt := findOptions(postsSort, nil)
	require.Nil(t, opt.Skip)
	require.Nil(t, opt.Limit)

	opt = findOptions(taxonomySort, search.NewWindow(3, 10))
	require.EqualValues(t, 20, *opt.Skip)
	require.EqualValues(t, 10, *opt.Limit)
	require.Equal(t, taxonomySort, opt.Sort)
}

func TestPostDocConversion(t *testing.T) {
	desc := "ui things"
	at := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	post := &model.Post{
		ID:          7,
		Title:       "Learning React",
		Slug:        "abc123",
		Published:   true,
		PublishedAt: &at,
		ViewCount:   3,
		AuthorID:    1,
		Category:    &model.Category{ID: 2, Name: "Frontend", Description: &desc, PostCount: 4},
		Tags:        []model.Tag{{ID: 5, Name: "react"}, {ID: 6, Name: "ui"}},
	}

	doc := newPostDoc(post)
	require.Nil(t, doc.DeletedAt)
	require.Equal(t, "Frontend", doc.Category.Name)

	got := doc.toModel()
	require.Equal(t, post.Title, got.Title)
	require.Equal(t, []string{"react", "ui"}, got.TagNames())
	require.NotNil(t, got.CategoryID)
	require.EqualValues(t, 2, *got.CategoryID)
	require.Equal(t, "ui things", got.Category.DescriptionText())
	require.True(t, got.IsSearchable())

	doc.DeletedAt = &at
	require.False(t, doc.toModel().IsSearchable())
}
