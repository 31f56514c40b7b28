package search

import (
	"time"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
)

const (
	postTitleWeight   = 100
	postExcerptWeight = 50
	postContentWeight = 30
	postTagWeight     = 40
	// recencyWindowDays posts older than this get no recency bonus
	recencyWindowDays = 20
	maxViewBonus      = 50

	nameWeight        = 100
	descriptionWeight = 50
	maxPostCountBonus = 30
)

// ScorePost relevance of a post.
// Every term is added at most once no matter how often the text occurs.
func ScorePost(p *model.Post, f Filter, now time.Time) float64 {
	var score float64
	if f.Contains(p.Title) {
		score += postTitleWeight
	}
	if f.Contains(p.Excerpt) {
		score += postExcerptWeight
	}
	if f.Contains(p.Content) {
		score += postContentWeight
	}
	if f.ContainsAny(p.TagNames()...) {
		score += postTagWeight
	}

	score += float64(recencyBonus(p.PublishedAt, now))
	score += float64(min(max(p.ViewCount, 0), maxViewBonus))
	return score
}

// recencyBonus 20 for today, one less per full day, never negative
func recencyBonus(publishedAt *time.Time, now time.Time) int {
	if publishedAt == nil {
		return 0
	}

	days := max(int(now.Sub(*publishedAt)/(24*time.Hour)), 0)
	return max(recencyWindowDays-days, 0)
}

// ScoreTag relevance of a tag
func ScoreTag(t *model.Tag, f Filter) float64 {
	return scoreTaxonomy(t.Name, t.DescriptionText(), t.PostCount, f)
}

// ScoreCategory relevance of a category, weighted like tags
func ScoreCategory(c *model.Category, f Filter) float64 {
	return scoreTaxonomy(c.Name, c.DescriptionText(), c.PostCount, f)
}

func scoreTaxonomy(name, description string, postCount int, f Filter) float64 {
	var score float64
	if f.Contains(name) {
		score += nameWeight
	}
	if f.Contains(description) {
		score += descriptionWeight
	}

	score += float64(min(max(postCount, 0), maxPostCountBonus))
	return score
}
