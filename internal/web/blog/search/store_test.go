package search

import (
	"context"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
)

// memStore in-memory Store that applies Filter the way real stores do
type memStore struct {
	posts []*model.Post
	tags  []*model.Tag
	cates []*model.Category
	err   error
	calls int
}

func window[T any](items []T, w *Window) []T {
	if w == nil {
		return items
	}

	start := min(w.Skip, len(items))
	end := min(start+w.Take, len(items))
	return items[start:end]
}

func (s *memStore) matchPosts(f Filter) []*model.Post {
	var out []*model.Post
	for _, p := range s.posts {
		if !p.IsSearchable() {
			continue
		}
		if f.ContainsAny(p.Title, p.Content, p.Excerpt) || f.ContainsAny(p.TagNames()...) {
			out = append(out, p)
		}
	}

	return out
}

func (s *memStore) matchTags(f Filter) []*model.Tag {
	var out []*model.Tag
	for _, t := range s.tags {
		if f.ContainsAny(t.Name, t.DescriptionText()) {
			out = append(out, t)
		}
	}

	return out
}

func (s *memStore) matchCategories(f Filter) []*model.Category {
	var out []*model.Category
	for _, c := range s.cates {
		if f.ContainsAny(c.Name, c.DescriptionText()) {
			out = append(out, c)
		}
	}

	return out
}

func (s *memStore) FindPosts(_ context.Context, f Filter, w *Window) ([]*model.Post, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return window(s.matchPosts(f), w), nil
}

func (s *memStore) CountPosts(_ context.Context, f Filter) (int64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(s.matchPosts(f))), nil
}

func (s *memStore) FindTags(_ context.Context, f Filter, w *Window) ([]*model.Tag, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return window(s.matchTags(f), w), nil
}

func (s *memStore) CountTags(_ context.Context, f Filter) (int64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(s.matchTags(f))), nil
}

func (s *memStore) FindCategories(_ context.Context, f Filter, w *Window) ([]*model.Category, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return window(s.matchCategories(f), w), nil
}

func (s *memStore) CountCategories(_ context.Context, f Filter) (int64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(s.matchCategories(f))), nil
}
