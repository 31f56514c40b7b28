package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-blog-search/library/log"
)

// Clock returns the current UTC time. Tests can replace it for determinism.
type Clock func() time.Time

// Ranker scores and paginates search results over a Store.
// It holds no per-request state and is safe for concurrent use.
type Ranker struct {
	store  Store
	logger logSDK.Logger
	clock  Clock
	mode   MatchMode
}

// Option configures the Ranker
type Option func(*Ranker) error

// WithLogger set logger
func WithLogger(logger logSDK.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			return errors.New("logger is nil")
		}

		r.logger = logger
		return nil
	}
}

// WithClock set clock used for the recency bonus
func WithClock(clock Clock) Option {
	return func(r *Ranker) error {
		if clock == nil {
			return errors.New("clock is nil")
		}

		r.clock = clock
		return nil
	}
}

// WithMatchMode set how query text is matched
func WithMatchMode(mode MatchMode) Option {
	return func(r *Ranker) error {
		switch mode {
		case MatchCaseSensitive, MatchCaseInsensitive:
		default:
			return errors.Errorf("unknown match mode %d", mode)
		}

		r.mode = mode
		return nil
	}
}

// NewRanker new ranker over store
func NewRanker(store Store, opts ...Option) (*Ranker, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}

	r := &Ranker{
		store:  store,
		logger: log.Logger.Named("search_ranker"),
		clock:  gutils.Clock.GetUTCNow,
		mode:   MatchCaseSensitive,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	return r, nil
}

// Search run query and return one page of ranked results.
//
// A blank query returns an empty page without touching the store.
// With TypeAll the three entity lists are merged, sorted by score
// and cut to the page window; Total is the sum of the per-type counts.
// Otherwise pagination happens in the store and Total is that type's count.
func (r *Ranker) Search(ctx context.Context, req Request) (*Response, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Results: []Result{},
		Page:    req.Page,
		Limit:   req.Limit,
		Query:   req.Query,
	}
	text := strings.TrimSpace(req.Query)
	if text == "" {
		return resp, nil
	}

	logger := r.logger.With(
		zap.String("query", text),
		zap.String("type", string(req.Type)),
		zap.Int("page", req.Page),
		zap.Int("limit", req.Limit),
	)
	filter := NewFilter(text, r.mode)
	now := r.clock()

	if req.Type == TypeAll {
		err = r.searchAll(ctx, filter, now, req, resp)
	} else {
		err = r.searchOne(ctx, filter, now, req, resp)
	}
	if err != nil {
		logger.Warn("search failed", zap.Error(err))
		return nil, err
	}

	logger.Debug("search done", zap.Int("n", len(resp.Results)), zap.Int64("total", resp.Total))
	return resp, nil
}

func (r *Ranker) searchAll(ctx context.Context, filter Filter, now time.Time, req Request, resp *Response) error {
	posts, err := r.posts(ctx, filter, nil, now)
	if err != nil {
		return err
	}
	tags, err := r.tags(ctx, filter, nil)
	if err != nil {
		return err
	}
	cates, err := r.categories(ctx, filter, nil)
	if err != nil {
		return err
	}

	merged := make([]Result, 0, len(posts)+len(tags)+len(cates))
	merged = append(merged, posts...)
	merged = append(merged, tags...)
	merged = append(merged, cates...)
	sortByScore(merged)

	resp.Total = int64(len(merged))
	start := min((req.Page-1)*req.Limit, len(merged))
	end := min(start+req.Limit, len(merged))
	resp.Results = append(resp.Results, merged[start:end]...)
	return nil
}

func (r *Ranker) searchOne(ctx context.Context, filter Filter, now time.Time, req Request, resp *Response) (err error) {
	window := NewWindow(req.Page, req.Limit)
	var results []Result
	switch req.Type {
	case TypePosts:
		if results, err = r.posts(ctx, filter, window, now); err != nil {
			return err
		}
		if resp.Total, err = r.store.CountPosts(ctx, filter); err != nil {
			return failed("count posts", err)
		}
	case TypeTags:
		if results, err = r.tags(ctx, filter, window); err != nil {
			return err
		}
		if resp.Total, err = r.store.CountTags(ctx, filter); err != nil {
			return failed("count tags", err)
		}
	case TypeCategories:
		if results, err = r.categories(ctx, filter, window); err != nil {
			return err
		}
		if resp.Total, err = r.store.CountCategories(ctx, filter); err != nil {
			return failed("count categories", err)
		}
	default:
		return errors.Wrapf(ErrInvalidType, "%q", req.Type)
	}

	sortByScore(results)
	resp.Results = append(resp.Results, results...)
	return nil
}

func (r *Ranker) posts(ctx context.Context, filter Filter, window *Window, now time.Time) ([]Result, error) {
	posts, err := r.store.FindPosts(ctx, filter, window)
	if err != nil {
		return nil, failed("find posts", err)
	}

	results := make([]Result, 0, len(posts))
	for _, p := range posts {
		// unpublished and deleted posts never leave the ranker
		if !p.IsSearchable() {
			continue
		}

		results = append(results, Result{Type: EntityPost, Post: p, Score: ScorePost(p, filter, now)})
	}

	return results, nil
}

func (r *Ranker) tags(ctx context.Context, filter Filter, window *Window) ([]Result, error) {
	tags, err := r.store.FindTags(ctx, filter, window)
	if err != nil {
		return nil, failed("find tags", err)
	}

	results := make([]Result, 0, len(tags))
	for _, t := range tags {
		results = append(results, Result{Type: EntityTag, Tag: t, Score: ScoreTag(t, filter)})
	}

	return results, nil
}

func (r *Ranker) categories(ctx context.Context, filter Filter, window *Window) ([]Result, error) {
	cates, err := r.store.FindCategories(ctx, filter, window)
	if err != nil {
		return nil, failed("find categories", err)
	}

	results := make([]Result, 0, len(cates))
	for _, c := range cates {
		results = append(results, Result{Type: EntityCategory, Category: c, Score: ScoreCategory(c, filter)})
	}

	return results, nil
}

// sortByScore descending, ties keep retrieval order
func sortByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
