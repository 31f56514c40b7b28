package dao

import (
	"context"
	"regexp"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
	"github.com/Laisky/laisky-blog-search/library/db/mongo"
	"github.com/Laisky/laisky-blog-search/library/log"
)

const (
	colPosts      = "posts"
	colTags       = "tags"
	colCategories = "categories"
	colUsers      = "users"
	colCounters   = "counters"
)

type taxonomyDoc struct {
	ID          uint      `bson:"_id"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
	Name        string    `bson:"name"`
	Description *string   `bson:"description,omitempty"`
	PostCount   int       `bson:"post_count"`
}

type postDoc struct {
	ID          uint       `bson:"_id"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
	DeletedAt   *time.Time `bson:"deleted_at,omitempty"`
	Title       string     `bson:"title"`
	Slug        string     `bson:"slug"`
	Markdown    string     `bson:"markdown"`
	Content     string     `bson:"content"`
	Excerpt     string     `bson:"excerpt"`
	Published   bool       `bson:"published"`
	PublishedAt *time.Time `bson:"published_at,omitempty"`
	ViewCount   int        `bson:"view_count"`
	AuthorID    uint       `bson:"author_id"`
	// Category and Tags are embedded snapshots
	Category *taxonomyDoc  `bson:"category,omitempty"`
	Tags     []taxonomyDoc `bson:"tags"`
}

type userDoc struct {
	ID        uint      `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Username  string    `bson:"username"`
	Account   string    `bson:"account"`
}

func (t *taxonomyDoc) toTag() *model.Tag {
	return &model.Tag{
		ID:          t.ID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Name:        t.Name,
		Description: t.Description,
		PostCount:   t.PostCount,
	}
}

func (t *taxonomyDoc) toCategory() *model.Category {
	return &model.Category{
		ID:          t.ID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Name:        t.Name,
		Description: t.Description,
		PostCount:   t.PostCount,
	}
}

func (p *postDoc) toModel() *model.Post {
	post := &model.Post{
		ID:          p.ID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Title:       p.Title,
		Slug:        p.Slug,
		Markdown:    p.Markdown,
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		Published:   p.Published,
		PublishedAt: p.PublishedAt,
		ViewCount:   p.ViewCount,
		AuthorID:    p.AuthorID,
		Tags:        make([]model.Tag, 0, len(p.Tags)),
	}
	if p.DeletedAt != nil {
		post.DeletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	}
	if p.Category != nil {
		post.CategoryID = &p.Category.ID
		post.Category = p.Category.toCategory()
	}
	for i := range p.Tags {
		post.Tags = append(post.Tags, *p.Tags[i].toTag())
	}

	return post
}

func newPostDoc(post *model.Post) *postDoc {
	doc := &postDoc{
		ID:          post.ID,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
		Title:       post.Title,
		Slug:        post.Slug,
		Markdown:    post.Markdown,
		Content:     post.Content,
		Excerpt:     post.Excerpt,
		Published:   post.Published,
		PublishedAt: post.PublishedAt,
		ViewCount:   post.ViewCount,
		AuthorID:    post.AuthorID,
		Tags:        make([]taxonomyDoc, 0, len(post.Tags)),
	}
	if post.Category != nil {
		doc.Category = &taxonomyDoc{
			ID:          post.Category.ID,
			CreatedAt:   post.Category.CreatedAt,
			UpdatedAt:   post.Category.UpdatedAt,
			Name:        post.Category.Name,
			Description: post.Category.Description,
			PostCount:   post.Category.PostCount,
		}
	}
	for _, t := range post.Tags {
		doc.Tags = append(doc.Tags, taxonomyDoc{
			ID:          t.ID,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
			Name:        t.Name,
			Description: t.Description,
			PostCount:   t.PostCount,
		})
	}

	return doc
}

// textRegex literal contains-match of filter text
func textRegex(f search.Filter) primitive.Regex {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Text)}
	if f.Mode == search.MatchCaseInsensitive {
		re.Options = "i"
	}

	return re
}

// postsFilter published, not deleted posts matching f.
// {deleted_at: null} matches both missing and null fields.
func postsFilter(f search.Filter) bson.D {
	re := textRegex(f)
	return bson.D{
		{Key: "published", Value: true},
		{Key: "deleted_at", Value: nil},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "content", Value: re}},
			bson.D{{Key: "excerpt", Value: re}},
			bson.D{{Key: "tags.name", Value: re}},
		}},
	}
}

func taxonomyFilter(f search.Filter) bson.D {
	re := textRegex(f)
	return bson.D{
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}},
	}
}

func findOptions(sort bson.D, w *search.Window) *options.FindOptions {
	opt := options.Find().SetSort(sort)
	if w != nil {
		opt.SetSkip(int64(w.Skip)).SetLimit(int64(w.Take))
	}

	return opt
}

var (
	postsSort    = bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: -1}}
	taxonomySort = bson.D{{Key: "post_count", Value: -1}, {Key: "_id", Value: 1}}
)

// Clock returns the current UTC time
type Clock func() time.Time

// Mongo blog store over MongoDB
type Mongo struct {
	logger logSDK.Logger
	db     mongo.DB
	clock  Clock
}

// NewMongo new mongo store
func NewMongo(db mongo.DB, logger logSDK.Logger, clock Clock) (*Mongo, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if logger == nil {
		logger = log.Logger.Named("blog_mongo_dao")
	}
	if clock == nil {
		clock = gutils.Clock.GetUTCNow
	}

	return &Mongo{
		logger: logger,
		db:     db,
		clock:  clock,
	}, nil
}

// GetPostsCol get posts collection
func (d *Mongo) GetPostsCol() *mongoLib.Collection {
	return d.db.GetCol(colPosts)
}

// GetTagsCol get tags collection
func (d *Mongo) GetTagsCol() *mongoLib.Collection {
	return d.db.GetCol(colTags)
}

// GetCategoriesCol get categories collection
func (d *Mongo) GetCategoriesCol() *mongoLib.Collection {
	return d.db.GetCol(colCategories)
}

// GetUsersCol get users collection
func (d *Mongo) GetUsersCol() *mongoLib.Collection {
	return d.db.GetCol(colUsers)
}

// Close disconnect
func (d *Mongo) Close(ctx context.Context) error {
	return d.db.Close(ctx)
}

// Migrate create unique indexes
func (d *Mongo) Migrate(ctx context.Context) error {
	unique := func(key string) mongoLib.IndexModel {
		return mongoLib.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}

	for col, idx := range map[string]mongoLib.IndexModel{
		colPosts:      unique("slug"),
		colTags:       unique("name"),
		colCategories: unique("name"),
		colUsers:      unique("account"),
	} {
		if _, err := d.db.GetCol(col).Indexes().CreateOne(ctx, idx); err != nil {
			return errors.Wrapf(err, "create index on %s", col)
		}
	}

	if _, err := d.GetPostsCol().Indexes().CreateOne(ctx, mongoLib.IndexModel{
		Keys: postsSort,
	}); err != nil {
		return errors.Wrap(err, "create posts sort index")
	}

	return nil
}

// FindPosts newest published posts first
func (d *Mongo) FindPosts(ctx context.Context, f search.Filter, w *search.Window) ([]*model.Post, error) {
	cur, err := d.GetPostsCol().Find(ctx, postsFilter(f), findOptions(postsSort, w))
	if err != nil {
		return nil, errors.Wrapf(err, "find posts by %q", f.Text)
	}

	var docs []*postDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode posts")
	}

	posts := make([]*model.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toModel())
	}

	return posts, nil
}

// CountPosts count matched posts
func (d *Mongo) CountPosts(ctx context.Context, f search.Filter) (int64, error) {
	n, err := d.GetPostsCol().CountDocuments(ctx, postsFilter(f))
	if err != nil {
		return 0, errors.Wrapf(err, "count posts by %q", f.Text)
	}

	return n, nil
}

func (d *Mongo) findTaxonomy(ctx context.Context, col *mongoLib.Collection,
	f search.Filter, w *search.Window) ([]*taxonomyDoc, error) {
	cur, err := col.Find(ctx, taxonomyFilter(f), findOptions(taxonomySort, w))
	if err != nil {
		return nil, errors.Wrapf(err, "find %s by %q", col.Name(), f.Text)
	}

	var docs []*taxonomyDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode %s", col.Name())
	}

	return docs, nil
}

// FindTags most used tags first
func (d *Mongo) FindTags(ctx context.Context, f search.Filter, w *search.Window) ([]*model.Tag, error) {
	docs, err := d.findTaxonomy(ctx, d.GetTagsCol(), f, w)
	if err != nil {
		return nil, err
	}

	tags := make([]*model.Tag, 0, len(docs))
	for _, doc := range docs {
		tags = append(tags, doc.toTag())
	}

	return tags, nil
}

// CountTags count matched tags
func (d *Mongo) CountTags(ctx context.Context, f search.Filter) (int64, error) {
	n, err := d.GetTagsCol().CountDocuments(ctx, taxonomyFilter(f))
	if err != nil {
		return 0, errors.Wrapf(err, "count tags by %q", f.Text)
	}

	return n, nil
}

// FindCategories most used categories first
func (d *Mongo) FindCategories(ctx context.Context, f search.Filter, w *search.Window) ([]*model.Category, error) {
	docs, err := d.findTaxonomy(ctx, d.GetCategoriesCol(), f, w)
	if err != nil {
		return nil, err
	}

	cates := make([]*model.Category, 0, len(docs))
	for _, doc := range docs {
		cates = append(cates, doc.toCategory())
	}

	return cates, nil
}

// CountCategories count matched categories
func (d *Mongo) CountCategories(ctx context.Context, f search.Filter) (int64, error) {
	n, err := d.GetCategoriesCol().CountDocuments(ctx, taxonomyFilter(f))
	if err != nil {
		return 0, errors.Wrapf(err, "count categories by %q", f.Text)
	}

	return n, nil
}

// SlugExists deleted posts still hold their slug
func (d *Mongo) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := d.GetPostsCol().CountDocuments(ctx,
		bson.D{{Key: "slug", Value: slug}},
		options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "check slug %q", slug)
	}

	return n > 0, nil
}

// nextID next value of the named sequence
func (d *Mongo) nextID(ctx context.Context, name string) (uint, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := d.db.GetCol(colCounters).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: name}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: 1}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, errors.Wrapf(err, "increase counter %q", name)
	}

	return uint(counter.Seq), nil
}

// upsertTaxonomy bump post_count of name, insert it when missing
func (d *Mongo) upsertTaxonomy(ctx context.Context, col *mongoLib.Collection, name string) (*taxonomyDoc, error) {
	now := d.clock()
	doc := &taxonomyDoc{}
	err := col.FindOneAndUpdate(ctx,
		bson.D{{Key: "name", Value: name}},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "post_count", Value: 1}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now}}},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(doc)
	switch {
	case err == nil:
		return doc, nil
	case !mongo.NotFound(err):
		return nil, errors.Wrapf(err, "update %s %q", col.Name(), name)
	}

	id, err := d.nextID(ctx, col.Name())
	if err != nil {
		return nil, err
	}

	doc = &taxonomyDoc{ID: id, CreatedAt: now, UpdatedAt: now, Name: name, PostCount: 1}
	if _, err = col.InsertOne(ctx, doc); err != nil {
		return nil, errors.Wrapf(err, "insert %s %q", col.Name(), name)
	}

	return doc, nil
}

// CreatePost insert post with embedded taxonomy.
//
// Counters are bumped before the insert and are not rolled back
// when the insert fails, there is no transaction on a standalone server.
func (d *Mongo) CreatePost(ctx context.Context, post *model.Post, tagNames []string, categoryName string) error {
	if categoryName != "" {
		doc, err := d.upsertTaxonomy(ctx, d.GetCategoriesCol(), categoryName)
		if err != nil {
			return errors.Wrapf(err, "upsert category %q", categoryName)
		}

		post.Category = doc.toCategory()
		post.CategoryID = &post.Category.ID
	}

	post.Tags = make([]model.Tag, 0, len(tagNames))
	for _, name := range tagNames {
		doc, err := d.upsertTaxonomy(ctx, d.GetTagsCol(), name)
		if err != nil {
			return errors.Wrapf(err, "upsert tag %q", name)
		}

		post.Tags = append(post.Tags, *doc.toTag())
	}

	id, err := d.nextID(ctx, colPosts)
	if err != nil {
		return err
	}

	now := d.clock()
	post.ID = id
	post.CreatedAt = now
	post.UpdatedAt = now
	if _, err = d.GetPostsCol().InsertOne(ctx, newPostDoc(post)); err != nil {
		if mongoLib.IsDuplicateKeyError(err) {
			return errors.Wrapf(ErrDuplicate, "post slug %q", post.Slug)
		}

		return errors.Wrap(err, "insert post")
	}

	d.logger.Debug("post created", zap.Uint("id", post.ID), zap.String("slug", post.Slug))
	return nil
}

// LoadPostBySlug load published post and increase its view count
func (d *Mongo) LoadPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	doc := &postDoc{}
	err := d.GetPostsCol().FindOneAndUpdate(ctx,
		bson.D{
			{Key: "slug", Value: slug},
			{Key: "published", Value: true},
			{Key: "deleted_at", Value: nil},
		},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "view_count", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(doc)
	if err != nil {
		if mongo.NotFound(err) {
			return nil, errors.Wrapf(ErrNotFound, "post %q", slug)
		}

		return nil, errors.Wrapf(err, "load post %q", slug)
	}

	return doc.toModel(), nil
}

func (u *userDoc) toModel() *model.User {
	return &model.User{
		ID:        u.ID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		Username:  u.Username,
		Account:   u.Account,
	}
}

// LoadUserByID load user by id
func (d *Mongo) LoadUserByID(ctx context.Context, id uint) (*model.User, error) {
	doc := &userDoc{}
	if err := d.GetUsersCol().
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).
		Decode(doc); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.Wrapf(ErrNotFound, "user %d", id)
		}

		return nil, errors.Wrapf(err, "load user %d", id)
	}

	return doc.toModel(), nil
}

// EnsureUser load or create user by account
func (d *Mongo) EnsureUser(ctx context.Context, account, username string) (*model.User, error) {
	doc := &userDoc{}
	err := d.GetUsersCol().
		FindOne(ctx, bson.D{{Key: "account", Value: account}}).
		Decode(doc)
	switch {
	case err == nil:
		return doc.toModel(), nil
	case !mongo.NotFound(err):
		return nil, errors.Wrapf(err, "load user %q", account)
	}

	id, err := d.nextID(ctx, colUsers)
	if err != nil {
		return nil, err
	}

	now := d.clock()
	doc = &userDoc{ID: id, CreatedAt: now, UpdatedAt: now, Username: username, Account: account}
	if _, err = d.GetUsersCol().InsertOne(ctx, doc); err != nil {
		return nil, errors.Wrapf(err, "insert user %q", account)
	}

	return doc.toModel(), nil
}
