package dao

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-search/internal/web/blog/search"
	"github.com/Laisky/laisky-blog-search/library/db/sql"
	"github.com/Laisky/laisky-blog-search/library/log"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern contains-pattern that matches text literally
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

// matcher renders "column contains text" for one dialect and mode
type matcher struct {
	expr string
	arg  any
}

func newMatcher(dialect string, f search.Filter) matcher {
	switch {
	case f.Mode == search.MatchCaseInsensitive && dialect == sql.TypeSQLite:
		// fold both sides the way Filter.Contains does
		return matcher{expr: "instr(" + sql.SQLiteLowerFunc + "(%s), ?) > 0", arg: strings.ToLower(f.Text)}
	case f.Mode == search.MatchCaseInsensitive:
		return matcher{expr: `LOWER(%s) LIKE LOWER(?) ESCAPE '\'`, arg: likePattern(f.Text)}
	case dialect == sql.TypeSQLite:
		// sqlite LIKE ignores ascii case
		return matcher{expr: "instr(%s, ?) > 0", arg: f.Text}
	default:
		return matcher{expr: `%s LIKE ? ESCAPE '\'`, arg: likePattern(f.Text)}
	}
}

func (m matcher) on(column string) string {
	return fmt.Sprintf(m.expr, column)
}

// SQL blog store over gorm
type SQL struct {
	logger  logSDK.Logger
	db      *gorm.DB
	dialect string
}

// NewSQL new sql store
func NewSQL(db *gorm.DB, logger logSDK.Logger) (*SQL, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if logger == nil {
		logger = log.Logger.Named("blog_sql_dao")
	}

	return &SQL{
		logger:  logger,
		db:      db,
		dialect: db.Dialector.Name(),
	}, nil
}

// Migrate auto migrate all blog tables
func (d *SQL) Migrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(model.AllModels()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	return nil
}

// Close close connection pool
func (d *SQL) Close(context.Context) error {
	return sql.Close(d.db)
}

func (d *SQL) postsQuery(ctx context.Context, f search.Filter) *gorm.DB {
	m := newMatcher(d.dialect, f)
	byTag := "EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id" +
		" WHERE post_tags.post_id = posts.id AND " + m.on("tags.name") + ")"

	return d.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("posts.published = ?", true).
		Where(d.db.Where(m.on("posts.title"), m.arg).
			Or(m.on("posts.content"), m.arg).
			Or(m.on("posts.excerpt"), m.arg).
			Or(byTag, m.arg))
}

func (d *SQL) taxonomyQuery(ctx context.Context, table any, f search.Filter) *gorm.DB {
	m := newMatcher(d.dialect, f)
	return d.db.WithContext(ctx).
		Model(table).
		Where(d.db.Where(m.on("name"), m.arg).
			Or(m.on("description"), m.arg))
}

func paginate(q *gorm.DB, w *search.Window) *gorm.DB {
	if w == nil {
		return q
	}

	return q.Offset(w.Skip).Limit(w.Take)
}

// FindPosts newest published posts first
func (d *SQL) FindPosts(ctx context.Context, f search.Filter, w *search.Window) ([]*model.Post, error) {
	var posts []*model.Post
	err := paginate(d.postsQuery(ctx, f), w).
		Preload("Tags").
		Preload("Category").
		Order("posts.published_at DESC").
		Order("posts.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find posts by %q", f.Text)
	}

	return posts, nil
}

// CountPosts count matched posts
func (d *SQL) CountPosts(ctx context.Context, f search.Filter) (n int64, err error) {
	if err = d.postsQuery(ctx, f).Count(&n).Error; err != nil {
		return 0, errors.Wrapf(err, "count posts by %q", f.Text)
	}

	return n, nil
}

// FindTags most used tags first
func (d *SQL) FindTags(ctx context.Context, f search.Filter, w *search.Window) ([]*model.Tag, error) {
	var tags []*model.Tag
	err := paginate(d.taxonomyQuery(ctx, &model.Tag{}, f), w).
		Order("post_count DESC").
		Order("id ASC").
		Find(&tags).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find tags by %q", f.Text)
	}

	return tags, nil
}

// CountTags count matched tags
func (d *SQL) CountTags(ctx context.Context, f search.Filter) (n int64, err error) {
	if err = d.taxonomyQuery(ctx, &model.Tag{}, f).Count(&n).Error; err != nil {
		return 0, errors.Wrapf(err, "count tags by %q", f.Text)
	}

	return n, nil
}

// FindCategories most used categories first
func (d *SQL) FindCategories(ctx context.Context, f search.Filter, w *search.Window) ([]*model.Category, error) {
	var cates []*model.Category
	err := paginate(d.taxonomyQuery(ctx, &model.Category{}, f), w).
		Order("post_count DESC").
		Order("id ASC").
		Find(&cates).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find categories by %q", f.Text)
	}

	return cates, nil
}

// CountCategories count matched categories
func (d *SQL) CountCategories(ctx context.Context, f search.Filter) (n int64, err error) {
	if err = d.taxonomyQuery(ctx, &model.Category{}, f).Count(&n).Error; err != nil {
		return 0, errors.Wrapf(err, "count categories by %q", f.Text)
	}

	return n, nil
}

// SlugExists soft-deleted posts still hold their slug
func (d *SQL) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := d.db.WithContext(ctx).
		Unscoped().
		Model(&model.Post{}).
		Where("slug = ?", slug).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrapf(err, "check slug %q", slug)
	}

	return n > 0, nil
}

// CreatePost create post with its taxonomy in one transaction
func (d *SQL) CreatePost(ctx context.Context, post *model.Post, tagNames []string, categoryName string) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if categoryName != "" {
			cate := &model.Category{}
			if err := upsertTaxonomy(tx, cate, categoryName); err != nil {
				return errors.Wrapf(err, "upsert category %q", categoryName)
			}

			post.CategoryID = &cate.ID
			post.Category = cate
		}

		post.Tags = make([]model.Tag, 0, len(tagNames))
		for _, name := range tagNames {
			tag := model.Tag{}
			if err := upsertTaxonomy(tx, &tag, name); err != nil {
				return errors.Wrapf(err, "upsert tag %q", name)
			}

			post.Tags = append(post.Tags, tag)
		}

		// join rows only, tags and category are already stored
		if err := tx.Omit("Tags.*", "Category").Create(post).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.Wrapf(ErrDuplicate, "post slug %q", post.Slug)
			}

			return errors.Wrap(err, "insert post")
		}

		return nil
	})
	if err != nil {
		return err
	}

	d.logger.Debug("post created", zap.Uint("id", post.ID), zap.String("slug", post.Slug))
	return nil
}

// upsertTaxonomy load or create tag/category by name and count one more post.
// dest must be *model.Tag or *model.Category.
func upsertTaxonomy(tx *gorm.DB, dest any, name string) error {
	now := tx.NowFunc()
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Model(dest).
		Create(map[string]any{
			"name":       name,
			"post_count": 0,
			"created_at": now,
			"updated_at": now,
		}).Error; err != nil {
		return errors.Wrap(err, "insert")
	}

	if err := tx.Model(dest).
		Where("name = ?", name).
		UpdateColumn("post_count", gorm.Expr("post_count + ?", 1)).Error; err != nil {
		return errors.Wrap(err, "increase post count")
	}

	if err := tx.Where("name = ?", name).First(dest).Error; err != nil {
		return errors.Wrap(err, "load")
	}

	return nil
}

// LoadPostBySlug load published post and increase its view count
func (d *SQL) LoadPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	post := &model.Post{}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Tags").
			Preload("Category").
			Where("slug = ? AND published = ?", slug, true).
			First(post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(ErrNotFound, "post %q", slug)
			}

			return errors.Wrapf(err, "load post %q", slug)
		}

		if err := tx.Model(post).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
			return errors.Wrapf(err, "increase view count of %q", slug)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	post.ViewCount++
	return post, nil
}

// LoadUserByID load user by id
func (d *SQL) LoadUserByID(ctx context.Context, id uint) (*model.User, error) {
	u := &model.User{}
	if err := d.db.WithContext(ctx).First(u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "user %d", id)
		}

		return nil, errors.Wrapf(err, "load user %d", id)
	}

	return u, nil
}

// EnsureUser load or create user by account
func (d *SQL) EnsureUser(ctx context.Context, account, username string) (*model.User, error) {
	u := &model.User{}
	err := d.db.WithContext(ctx).
		Where(model.User{Account: account}).
		Attrs(model.User{Username: username}).
		FirstOrCreate(u).Error
	if err != nil {
		return nil, errors.Wrapf(err, "ensure user %q", account)
	}

	return u, nil
}
