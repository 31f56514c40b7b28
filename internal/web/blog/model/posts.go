// Package model contains the persistent entities of the blog.
package model

import (
	"time"

	"gorm.io/gorm"
)

// Post blog post
type Post struct {
	// ID unique identifier for the post
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	// Title title of the post
	Title string `gorm:"type:varchar(255);not null" json:"title"`
	// Slug short url-safe identifier, unique across all posts
	Slug string `gorm:"type:varchar(16);uniqueIndex;not null" json:"slug"`
	// Markdown source of the post
	Markdown string `gorm:"type:text" json:"markdown"`
	// Content html rendered from Markdown
	Content string `gorm:"type:text" json:"content"`
	// Excerpt short summary shown in listings
	Excerpt string `gorm:"type:text" json:"excerpt"`
	// Published only published posts are visible to readers and search
	Published   bool       `gorm:"not null;default:false;index" json:"published"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	ViewCount   int        `gorm:"not null;default:0" json:"view_count"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	CategoryID  *uint      `gorm:"index" json:"category_id,omitempty"`
	Category    *Category  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category,omitempty"`
	Tags        []Tag      `gorm:"many2many:post_tags;" json:"tags"`
}

// IsSearchable whether the post could be returned by search
func (p *Post) IsSearchable() bool {
	return p.Published && !p.DeletedAt.Valid
}

// TagNames names of the post's tags in order
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for i := range p.Tags {
		names = append(names, p.Tags[i].Name)
	}

	return names
}

// CategoryName name of the category, empty when uncategorized
func (p *Post) CategoryName() string {
	if p.Category == nil {
		return ""
	}

	return p.Category.Name
}
