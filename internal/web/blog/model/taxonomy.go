package model

import "time"

// Tag post tag
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	// PostCount denormalized number of posts carrying this tag
	PostCount int `gorm:"not null;default:0" json:"post_count"`
}

// Category post category, a post has at most one
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	// PostCount denormalized number of posts in this category
	PostCount int `gorm:"not null;default:0" json:"post_count"`
}

// DescriptionText description or empty string
func (t *Tag) DescriptionText() string {
	if t.Description == nil {
		return ""
	}

	return *t.Description
}

// DescriptionText description or empty string
func (c *Category) DescriptionText() string {
	if c.Description == nil {
		return ""
	}

	return *c.Description
}
