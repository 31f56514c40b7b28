package model

import (
	"strconv"
	"time"
)

// User blog users, the authors of posts
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Username display name
	Username string `gorm:"type:varchar(64);not null" json:"username"`
	// Account login account, should be email
	Account string `gorm:"type:varchar(255);uniqueIndex;not null" json:"account"`
}

// GetID get id
func (u *User) GetID() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}

// GetPayload get payload
func (u *User) GetPayload() map[string]any {
	return map[string]any{
		"display_name": u.Username,
		"account":      u.Account,
	}
}

// AllModels every table managed by migrations
func AllModels() []any {
	return []any{&User{}, &Category{}, &Tag{}, &Post{}}
}
