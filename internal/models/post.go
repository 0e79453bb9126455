package models

import (
	"time"

	"github.com/lib/pq"
)

type Post struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	UserID    int64          `gorm:"not null;index" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Excerpt   string         `gorm:"size:500" json:"excerpt"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	ImageURL  string         `json:"image_url"`
	Slug      string         `gorm:"size:255;not null;uniqueIndex:idx_posts_slug" json:"slug"`
	Tags      pq.StringArray `gorm:"type:text[];not null;default:'{}';index:idx_posts_tags,type:gin" json:"tags"`
	Published bool           `gorm:"not null;default:false;index" json:"published"`
	Views     int64          `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PostDetail is a post decorated with its author and aggregate counters.
type PostDetail struct {
	Post
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
}

type PostStats struct {
	PostID       int64 `json:"post_id"`
	Views        int64 `json:"views"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
}

type CreatePostRequest struct {
	Title     string   `json:"title" binding:"required,min=3,max=200"`
	Excerpt   string   `json:"excerpt" binding:"max=500"`
	Body      string   `json:"body" binding:"required,min=1"`
	ImageURL  string   `json:"image_url" binding:"max=1024"`
	Tags      []string `json:"tags" binding:"max=10,dive,max=30"`
	Published bool     `json:"published"`
}

type UpdatePostRequest struct {
	Title     *string   `json:"title" binding:"omitempty,min=3,max=200"`
	Excerpt   *string   `json:"excerpt" binding:"omitempty,max=500"`
	Body      *string   `json:"body" binding:"omitempty,min=1"`
	ImageURL  *string   `json:"image_url" binding:"omitempty,max=1024"`
	Tags      *[]string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
	Published *bool     `json:"published"`
}
