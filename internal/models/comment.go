package models

import "time"

type Comment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	PostID    int64     `gorm:"not null;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentDetail carries the comment author and the post it belongs to.
type CommentDetail struct {
	Comment
	AuthorName   string `json:"author_name"`
	AuthorAvatar string `json:"author_avatar"`
	PostTitle    string `json:"post_title"`
	PostSlug     string `json:"post_slug"`
	// PostPublished lets readers hide comments on drafts.
	PostPublished bool `json:"-"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required,min=1,max=2000"`
}
