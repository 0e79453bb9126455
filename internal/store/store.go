package store

import (
	"context"
	"errors"
	"time"

	"github.com/emilythestrangee/blog-platform/backend/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrSlugTaken  = errors.New("slug already in use")
	ErrEmailTaken = errors.New("email already registered")
)

// PostOrder selects the ordering of a post listing.
type PostOrder int

const (
	OrderNewest PostOrder = iota
	OrderMostLiked
)

// PostQuery describes one page of a post listing. A non-empty Search switches
// the query into search mode, in which Tags and AuthorID are ignored.
type PostQuery struct {
	Page Page
	Tags []string
	// AuthorID of zero means any author.
	AuthorID int64
	Search   string
	// LikedBy restricts the listing to posts liked by that user.
	LikedBy       int64
	IncludeDrafts bool
	Since         time.Time
	Order         PostOrder
}

// SearchMode reports whether the free-text search overrides the filters.
func (q PostQuery) SearchMode() bool {
	return q.Search != ""
}

type Store interface {
	UserStore
	PostStore
	CommentStore
	LikeStore
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	GetUserProfile(ctx context.Context, id int64) (models.UserProfile, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id int64) (models.PostDetail, error)
	GetPostBySlug(ctx context.Context, slug string) (models.PostDetail, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id int64) error
	SetPublished(ctx context.Context, id int64, published bool) error
	IncrementViews(ctx context.Context, id int64) error
	ListPosts(ctx context.Context, q PostQuery) ([]models.PostDetail, int64, error)
	// SlugExists ignores the post with excludeID; pass zero to check all posts.
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	PostOwner(ctx context.Context, id int64) (int64, error)
	GetPostStats(ctx context.Context, id int64) (models.PostStats, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id int64) (models.CommentDetail, error)
	UpdateComment(ctx context.Context, id int64, text string) error
	DeleteComment(ctx context.Context, id int64) error
	ListCommentsByPost(ctx context.Context, postID int64, page Page) ([]models.CommentDetail, int64, error)
	ListCommentsByUser(ctx context.Context, userID int64, page Page) ([]models.CommentDetail, int64, error)
	CommentOwner(ctx context.Context, id int64) (int64, error)
}

type LikeStore interface {
	// AddLike inserts the like if absent. It reports false when the row
	// already existed.
	AddLike(ctx context.Context, postID, userID int64) (bool, error)
	// RemoveLike reports whether a row was deleted.
	RemoveLike(ctx context.Context, postID, userID int64) (bool, error)
	HasLiked(ctx context.Context, postID, userID int64) (bool, error)
	CountLikes(ctx context.Context, postID int64) (int64, error)
	ListLikers(ctx context.Context, postID int64, page Page) ([]models.Liker, int64, error)
}
