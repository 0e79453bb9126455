package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/blog-platform/backend/internal/database"
	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		if database.IsUniqueViolation(err, slugIndex) {
			return store.ErrSlugTaken
		}
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id int64) (models.PostDetail, error) {
	return s.getPostDetail(ctx, "p.id = ?", id)
}

func (s *Store) GetPostBySlug(ctx context.Context, slug string) (models.PostDetail, error) {
	return s.getPostDetail(ctx, "p.slug = ?", slug)
}

func (s *Store) getPostDetail(ctx context.Context, where string, arg any) (models.PostDetail, error) {
	var rows []models.PostDetail
	if err := s.db.WithContext(ctx).Raw(buildPostDetail(where), arg).Scan(&rows).Error; err != nil {
		return models.PostDetail{}, fmt.Errorf("get post: %w", err)
	}
	if len(rows) == 0 {
		return models.PostDetail{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	res := s.db.WithContext(ctx).Model(post).
		Select("title", "excerpt", "body", "image_url", "slug", "tags", "published", "updated_at").
		Updates(post)
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error, slugIndex) {
			return store.ErrSlugTaken
		}
		return fmt.Errorf("update post %d: %w", post.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePost removes the post; its comments and likes cascade.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetPublished(ctx context.Context, id int64, published bool) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("published", published)
	if res.Error != nil {
		return fmt.Errorf("set published on post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementViews bumps the counter without touching updated_at.
func (s *Store) IncrementViews(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return fmt.Errorf("increment views on post %d: %w", id, err)
	}
	return nil
}

func (s *Store) ListPosts(ctx context.Context, q store.PostQuery) ([]models.PostDetail, int64, error) {
	db := s.db.WithContext(ctx)

	countSQL, countArgs := buildPostCount(q)
	var total int64
	if err := db.Raw(countSQL, countArgs...).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	posts := []models.PostDetail{}
	if total == 0 {
		return posts, 0, nil
	}

	pageSQL, pageArgs := buildPostPage(q)
	if err := db.Raw(pageSQL, pageArgs...).Scan(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

func (s *Store) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("probe slug: %w", err)
	}
	return n > 0, nil
}

func (s *Store) PostOwner(ctx context.Context, id int64) (int64, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "user_id").First(&post, id).Error; err != nil {
		return 0, notFound(err)
	}
	return post.UserID, nil
}

func (s *Store) GetPostStats(ctx context.Context, id int64) (models.PostStats, error) {
	var stats models.PostStats
	res := s.db.WithContext(ctx).Raw(postStats, id).Scan(&stats)
	if res.Error != nil {
		return models.PostStats{}, fmt.Errorf("get post stats %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.PostStats{}, store.ErrNotFound
	}
	return stats, nil
}
