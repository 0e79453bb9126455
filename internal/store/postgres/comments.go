package postgres

import (
	"context"
	"fmt"

	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *Store) GetComment(ctx context.Context, id int64) (models.CommentDetail, error) {
	var rows []models.CommentDetail
	if err := s.db.WithContext(ctx).Raw(commentSelect+"\nWHERE c.id = ?", id).Scan(&rows).Error; err != nil {
		return models.CommentDetail{}, fmt.Errorf("get comment %d: %w", id, err)
	}
	if len(rows) == 0 {
		return models.CommentDetail{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) UpdateComment(ctx context.Context, id int64, text string) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("text", text)
	if res.Error != nil {
		return fmt.Errorf("update comment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete comment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCommentsByPost(ctx context.Context, postID int64, page store.Page) ([]models.CommentDetail, int64, error) {
	return s.listComments(ctx, "post_id", postID, page)
}

func (s *Store) ListCommentsByUser(ctx context.Context, userID int64, page store.Page) ([]models.CommentDetail, int64, error) {
	return s.listComments(ctx, "user_id", userID, page)
}

func (s *Store) listComments(ctx context.Context, column string, id int64, page store.Page) ([]models.CommentDetail, int64, error) {
	db := s.db.WithContext(ctx)

	countSQL, countArgs := buildCommentCount(column, id)
	var total int64
	if err := db.Raw(countSQL, countArgs...).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	comments := []models.CommentDetail{}
	if total == 0 {
		return comments, 0, nil
	}

	pageSQL, pageArgs := buildCommentPage(column, id, page)
	if err := db.Raw(pageSQL, pageArgs...).Scan(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

func (s *Store) CommentOwner(ctx context.Context, id int64) (int64, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Select("id", "user_id").First(&comment, id).Error; err != nil {
		return 0, notFound(err)
	}
	return comment.UserID, nil
}
