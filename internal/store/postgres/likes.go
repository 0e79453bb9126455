package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

// AddLike is an insert-if-absent on the (post_id, user_id) unique index. A
// conflicting concurrent insert shows up as zero affected rows, not an error.
func (s *Store) AddLike(ctx context.Context, postID, userID int64) (bool, error) {
	like := models.Like{PostID: postID, UserID: userID}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	if res.Error != nil {
		return false, fmt.Errorf("add like: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID int64) (bool, error) {
	res := s.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("remove like: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) HasLiked(ctx context.Context, postID, userID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return n > 0, nil
}

func (s *Store) CountLikes(ctx context.Context, postID int64) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func (s *Store) ListLikers(ctx context.Context, postID int64, page store.Page) ([]models.Liker, int64, error) {
	total, err := s.CountLikes(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	likers := []models.Liker{}
	if total == 0 {
		return likers, 0, nil
	}
	if err := s.db.WithContext(ctx).Raw(likerPage, postID, page.Limit, page.Offset()).Scan(&likers).Error; err != nil {
		return nil, 0, fmt.Errorf("list likers: %w", err)
	}
	return likers, total, nil
}
