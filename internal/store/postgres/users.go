package postgres

import (
	"context"
	"fmt"

	"github.com/emilythestrangee/blog-platform/backend/internal/database"
	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err, emailIndex) {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).Model(user).
		Select("name", "email", "password_hash", "avatar_url", "bio", "updated_at").
		Updates(user)
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error, emailIndex) {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("update user %d: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteUser removes the user; posts, comments and likes go with it through
// the ON DELETE CASCADE foreign keys.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetUserProfile(ctx context.Context, id int64) (models.UserProfile, error) {
	var profile models.UserProfile
	res := s.db.WithContext(ctx).Raw(userProfile, id).Scan(&profile)
	if res.Error != nil {
		return models.UserProfile{}, fmt.Errorf("get user profile %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.UserProfile{}, store.ErrNotFound
	}
	return profile, nil
}
