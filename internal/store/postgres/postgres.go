// Package postgres implements the store interfaces on top of gorm and
// PostgreSQL. List queries are hand-written SQL built in query.go.
package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

const (
	slugIndex  = "idx_posts_slug"
	emailIndex = "idx_users_email"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}
