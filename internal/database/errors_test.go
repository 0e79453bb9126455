package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	slugErr := fmt.Errorf("create post: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_posts_slug"})

	assert.True(t, IsUniqueViolation(slugErr, ""))
	assert.True(t, IsUniqueViolation(slugErr, "idx_posts_slug"))
	assert.False(t, IsUniqueViolation(slugErr, "idx_users_email"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("UNIQUE"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
