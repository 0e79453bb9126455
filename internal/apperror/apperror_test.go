package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

func TestFromClassifiesStorageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"store not found", fmt.Errorf("get post: %w", store.ErrNotFound), KindNotFound},
		{"gorm not found", gorm.ErrRecordNotFound, KindNotFound},
		{"slug taken", store.ErrSlugTaken, KindConflict},
		{"email taken", store.ErrEmailTaken, KindConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, KindConflict},
		{"fk violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), KindNotFound},
		{"bad text", &pgconn.PgError{Code: "22P02"}, KindValidation},
		{"other pg", &pgconn.PgError{Code: "53300"}, KindInternal},
		{"json syntax", &json.SyntaxError{}, KindValidation},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
		})
	}
}

func TestFromKeepsAppErrors(t *testing.T) {
	orig := Forbidden("not yours")
	got := From(fmt.Errorf("wrapped: %w", orig))
	assert.Same(t, orig, got)
	assert.Equal(t, http.StatusForbidden, got.Kind.Status())
	assert.Nil(t, From(nil))
}

func TestFromDescribesValidationErrors(t *testing.T) {
	type input struct {
		Email    string `validate:"required,email"`
		Password string `validate:"min=6"`
	}
	err := validator.New().Struct(input{Email: "nope", Password: "123"})
	require.Error(t, err)

	got := From(err)
	assert.Equal(t, KindValidation, got.Kind)
	assert.Equal(t, "email must be a valid email address; password must be at least 6 characters", got.Message)
}

func TestDescribeFieldUnits(t *testing.T) {
	type input struct {
		Title string         `validate:"min=3"`
		Tags  []string       `validate:"max=2"`
		Meta  map[string]int `validate:"max=1"`
		Age   int            `validate:"min=18"`
	}
	err := validator.New().Struct(input{
		Title: "ab",
		Tags:  []string{"a", "b", "c"},
		Meta:  map[string]int{"a": 1, "b": 2},
		Age:   3,
	})
	require.Error(t, err)

	assert.Equal(t,
		"title must be at least 3 characters; tags must be at most 2 items; meta must be at most 1 items; age must be at least 18",
		From(err).Message)
}

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.Status())
	assert.Equal(t, http.StatusUnauthorized, KindUnauthorized.Status())
	assert.Equal(t, http.StatusConflict, KindConflict.Status())
	assert.Equal(t, http.StatusInternalServerError, KindInternal.Status())
	assert.Equal(t, "not_found", KindNotFound.String())
}
