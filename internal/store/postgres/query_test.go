package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

func TestBuildPostPageDefaults(t *testing.T) {
	q := store.PostQuery{Page: store.NewPage(1, 10, store.MaxPostLimit)}

	sql, args := buildPostPage(q)

	assert.Contains(t, sql, "WHERE p.published = TRUE")
	assert.Contains(t, sql, "ORDER BY "+orderNewest)
	assert.NotContains(t, sql, "HAVING")
	assert.True(t, strings.HasSuffix(sql, "LIMIT ? OFFSET ?"))
	assert.Equal(t, []any{10, 0}, args)
}

func TestBuildPostPageFilters(t *testing.T) {
	q := store.PostQuery{
		Page:     store.NewPage(3, 20, store.MaxPostLimit),
		Tags:     []string{"go", "sql"},
		AuthorID: 7,
	}

	sql, args := buildPostPage(q)

	assert.Contains(t, sql, "p.published = TRUE AND p.tags && ?::text[] AND p.user_id = ?")
	require.Len(t, args, 4)
	assert.Equal(t, pq.StringArray{"go", "sql"}, args[0])
	assert.Equal(t, int64(7), args[1])
	assert.Equal(t, 20, args[2])
	assert.Equal(t, 40, args[3])
}

func TestSearchIgnoresTagAndAuthorFilters(t *testing.T) {
	q := store.PostQuery{
		Page:     store.NewPage(1, 10, store.MaxPostLimit),
		Tags:     []string{"go"},
		AuthorID: 7,
		Search:   "Hello",
	}

	sql, args := buildPostPage(q)

	assert.Contains(t, sql, "(p.title ILIKE ? OR p.excerpt ILIKE ? OR p.body ILIKE ?)")
	assert.NotContains(t, sql, "p.tags &&")
	assert.NotContains(t, sql, "p.user_id = ?")
	assert.Equal(t, []any{"%Hello%", "%Hello%", "%Hello%", 10, 0}, args)
}

func TestSearchEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\%%`, containsPattern("100%"))
	assert.Equal(t, `%a\_b%`, containsPattern("a_b"))
	assert.Equal(t, `%c:\\tmp%`, containsPattern(`c:\tmp`))
}

func TestSearchTermNeverReachesSQLText(t *testing.T) {
	term := "'; DROP TABLE posts; --"
	q := store.PostQuery{Page: store.NewPage(1, 10, store.MaxPostLimit), Search: term}

	sql, _ := buildPostPage(q)
	countSQL, _ := buildPostCount(q)

	assert.NotContains(t, sql, "DROP TABLE")
	assert.NotContains(t, countSQL, "DROP TABLE")
}

func TestIncludeDraftsDropsPublishedPredicate(t *testing.T) {
	q := store.PostQuery{Page: store.NewPage(1, 10, store.MaxPostLimit), AuthorID: 3, IncludeDrafts: true}

	sql, args := buildPostPage(q)

	assert.NotContains(t, sql, "p.published")
	assert.Contains(t, sql, "WHERE p.user_id = ?")
	assert.Equal(t, []any{int64(3), 10, 0}, args)
}

func TestMostLikedOrderAndCount(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := store.PostQuery{
		Page:  store.NewPage(1, 5, store.MaxPostLimit),
		Since: since,
		Order: store.OrderMostLiked,
	}

	sql, args := buildPostPage(q)
	assert.Contains(t, sql, "HAVING COUNT(DISTINCT l.id) > 0")
	assert.Contains(t, sql, "ORDER BY "+orderMostLiked)
	assert.Equal(t, []any{since, 5, 0}, args)

	countSQL, countArgs := buildPostCount(q)
	assert.Contains(t, countSQL, "EXISTS (SELECT 1 FROM likes lx WHERE lx.post_id = p.id)")
	assert.Equal(t, []any{since}, countArgs)
}

func TestCountSharesPagePredicate(t *testing.T) {
	q := store.PostQuery{
		Page:    store.NewPage(2, 10, store.MaxPostLimit),
		Tags:    []string{"go"},
		LikedBy: 9,
	}

	_, pageArgs := buildPostPage(q)
	countSQL, countArgs := buildPostCount(q)

	assert.True(t, strings.HasPrefix(countSQL, "SELECT COUNT(*) FROM posts p\nWHERE "))
	assert.NotContains(t, countSQL, "LIMIT")
	assert.Equal(t, pageArgs[:len(pageArgs)-2], countArgs)
}

func TestBuildCommentPage(t *testing.T) {
	sql, args := buildCommentPage("post_id", 4, store.NewPage(2, 25, store.MaxCommentLimit))

	assert.Contains(t, sql, "WHERE c.post_id = ? AND p.published")
	assert.Contains(t, sql, "ORDER BY c.created_at DESC, c.id DESC")
	assert.Equal(t, []any{int64(4), 25, 25}, args)

	countSQL, countArgs := buildCommentCount("user_id", 8)
	assert.Equal(t, "SELECT COUNT(*) FROM comments c JOIN posts p ON p.id = c.post_id WHERE c.user_id = ? AND p.published", countSQL)
	assert.Equal(t, []any{int64(8)}, countArgs)
}
