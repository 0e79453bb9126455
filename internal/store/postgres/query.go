package postgres

import (
	"strings"

	"github.com/lib/pq"

	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

// postSelect decorates every post row with its author and aggregate counts.
// Likes and comments are both joined, so each count is DISTINCT to undo the
// row multiplication of the double join.
const postSelect = `
SELECT p.*,
	u.name AS author_name,
	u.avatar_url AS author_avatar,
	COUNT(DISTINCT l.id) AS like_count,
	COUNT(DISTINCT c.id) AS comment_count
FROM posts p
JOIN users u ON u.id = p.user_id
LEFT JOIN likes l ON l.post_id = p.id
LEFT JOIN comments c ON c.post_id = p.id`

const postGroupBy = `
GROUP BY p.id, u.id`

const (
	orderNewest    = "p.created_at DESC, p.id DESC"
	orderMostLiked = "like_count DESC, p.created_at DESC, p.id DESC"
)

// predicate accumulates AND-ed conditions and their bound arguments. Only
// fixed fragments are written into the SQL text.
type predicate struct {
	conds []string
	args  []any
}

func (p *predicate) and(cond string, args ...any) {
	p.conds = append(p.conds, cond)
	p.args = append(p.args, args...)
}

func (p *predicate) where() string {
	if len(p.conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(p.conds, " AND ")
}

// postFilter builds the predicate shared by the page query and the count
// query of a post listing.
func postFilter(q store.PostQuery) *predicate {
	p := &predicate{}

	if !q.IncludeDrafts {
		p.and("p.published = TRUE")
	}
	if q.LikedBy > 0 {
		p.and("EXISTS (SELECT 1 FROM likes lb WHERE lb.post_id = p.id AND lb.user_id = ?)", q.LikedBy)
	}
	if !q.Since.IsZero() {
		p.and("p.created_at >= ?", q.Since)
	}

	if q.SearchMode() {
		pattern := containsPattern(q.Search)
		p.and("(p.title ILIKE ? OR p.excerpt ILIKE ? OR p.body ILIKE ?)", pattern, pattern, pattern)
		return p
	}

	if len(q.Tags) > 0 {
		p.and("p.tags && ?::text[]", pq.StringArray(q.Tags))
	}
	if q.AuthorID > 0 {
		p.and("p.user_id = ?", q.AuthorID)
	}
	return p
}

// buildPostPage returns the SQL and arguments for one page of posts.
func buildPostPage(q store.PostQuery) (string, []any) {
	p := postFilter(q)

	var sb strings.Builder
	sb.WriteString(postSelect)
	sb.WriteString(p.where())
	sb.WriteString(postGroupBy)
	if q.Order == store.OrderMostLiked {
		sb.WriteString("\nHAVING COUNT(DISTINCT l.id) > 0")
		sb.WriteString("\nORDER BY " + orderMostLiked)
	} else {
		sb.WriteString("\nORDER BY " + orderNewest)
	}
	sb.WriteString("\nLIMIT ? OFFSET ?")

	args := append(p.args, q.Page.Limit, q.Page.Offset())
	return sb.String(), args
}

// buildPostCount counts the same rows as buildPostPage without the joins, so
// the total does not depend on the page or on row multiplication.
func buildPostCount(q store.PostQuery) (string, []any) {
	p := postFilter(q)
	if q.Order == store.OrderMostLiked {
		p.and("EXISTS (SELECT 1 FROM likes lx WHERE lx.post_id = p.id)")
	}
	return "SELECT COUNT(*) FROM posts p" + p.where(), p.args
}

func buildPostDetail(where string) string {
	return postSelect + "\nWHERE " + where + postGroupBy
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a search term into a substring ILIKE pattern with the
// wildcard characters of the term escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

const commentSelect = `
SELECT c.*,
	u.name AS author_name,
	u.avatar_url AS author_avatar,
	p.title AS post_title,
	p.slug AS post_slug,
	p.published AS post_published
FROM comments c
JOIN users u ON u.id = c.user_id
JOIN posts p ON p.id = c.post_id`

// Listings only include comments on published posts.
func buildCommentPage(column string, id int64, page store.Page) (string, []any) {
	sql := commentSelect + "\nWHERE c." + column + " = ? AND p.published\nORDER BY c.created_at DESC, c.id DESC\nLIMIT ? OFFSET ?"
	return sql, []any{id, page.Limit, page.Offset()}
}

func buildCommentCount(column string, id int64) (string, []any) {
	return "SELECT COUNT(*) FROM comments c JOIN posts p ON p.id = c.post_id WHERE c." + column + " = ? AND p.published", []any{id}
}

const likerPage = `
SELECT u.id AS user_id, u.name, u.avatar_url, l.created_at AS liked_at
FROM likes l
JOIN users u ON u.id = l.user_id
WHERE l.post_id = ?
ORDER BY l.created_at DESC, l.id DESC
LIMIT ? OFFSET ?`

const userProfile = `
SELECT u.id, u.name, u.avatar_url, u.bio, u.created_at,
	(SELECT COUNT(*) FROM posts p WHERE p.user_id = u.id AND p.published) AS post_count,
	(SELECT COUNT(*) FROM comments c WHERE c.user_id = u.id) AS comment_count,
	(SELECT COUNT(*) FROM likes l JOIN posts p ON p.id = l.post_id WHERE p.user_id = u.id) AS likes_received
FROM users u
WHERE u.id = ?`

const postStats = `
SELECT p.id AS post_id, p.views,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
FROM posts p
WHERE p.id = ?`
