// Package storetest provides an in-memory store.Store for handler and
// middleware tests. It follows the postgres store's semantics closely enough
// for the HTTP layer not to notice: unique slugs and emails, cascading
// deletes, newest-first listings and case-insensitive search.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emilythestrangee/blog-platform/backend/internal/models"
	"github.com/emilythestrangee/blog-platform/backend/internal/store"
)

type Memory struct {
	mu sync.Mutex

	nextID   int64
	users    map[int64]models.User
	posts    map[int64]models.Post
	comments map[int64]models.Comment
	likes    map[int64]models.Like

	// clock advances by one millisecond per write so that creation order is
	// always visible in created_at.
	clock time.Time
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		users:    map[int64]models.User{},
		posts:    map[int64]models.Post{},
		comments: map[int64]models.Comment{},
		likes:    map[int64]models.Like{},
		clock:    time.Now().UTC(),
	}
}

func (m *Memory) tick() (int64, time.Time) {
	m.nextID++
	m.clock = m.clock.Add(time.Millisecond)
	return m.nextID, m.clock
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(user.Email, 0) {
		return store.ErrEmailTaken
	}
	id, now := m.tick()
	user.ID, user.CreatedAt, user.UpdatedAt = id, now, now
	m.users[id] = *user
	return nil
}

func (m *Memory) emailTaken(email string, excludeID int64) bool {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true
		}
	}
	return false
}

func (m *Memory) GetUser(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (m *Memory) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return store.ErrEmailTaken
	}
	_, now := m.tick()
	user.CreatedAt, user.UpdatedAt = old.CreatedAt, now
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	for pid, p := range m.posts {
		if p.UserID == id {
			m.deletePostLocked(pid)
		}
	}
	for cid, c := range m.comments {
		if c.UserID == id {
			delete(m.comments, cid)
		}
	}
	for lid, l := range m.likes {
		if l.UserID == id {
			delete(m.likes, lid)
		}
	}
	return nil
}

func (m *Memory) GetUserProfile(_ context.Context, id int64) (models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.UserProfile{}, store.ErrNotFound
	}
	profile := models.UserProfile{PublicUser: u.Public()}
	for _, p := range m.posts {
		if p.UserID == id && p.Published {
			profile.PostCount++
		}
	}
	for _, c := range m.comments {
		if c.UserID == id {
			profile.CommentCount++
		}
	}
	for _, l := range m.likes {
		if p, ok := m.posts[l.PostID]; ok && p.UserID == id {
			profile.LikesReceived++
		}
	}
	return profile, nil
}

func (m *Memory) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[post.UserID]; !ok {
		return store.ErrNotFound
	}
	if m.slugTaken(post.Slug, 0) {
		return store.ErrSlugTaken
	}
	id, now := m.tick()
	post.ID, post.CreatedAt, post.UpdatedAt = id, now, now
	m.posts[id] = clonePost(*post)
	return nil
}

func (m *Memory) slugTaken(slug string, excludeID int64) bool {
	for _, p := range m.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true
		}
	}
	return false
}

func (m *Memory) GetPost(_ context.Context, id int64) (models.PostDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return models.PostDetail{}, store.ErrNotFound
	}
	return m.detail(p), nil
}

func (m *Memory) GetPostBySlug(_ context.Context, slug string) (models.PostDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug {
			return m.detail(p), nil
		}
	}
	return models.PostDetail{}, store.ErrNotFound
}

func (m *Memory) UpdatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.posts[post.ID]
	if !ok {
		return store.ErrNotFound
	}
	if m.slugTaken(post.Slug, post.ID) {
		return store.ErrSlugTaken
	}
	_, now := m.tick()
	post.UserID, post.Views, post.CreatedAt, post.UpdatedAt = old.UserID, old.Views, old.CreatedAt, now
	m.posts[post.ID] = clonePost(*post)
	return nil
}

func (m *Memory) DeletePost(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return store.ErrNotFound
	}
	m.deletePostLocked(id)
	return nil
}

func (m *Memory) deletePostLocked(id int64) {
	delete(m.posts, id)
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
		}
	}
	for lid, l := range m.likes {
		if l.PostID == id {
			delete(m.likes, lid)
		}
	}
}

func (m *Memory) SetPublished(_ context.Context, id int64, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Published = published
	m.posts[id] = p
	return nil
}

func (m *Memory) IncrementViews(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		p.Views++
		m.posts[id] = p
	}
	return nil
}

func (m *Memory) ListPosts(_ context.Context, q store.PostQuery) ([]models.PostDetail, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []models.PostDetail
	for _, p := range m.posts {
		if !m.matches(p, q) {
			continue
		}
		d := m.detail(p)
		if q.Order == store.OrderMostLiked && d.LikeCount == 0 {
			continue
		}
		rows = append(rows, d)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if q.Order == store.OrderMostLiked && a.LikeCount != b.LikeCount {
			return a.LikeCount > b.LikeCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	total := int64(len(rows))
	return paginate(rows, q.Page), total, nil
}

func (m *Memory) matches(p models.Post, q store.PostQuery) bool {
	if !q.IncludeDrafts && !p.Published {
		return false
	}
	if q.LikedBy > 0 && !m.hasLikedLocked(p.ID, q.LikedBy) {
		return false
	}
	if !q.Since.IsZero() && p.CreatedAt.Before(q.Since) {
		return false
	}
	if q.SearchMode() {
		term := strings.ToLower(q.Search)
		return strings.Contains(strings.ToLower(p.Title), term) ||
			strings.Contains(strings.ToLower(p.Excerpt), term) ||
			strings.Contains(strings.ToLower(p.Body), term)
	}
	if len(q.Tags) > 0 && !overlaps(p.Tags, q.Tags) {
		return false
	}
	if q.AuthorID > 0 && p.UserID != q.AuthorID {
		return false
	}
	return true
}

func (m *Memory) SlugExists(_ context.Context, slug string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slugTaken(slug, excludeID), nil
}

func (m *Memory) PostOwner(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	return p.UserID, nil
}

func (m *Memory) GetPostStats(_ context.Context, id int64) (models.PostStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return models.PostStats{}, store.ErrNotFound
	}
	d := m.detail(p)
	return models.PostStats{PostID: id, Views: p.Views, LikeCount: d.LikeCount, CommentCount: d.CommentCount}, nil
}

func (m *Memory) CreateComment(_ context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[comment.PostID]; !ok {
		return store.ErrNotFound
	}
	id, now := m.tick()
	comment.ID, comment.CreatedAt, comment.UpdatedAt = id, now, now
	m.comments[id] = *comment
	return nil
}

func (m *Memory) GetComment(_ context.Context, id int64) (models.CommentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return models.CommentDetail{}, store.ErrNotFound
	}
	return m.commentDetail(c), nil
}

func (m *Memory) UpdateComment(_ context.Context, id int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return store.ErrNotFound
	}
	_, now := m.tick()
	c.Text, c.UpdatedAt = text, now
	m.comments[id] = c
	return nil
}

func (m *Memory) DeleteComment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *Memory) ListCommentsByPost(_ context.Context, postID int64, page store.Page) ([]models.CommentDetail, int64, error) {
	return m.listComments(func(c models.Comment) bool { return c.PostID == postID }, page)
}

func (m *Memory) ListCommentsByUser(_ context.Context, userID int64, page store.Page) ([]models.CommentDetail, int64, error) {
	return m.listComments(func(c models.Comment) bool { return c.UserID == userID }, page)
}

func (m *Memory) listComments(keep func(models.Comment) bool, page store.Page) ([]models.CommentDetail, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.CommentDetail
	for _, c := range m.comments {
		if !keep(c) {
			continue
		}
		if d := m.commentDetail(c); d.PostPublished {
			rows = append(rows, d)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	return paginate(rows, page), int64(len(rows)), nil
}

func (m *Memory) CommentOwner(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	return c.UserID, nil
}

func (m *Memory) AddLike(_ context.Context, postID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasLikedLocked(postID, userID) {
		return false, nil
	}
	if _, ok := m.posts[postID]; !ok {
		return false, store.ErrNotFound
	}
	id, now := m.tick()
	m.likes[id] = models.Like{ID: id, PostID: postID, UserID: userID, CreatedAt: now}
	return true, nil
}

func (m *Memory) RemoveLike(_ context.Context, postID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.likes {
		if l.PostID == postID && l.UserID == userID {
			delete(m.likes, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) HasLiked(_ context.Context, postID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasLikedLocked(postID, userID), nil
}

func (m *Memory) hasLikedLocked(postID, userID int64) bool {
	for _, l := range m.likes {
		if l.PostID == postID && l.UserID == userID {
			return true
		}
	}
	return false
}

func (m *Memory) CountLikes(_ context.Context, postID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLikesLocked(postID), nil
}

func (m *Memory) countLikesLocked(postID int64) int64 {
	var n int64
	for _, l := range m.likes {
		if l.PostID == postID {
			n++
		}
	}
	return n
}

func (m *Memory) ListLikers(_ context.Context, postID int64, page store.Page) ([]models.Liker, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var likes []models.Like
	for _, l := range m.likes {
		if l.PostID == postID {
			likes = append(likes, l)
		}
	}
	sort.Slice(likes, func(i, j int) bool { return likes[i].ID > likes[j].ID })

	likers := make([]models.Liker, 0, len(likes))
	for _, l := range likes {
		u := m.users[l.UserID]
		likers = append(likers, models.Liker{UserID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL, LikedAt: l.CreatedAt})
	}
	return paginate(likers, page), int64(len(likers)), nil
}

func (m *Memory) detail(p models.Post) models.PostDetail {
	d := models.PostDetail{Post: clonePost(p), LikeCount: m.countLikesLocked(p.ID)}
	if u, ok := m.users[p.UserID]; ok {
		d.AuthorName, d.AuthorAvatar = u.Name, u.AvatarURL
	}
	for _, c := range m.comments {
		if c.PostID == p.ID {
			d.CommentCount++
		}
	}
	return d
}

func (m *Memory) commentDetail(c models.Comment) models.CommentDetail {
	d := models.CommentDetail{Comment: c}
	if u, ok := m.users[c.UserID]; ok {
		d.AuthorName, d.AuthorAvatar = u.Name, u.AvatarURL
	}
	if p, ok := m.posts[c.PostID]; ok {
		d.PostTitle, d.PostSlug, d.PostPublished = p.Title, p.Slug, p.Published
	}
	return d
}

func clonePost(p models.Post) models.Post {
	p.Tags = append([]string{}, p.Tags...)
	p.User = nil
	return p
}

func overlaps(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func paginate[T any](rows []T, page store.Page) []T {
	out := []T{}
	start := page.Offset()
	if start >= len(rows) {
		return out
	}
	end := start + page.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return append(out, rows[start:end]...)
}
