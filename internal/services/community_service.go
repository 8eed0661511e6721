package services

import (
	"context"
	"strings"
	"time"

	"github.com/isdelr/slowmind-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// Feed actions published by the community service.
const (
	ActionPostCreated    = "post.created"
	ActionPostLiked      = "post.liked"
	ActionCommentCreated = "comment.created"
)

// Publisher receives community activity for live delivery. Implementations
// must not block.
type Publisher interface {
	Publish(action string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

// CommunityServiceProvider defines the interface for community services.
type CommunityServiceProvider interface {
	CreatePost(ctx context.Context, authorID int64, content string) (models.CommunityPost, error)
	Like(ctx context.Context, postID int64) (bool, error)
	Comment(ctx context.Context, postID, authorID int64, content string) (models.CommunityComment, error)
	ListPosts(ctx context.Context) ([]models.CommunityPost, error)
	ListComments(ctx context.Context, postID int64) ([]models.CommunityComment, error)
}

// CommunityService manages the shared board of posts, likes and comments.
type CommunityService struct {
	db        *sqlx.DB
	publisher Publisher
}

type postRow struct {
	ID             int64     `db:"id"`
	AuthorID       int64     `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	Content        string    `db:"content"`
	LikeCount      int64     `db:"likes_count"`
	CreatedAt      time.Time `db:"created_at"`
}

type commentRow struct {
	ID             int64     `db:"id"`
	PostID         int64     `db:"post_id"`
	AuthorID       int64     `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	Content        string    `db:"content"`
	CreatedAt      time.Time `db:"created_at"`
}

const selectPosts = `
	SELECT p.id, p.user_id AS author_id, u.username AS author_username, p.content, p.likes_count, p.created_at
	FROM community_posts p JOIN users u ON u.id = p.user_id`

const selectComments = `
	SELECT c.id, c.post_id, c.user_id AS author_id, u.username AS author_username, c.content, c.created_at
	FROM community_comments c JOIN users u ON u.id = c.user_id`

// NewCommunityService creates a new CommunityService. A nil publisher
// disables live delivery.
func NewCommunityService(db *sqlx.DB, publisher Publisher) *CommunityService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &CommunityService{db: db, publisher: publisher}
}

// CreatePost stores a new post with no likes.
func (s *CommunityService) CreatePost(ctx context.Context, authorID int64, content string) (models.CommunityPost, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.CommunityPost{}, ErrEmptyContent
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO community_posts (user_id, content, likes_count, created_at) VALUES (?, ?, 0, ?)",
		authorID, content, time.Now().UTC())
	if err != nil {
		return models.CommunityPost{}, storageErr("insert post", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.CommunityPost{}, storageErr("read post id", err)
	}

	post, err := s.getPost(ctx, id)
	if err != nil {
		return models.CommunityPost{}, err
	}
	s.publisher.Publish(ActionPostCreated, post)
	return post, nil
}

// Like increments the like counter of a post in a single statement, so
// concurrent likes are never lost. It reports whether the post exists.
func (s *CommunityService) Like(ctx context.Context, postID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE community_posts SET likes_count = likes_count + 1 WHERE id = ?", postID)
	if err != nil {
		return false, storageErr("like post", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("like post", err)
	}
	if n == 0 {
		return false, nil
	}

	s.publisher.Publish(ActionPostLiked, map[string]int64{"postId": postID})
	return true, nil
}

// Comment attaches a comment to an existing post. The insert selects from
// the post row, so a missing post inserts nothing.
func (s *CommunityService) Comment(ctx context.Context, postID, authorID int64, content string) (models.CommunityComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.CommunityComment{}, ErrEmptyContent
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO community_comments (post_id, user_id, content, created_at)
		SELECT id, ?, ?, ? FROM community_posts WHERE id = ?`,
		authorID, content, time.Now().UTC(), postID)
	if err != nil {
		return models.CommunityComment{}, storageErr("insert comment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.CommunityComment{}, storageErr("insert comment", err)
	}
	if n == 0 {
		return models.CommunityComment{}, ErrPostNotFound
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.CommunityComment{}, storageErr("read comment id", err)
	}

	var row commentRow
	if err := s.db.GetContext(ctx, &row, selectComments+" WHERE c.id = ?", id); err != nil {
		return models.CommunityComment{}, storageErr("query comment", err)
	}
	comment := row.toModel()
	s.publisher.Publish(ActionCommentCreated, comment)
	return comment, nil
}

// ListPosts returns all posts newest first, each with its comments oldest
// first.
func (s *CommunityService) ListPosts(ctx context.Context) ([]models.CommunityPost, error) {
	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, selectPosts+" ORDER BY julianday(p.created_at) DESC, p.id DESC"); err != nil {
		return nil, storageErr("list posts", err)
	}

	posts := make([]models.CommunityPost, 0, len(rows))
	if len(rows) == 0 {
		return posts, nil
	}

	ids := make([]int64, len(rows))
	byID := make(map[int64]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		byID[row.ID] = i
		posts = append(posts, row.toModel())
	}

	query, args, err := sqlx.In(selectComments+" WHERE c.post_id IN (?) ORDER BY julianday(c.created_at) ASC, c.id ASC", ids)
	if err != nil {
		return nil, storageErr("build comment query", err)
	}
	var comments []commentRow
	if err := s.db.SelectContext(ctx, &comments, s.db.Rebind(query), args...); err != nil {
		return nil, storageErr("list comments", err)
	}
	for _, c := range comments {
		i := byID[c.PostID]
		posts[i].Comments = append(posts[i].Comments, c.toModel())
	}
	return posts, nil
}

// ListComments returns the comments of a post oldest first.
func (s *CommunityService) ListComments(ctx context.Context, postID int64) ([]models.CommunityComment, error) {
	var exists int
	if err := s.db.GetContext(ctx, &exists, "SELECT COUNT(*) FROM community_posts WHERE id = ?", postID); err != nil {
		return nil, storageErr("query post", err)
	}
	if exists == 0 {
		return nil, ErrPostNotFound
	}

	var rows []commentRow
	err := s.db.SelectContext(ctx, &rows,
		selectComments+" WHERE c.post_id = ? ORDER BY julianday(c.created_at) ASC, c.id ASC", postID)
	if err != nil {
		return nil, storageErr("list comments", err)
	}

	comments := make([]models.CommunityComment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.toModel())
	}
	return comments, nil
}

func (s *CommunityService) getPost(ctx context.Context, id int64) (models.CommunityPost, error) {
	var row postRow
	if err := s.db.GetContext(ctx, &row, selectPosts+" WHERE p.id = ?", id); err != nil {
		return models.CommunityPost{}, storageErr("query post", err)
	}
	return row.toModel(), nil
}

func (r postRow) toModel() models.CommunityPost {
	return models.CommunityPost{
		ID:        r.ID,
		Author:    models.Author{ID: r.AuthorID, Username: r.AuthorUsername},
		Content:   r.Content,
		LikeCount: r.LikeCount,
		CreatedAt: r.CreatedAt,
		Comments:  []models.CommunityComment{},
	}
}

func (r commentRow) toModel() models.CommunityComment {
	return models.CommunityComment{
		ID:        r.ID,
		PostID:    r.PostID,
		Author:    models.Author{ID: r.AuthorID, Username: r.AuthorUsername},
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}
