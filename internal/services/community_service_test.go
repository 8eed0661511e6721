package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	action  string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(action string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{action, payload})
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.action
	}
	return out
}

func TestCreatePost(t *testing.T) {
	db := newTestDB(t)
	author := mustRegister(t, newTestUserService(t, db), "calm", "calm@example.com")
	pub := &recordingPublisher{}
	svc := NewCommunityService(db, pub)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, author.ID, "  first sit of the day  ")
	require.NoError(t, err)
	assert.Equal(t, "first sit of the day", post.Content)
	assert.Equal(t, int64(0), post.LikeCount)
	assert.Equal(t, author.ID, post.Author.ID)
	assert.Equal(t, "calm", post.Author.Username)
	assert.Empty(t, post.Comments)

	_, err = svc.CreatePost(ctx, author.ID, " \t\n")
	assert.ErrorIs(t, err, ErrEmptyContent)

	assert.Equal(t, []string{ActionPostCreated}, pub.actions())
}

func TestLike_ConcurrentIncrementsAreNotLost(t *testing.T) {
	db := newTestDB(t)
	author := mustRegister(t, newTestUserService(t, db), "calm", "calm@example.com")
	svc := NewCommunityService(db, nil)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, author.ID, "like me")
	require.NoError(t, err)

	const likes = 50
	var wg sync.WaitGroup
	errs := make(chan error, likes)
	for i := 0; i < likes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.Like(ctx, post.ID)
			if err == nil && !ok {
				err = ErrPostNotFound
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Get(&count, "SELECT likes_count FROM community_posts WHERE id = ?", post.ID))
	assert.Equal(t, int64(likes), count)
}

func TestLike_MissingPost(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewCommunityService(newTestDB(t), pub)

	ok, err := svc.Like(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, pub.actions())
}

func TestComment(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	author := mustRegister(t, users, "calm", "calm@example.com")
	replier := mustRegister(t, users, "reply", "reply@example.com")
	pub := &recordingPublisher{}
	svc := NewCommunityService(db, pub)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, author.ID, "hello")
	require.NoError(t, err)

	comment, err := svc.Comment(ctx, post.ID, replier.ID, " welcome ")
	require.NoError(t, err)
	assert.Equal(t, "welcome", comment.Content)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, "reply", comment.Author.Username)

	_, err = svc.Comment(ctx, post.ID, replier.ID, "")
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = svc.Comment(ctx, post.ID+100, replier.ID, "into the void")
	assert.ErrorIs(t, err, ErrPostNotFound)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM community_comments"))
	assert.Equal(t, 1, count)

	assert.Equal(t, []string{ActionPostCreated, ActionCommentCreated}, pub.actions())
}

func TestListPosts_OrderAndComments(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	a := mustRegister(t, users, "a", "a@example.com")
	b := mustRegister(t, users, "b", "b@example.com")
	svc := NewCommunityService(db, nil)
	ctx := context.Background()

	empty, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	older, err := svc.CreatePost(ctx, a.ID, "older")
	require.NoError(t, err)
	newer, err := svc.CreatePost(ctx, b.ID, "newer")
	require.NoError(t, err)

	c1, err := svc.Comment(ctx, older.ID, b.ID, "one")
	require.NoError(t, err)
	c2, err := svc.Comment(ctx, older.ID, a.ID, "two")
	require.NoError(t, err)
	_, err = svc.Like(ctx, newer.ID)
	require.NoError(t, err)

	posts, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, int64(1), posts[0].LikeCount)
	assert.Empty(t, posts[0].Comments)

	assert.Equal(t, older.ID, posts[1].ID)
	require.Len(t, posts[1].Comments, 2)
	assert.Equal(t, c1.ID, posts[1].Comments[0].ID)
	assert.Equal(t, c2.ID, posts[1].Comments[1].ID)
	assert.Equal(t, "b", posts[1].Comments[0].Author.Username)

	comments, err := svc.ListComments(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, posts[1].Comments, comments)

	_, err = svc.ListComments(ctx, newer.ID+100)
	assert.ErrorIs(t, err, ErrPostNotFound)
}
