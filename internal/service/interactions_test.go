package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

func TestLikeUnlike(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	author := seedUser(t, db, "author")
	reader := seedUser(t, db, "reader")
	post := seedPost(t, db, author.ID, "p1")

	like, err := svc.Likes.Create(ctx, post.ID, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, like.PostID)
	assert.Equal(t, reader.ID, like.UserID)
	assert.Equal(t, 1, reloadPost(t, db, post.ID).LikesCount)

	_, err = svc.Likes.Create(ctx, post.ID, reader.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "You have already liked this post")
	assert.Equal(t, 1, reloadPost(t, db, post.ID).LikesCount)

	require.NoError(t, svc.Likes.Remove(ctx, post.ID, reader.ID))
	assert.Equal(t, 0, reloadPost(t, db, post.ID).LikesCount)

	check, err := svc.Likes.Check(ctx, post.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, check.Exists)
	assert.Nil(t, check.Row)
}

func TestRemoveMissingInteraction(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author.ID, "p1")
	_, err := svc.Copies.Create(ctx, post.ID, author.ID)
	require.NoError(t, err)

	other := seedUser(t, db, "other")
	err = svc.Copies.Remove(ctx, post.ID, other.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Copy not found")
	assert.Equal(t, 1, reloadPost(t, db, post.ID).CopiesCount)
}

func TestInteractionOnMissingPost(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})
	user := seedUser(t, db, "u")

	_, err := svc.Shares.Create(ctx, 999, user.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Post not found")

	var count int64
	require.NoError(t, db.Model(&models.Share{}).Count(&count).Error)
	assert.Zero(t, count)
}

// Counters must equal the number of rows after any sequence of creates and
// removes, including the rejected ones.
func TestCountersMatchRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	author := seedUser(t, db, "author")
	posts := []models.Post{seedPost(t, db, author.ID, "a"), seedPost(t, db, author.ID, "b")}
	users := []models.User{author, seedUser(t, db, "u1"), seedUser(t, db, "u2")}

	ops := []struct {
		remove bool
		post   int
		user   int
	}{
		{false, 0, 0}, {false, 0, 1}, {false, 0, 1}, {false, 1, 2},
		{true, 0, 0}, {true, 0, 0}, {false, 1, 0}, {true, 1, 1},
		{false, 0, 2}, {true, 1, 2}, {false, 1, 2}, {false, 1, 1},
	}
	for _, op := range ops {
		postID, userID := posts[op.post].ID, users[op.user].ID
		if op.remove {
			_ = svc.Shares.Remove(ctx, postID, userID)
		} else {
			_, _ = svc.Shares.Create(ctx, postID, userID)
		}
	}

	for _, p := range posts {
		var rows int64
		require.NoError(t, db.Model(&models.Share{}).Where("post_id = ?", p.ID).Count(&rows).Error)
		assert.EqualValues(t, rows, reloadPost(t, db, p.ID).SharesCount, "post %s", p.Title)
	}
}

func TestFindByUserAndPost(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	author := seedUser(t, db, "author")
	reader := seedUser(t, db, "reader")
	p1 := seedPost(t, db, author.ID, "p1")
	p2 := seedPost(t, db, author.ID, "p2")

	_, err := svc.Likes.Create(ctx, p1.ID, reader.ID)
	require.NoError(t, err)
	_, err = svc.Likes.Create(ctx, p2.ID, reader.ID)
	require.NoError(t, err)

	mine, err := svc.Likes.FindByUser(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, like := range mine {
		require.NotNil(t, like.Post)
		require.NotNil(t, like.Post.User)
		assert.Equal(t, "author", like.Post.User.Username)
		assert.Empty(t, like.Post.User.Email)
	}

	byPost, err := svc.Likes.FindByPost(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, byPost, 1)
	assert.Equal(t, "reader", byPost[0].User.Username)

	none, err := svc.Likes.FindByPost(ctx, 12345)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestLikesInvalidatePromptCache(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	cache := newMemCache()
	svc := New(db, Options{Cache: cache})

	author := seedUser(t, db, "author")
	post := seedPost(t, db, author.ID, "p1")

	_, err := svc.Posts.Prompts(ctx, PromptsTrending)
	require.NoError(t, err)
	require.True(t, cache.has("prompts:trending"))

	_, err = svc.Likes.Create(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, cache.has("prompts:trending"))
	assert.Contains(t, cache.deletes, "prompts:featured")

	// shares do not affect any cached ordering
	_, err = svc.Posts.Prompts(ctx, PromptsTrending)
	require.NoError(t, err)
	_, err = svc.Shares.Create(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, cache.has("prompts:trending"))
}
