package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

func TestRegisterFindOrCreate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	gina, created, err := svc.Users.Register(ctx, models.RegisterRequest{Username: "gina", Email: "gina@example.com", Source: "google"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, gina.Password)

	again, created, err := svc.Users.Register(ctx, models.RegisterRequest{Username: "other", Email: "gina@example.com", Source: "google"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, gina.ID, again.ID)
	assert.Equal(t, "gina", again.Username)

	_, _, err = svc.Users.Register(ctx, models.RegisterRequest{Username: "gina", Email: "new@example.com", Source: "email"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestRegisterExistingPasswordAccount(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	req := models.RegisterRequest{Username: "alice", Email: "alice@example.com", Source: "email", Password: "s3cret!!"}
	owner, created, err := svc.Users.Register(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, owner.Password)
	assert.NotEqual(t, "s3cret!!", owner.Password)

	for _, password := range []string{"", "wrong-password"} {
		user, created, err := svc.Users.Register(ctx, models.RegisterRequest{
			Username: "mallory",
			Email:    "alice@example.com",
			Source:   "google",
			Password: password,
		})
		require.ErrorIs(t, err, ErrUnauthorized, "password %q", password)
		assert.EqualError(t, err, "Invalid credentials")
		assert.Nil(t, user)
		assert.False(t, created)
	}

	again, created, err := svc.Users.Register(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, owner.ID, again.ID)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	_, _, err := svc.Users.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Source: "email", Password: "secret123"})
	require.NoError(t, err)
	_, _, err = svc.Users.Register(ctx, models.RegisterRequest{Username: "gina", Email: "gina@example.com", Source: "google"})
	require.NoError(t, err)

	user, err := svc.Users.Authenticate(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	cases := []struct{ email, password string }{
		{"alice@example.com", "wrong"},
		{"nobody@example.com", "secret123"},
		{"gina@example.com", ""},
	}
	for _, c := range cases {
		_, err := svc.Users.Authenticate(ctx, c.email, c.password)
		require.ErrorIs(t, err, ErrUnauthorized, c.email)
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	alice := seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	bio := "prompt engineer"
	user, err := svc.Users.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, user.Bio)
	assert.Equal(t, "alice", user.Username)

	taken := "bob"
	_, err = svc.Users.UpdateProfile(ctx, alice.ID, models.UpdateProfileRequest{Username: &taken})
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Username already exists")

	phone := "+15550100"
	user, err = svc.Users.Update(ctx, alice.ID, models.UpdateUserRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, user.Phone)

	_, err = svc.Users.Update(ctx, 999, models.UpdateUserRequest{Bio: &bio})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindByUsernameAndEmail(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})
	alice := seedUser(t, db, "alice")

	got, err := svc.Users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = svc.Users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = svc.Users.FindByUsername(ctx, "zed")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	seedPost(t, db, bob.ID, "p1")
	seedPost(t, db, bob.ID, "p2")
	_, err := svc.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	profile, err := svc.Users.Profile(ctx, bob.ID, &alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, profile.PostsCount)
	assert.Equal(t, 1, profile.FollowersCount)
	require.NotNil(t, profile.IsFollowing)
	assert.True(t, *profile.IsFollowing)
	assert.Empty(t, profile.Posts)

	own, err := svc.Users.ProfileWithPosts(ctx, bob.ID, &bob.ID)
	require.NoError(t, err)
	assert.Nil(t, own.IsFollowing)
	assert.Equal(t, []string{"p2", "p1"}, titles(own.Posts))

	anon, err := svc.Users.Profile(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, anon.IsFollowing)
	assert.Equal(t, 1, anon.FollowingCount)
}

func TestTopCreators(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	seedPost(t, db, alice.ID, "a1")
	seedPost(t, db, alice.ID, "a2")
	b1 := seedPost(t, db, bob.ID, "b1")
	for _, uid := range []uint{alice.ID, carol.ID} {
		_, err := svc.Copies.Create(ctx, b1.ID, uid)
		require.NoError(t, err)
	}
	for _, uid := range []uint{alice.ID, bob.ID} {
		_, err := svc.Follows.Follow(ctx, uid, carol.ID)
		require.NoError(t, err)
	}

	names := func(cs []Creator) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.Username)
		}
		return out
	}

	byPosts, err := svc.Users.TopCreators(ctx, SortByPosts)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, names(byPosts))
	assert.EqualValues(t, 2, byPosts[0].PostsCount)

	byCopies, err := svc.Users.TopCreators(ctx, SortByCopies)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice", "carol"}, names(byCopies))
	assert.EqualValues(t, 2, byCopies[0].TotalCopies)

	byFollowers, err := svc.Users.TopCreators(ctx, SortByFollowers)
	require.NoError(t, err)
	assert.Equal(t, "carol", byFollowers[0].Username)
	assert.Equal(t, 2, byFollowers[0].FollowersCount)

	_, err = svc.Users.TopCreators(ctx, "likes")
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestCreatorsWithPosts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	alice := seedUser(t, db, "alice")
	seedUser(t, db, "lurker")
	seedPost(t, db, alice.ID, "a1")

	creators, err := svc.Users.CreatorsWithPosts(ctx)
	require.NoError(t, err)
	require.Len(t, creators, 1)
	assert.Equal(t, "alice", creators[0].Username)
	assert.Empty(t, creators[0].Email)
	require.Len(t, creators[0].Posts, 1)
	assert.NotNil(t, creators[0].Posts[0].Category)
}

func TestRemoveUserKeepsCountersConsistent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	svc := New(db, Options{})

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	post := seedPost(t, db, bob.ID, "b1")
	doomedPost := seedPost(t, db, alice.ID, "a1")

	_, err := svc.Likes.Create(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.Ratings.Create(ctx, post.ID, alice.ID, 4, "")
	require.NoError(t, err)
	_, err = svc.Ratings.Create(ctx, post.ID, bob.ID, 2, "")
	require.NoError(t, err)
	_, err = svc.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.Follows.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Users.Remove(ctx, alice.ID))

	got := reloadPost(t, db, post.ID)
	assert.Zero(t, got.LikesCount)
	assert.Equal(t, 1, got.RatingsCount)
	assert.Equal(t, 2, got.RatingsValue)

	b := reloadUser(t, db, bob.ID)
	assert.Zero(t, b.FollowersCount)
	assert.Zero(t, b.FollowingCount)

	var remaining int64
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", doomedPost.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	err = svc.Users.Remove(ctx, alice.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
