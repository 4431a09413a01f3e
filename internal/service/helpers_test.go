package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emilythestrangee/copymyprompt/backend/internal/database"
	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	svc, err := database.Open(sqlite.Open(dsn), "sqlite", slog.LevelWarn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc.GetDB()
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Source: "email"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedPost(t *testing.T, db *gorm.DB, userID uint, title string) models.Post {
	t.Helper()
	categoryID := uint(1)
	post := models.Post{
		Title:      title,
		Prompt:     "prompt for " + title,
		Image:      "https://cdn.example.com/" + title + ".png",
		CategoryID: &categoryID,
		UserID:     userID,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func reloadPost(t *testing.T, db *gorm.DB, id uint) models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, id).Error)
	return post
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return user
}

// memCache is an in-process Cache that stores JSON like the redis one does.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	deletes []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.deletes = append(c.deletes, key)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) NewFollower(_ context.Context, follower, following models.User) {
	n.calls = append(n.calls, fmt.Sprintf("%s->%s:%d", follower.Username, following.Username, following.FollowersCount))
}
