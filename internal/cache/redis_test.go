package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCacheWithClient(client), mr
}

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache(t)

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set("key", payload{Name: "tasks", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, c.Get("key", &got))
	assert.Equal(t, "tasks", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestGetMissingKeyIsCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got string
	assert.ErrorIs(t, c.Get("absent", &got), ErrCacheMiss)
}

func TestExpiration(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.Set("short", "value", time.Minute))
	mr.FastForward(2 * time.Minute)

	var got string
	assert.ErrorIs(t, c.Get("short", &got), ErrCacheMiss)
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t)

	require.NoError(t, c.Set("key", "value", time.Minute))
	require.NoError(t, c.Delete("key"))

	var got string
	assert.ErrorIs(t, c.Get("key", &got), ErrCacheMiss)
}

func TestDeletePattern(t *testing.T) {
	c, _ := newTestCache(t)
	userID := uuid.Must(uuid.NewV4())

	require.NoError(t, c.Set(UserTasksKey(userID)+":all", "a", time.Minute))
	require.NoError(t, c.Set(UserTasksKey(userID)+":due", "b", time.Minute))
	require.NoError(t, c.Set(AllTasksKey, "c", time.Minute))

	require.NoError(t, c.DeletePattern(UserTasksPattern(userID)))

	var got string
	assert.ErrorIs(t, c.Get(UserTasksKey(userID)+":all", &got), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(UserTasksKey(userID)+":due", &got), ErrCacheMiss)
	assert.NoError(t, c.Get(AllTasksKey, &got))
}

func TestKeyHelpers(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	assert.Equal(t, "task:"+id.String(), TaskKey(id))
	assert.Equal(t, "user_tasks:"+id.String(), UserTasksKey(id))
	assert.Equal(t, "user_tasks:"+id.String()+"*", UserTasksPattern(id))
}

func TestHealth(t *testing.T) {
	c, mr := newTestCache(t)

	assert.NoError(t, c.Health())

	mr.Close()
	assert.Error(t, c.Health())
}
