package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisStore_SaveGetDelete(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "")
	ctx := context.Background()

	sess := &Session{ID: "sid-1", UserID: "u-1", CSRFSecret: "s", CreatedAt: time.Now().UTC()}
	sess.AddFlash("info", "hello")
	require.NoError(t, store.Save(ctx, sess, time.Hour))

	assert.True(t, mr.Exists("jt:sess:sid-1"))
	assert.Equal(t, time.Hour, mr.TTL("jt:sess:sid-1"))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, []string{"hello"}, got.Flash["info"])

	require.NoError(t, store.Delete(ctx, "sid-1"))
	require.NoError(t, store.Delete(ctx, "sid-1"))

	_, err = store.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "test")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "sid"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "")

	require.NoError(t, mr.Set("jt:sess:bad", "{not json"))

	_, err := store.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "")
	mr.Close()

	ctx := context.Background()
	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Save(ctx, &Session{ID: "sid"}, time.Minute), common.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete(ctx, "sid"), common.ErrStoreUnavailable)
}
