package repository

import (
	"context"
	"testing"
	"time"

	"ignews/internal/listing"
	"ignews/internal/model"
	"ignews/pkg/prismic"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/assert/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestViewRepository_CreateGetSave(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewViewRepository(client, 30*time.Minute)
	ctx := context.Background()

	published := time.Date(2021, time.March, 15, 19, 25, 28, 0, time.UTC)
	state := listing.State{
		Cursor: "http://cms/page2",
		Items: []model.PostSummary{
			{UID: "a", Title: "A", FirstPublicationDate: &published},
			{UID: "b", Title: "B"},
		},
	}

	id, err := repo.Create(ctx, state)
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", id)

	got, err := repo.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, "http://cms/page2", got.Cursor)
	assert.Equal(t, 2, len(got.Items))
	assert.Equal(t, true, got.Items[0].FirstPublicationDate.Equal(published))
	assert.Equal(t, true, got.Items[1].FirstPublicationDate == nil)

	state.Cursor = ""
	state.Items = append(state.Items, model.PostSummary{UID: "c"})
	err = repo.Save(ctx, id, state)
	assert.Equal(t, nil, err)

	got, err = repo.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, got.HasMore())
	assert.Equal(t, 3, len(got.Items))
}

func TestViewRepository_Expiry(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewViewRepository(client, 30*time.Minute)
	ctx := context.Background()

	id, err := repo.Create(ctx, listing.State{})
	assert.Equal(t, nil, err)

	mr.FastForward(31 * time.Minute)

	got, err := repo.Get(ctx, id)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, got == nil)
}

func TestViewRepository_UnknownID(t *testing.T) {
	_, client := newTestRedis(t)
	repo := NewViewRepository(client, time.Minute)

	got, err := repo.Get(context.Background(), "not-a-uuid")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, got == nil)

	got, err = repo.Get(context.Background(), "6f1c1a0e-8f4e-4a57-9a43-2d1f0d5b7c11")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, got == nil)
}

func TestViewRepository_Lock(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewViewRepository(client, time.Minute)
	ctx := context.Background()

	token, err := repo.Lock(ctx, "view")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", token)

	held, err := repo.Lock(ctx, "view")
	assert.Equal(t, nil, err)
	assert.Equal(t, "", held)

	err = repo.Unlock(ctx, "view", token)
	assert.Equal(t, nil, err)

	token, err = repo.Lock(ctx, "view")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", token)

	mr.FastForward(lockTTL + time.Second)

	token, err = repo.Lock(ctx, "view")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", token)
}

func TestViewRepository_ExpiredHolderCannotUnlock(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewViewRepository(client, time.Minute)
	ctx := context.Background()

	first, err := repo.Lock(ctx, "view")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", first)

	mr.FastForward(lockTTL + time.Second)

	second, err := repo.Lock(ctx, "view")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", second)

	err = repo.Unlock(ctx, "view", first)
	assert.Equal(t, nil, err)

	third, err := repo.Lock(ctx, "view")
	assert.Equal(t, nil, err)
	assert.Equal(t, "", third)

	err = repo.Unlock(ctx, "view", second)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, mr.Exists(lockKey("view")))
}

func TestViewRepository_LockOutlivesFetch(t *testing.T) {
	assert.Equal(t, true, lockTTL > prismic.RequestTimeout)
}
