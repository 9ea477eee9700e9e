package repository

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestPageCacheRepository(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewPageCacheRepository(client, 30*time.Minute)
	ctx := context.Background()

	got, err := repo.Get(ctx, "post:missing")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, got == nil)

	err = repo.Set(ctx, "post:a", []byte("<html>a</html>"))
	assert.Equal(t, nil, err)

	got, err = repo.Get(ctx, "post:a")
	assert.Equal(t, nil, err)
	assert.Equal(t, "<html>a</html>", string(got))
	assert.Equal(t, true, mr.Exists("ignews:page:post:a"))

	mr.FastForward(31 * time.Minute)

	got, err = repo.Get(ctx, "post:a")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, got == nil)

	err = repo.Set(ctx, "listing:first", []byte("{}"))
	assert.Equal(t, nil, err)
	err = repo.Delete(ctx, "listing:first")
	assert.Equal(t, nil, err)

	got, err = repo.Get(ctx, "listing:first")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, got == nil)
}
