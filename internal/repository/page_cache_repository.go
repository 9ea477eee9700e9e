package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PageCacheRepository stores pre-rendered pages. Entries expire after the
// revalidate interval and are rebuilt on the next request.
type PageCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPageCacheRepository(client *redis.Client, ttl time.Duration) *PageCacheRepository {
	return &PageCacheRepository{client: client, ttl: ttl}
}

func pageKey(key string) string {
	return "ignews:page:" + key
}

// Get returns nil without an error on a miss.
func (r *PageCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, pageKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return raw, nil
}

func (r *PageCacheRepository) Set(ctx context.Context, key string, page []byte) error {
	return r.client.Set(ctx, pageKey(key), page, r.ttl).Err()
}

func (r *PageCacheRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, pageKey(key)).Err()
}
