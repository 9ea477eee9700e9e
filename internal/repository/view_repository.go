package repository

import (
	"context"
	"encoding/json"
	"time"

	"ignews/internal/listing"
	"ignews/pkg/prismic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lockTTL outlives a load: read the view, fetch one page, save.
const lockTTL = 3 * prismic.RequestTimeout

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// ViewRepository keeps the state of each listing view. A view disappears
// once it has not been touched for the configured TTL.
type ViewRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewRepository(client *redis.Client, ttl time.Duration) *ViewRepository {
	return &ViewRepository{client: client, ttl: ttl}
}

func viewKey(id string) string {
	return "ignews:view:" + id
}

func (r *ViewRepository) Create(ctx context.Context, state listing.State) (string, error) {
	id := uuid.NewString()
	if err := r.Save(ctx, id, state); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns nil without an error for unknown or expired views.
func (r *ViewRepository) Get(ctx context.Context, id string) (*listing.State, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	raw, err := r.client.Get(ctx, viewKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var state listing.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func (r *ViewRepository) Save(ctx context.Context, id string, state listing.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, viewKey(id), raw, r.ttl).Err()
}

func lockKey(id string) string {
	return viewKey(id) + ":lock"
}

// Lock marks a page load as in flight for the view and returns the token
// that releases it. The token is empty when another request holds the lock.
func (r *ViewRepository) Lock(ctx context.Context, id string) (string, error) {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, lockKey(id), token, lockTTL).Result()
	if err != nil {
		return "", err
	}

	if !ok {
		return "", nil
	}

	return token, nil
}

// Unlock releases the lock only while it still carries token, so a holder
// whose lock expired cannot release the next holder's.
func (r *ViewRepository) Unlock(ctx context.Context, id, token string) error {
	return unlockScript.Run(ctx, r.client, []string{lockKey(id)}, token).Err()
}
