package db

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

const (
	PrerenderQueueKey    = "ignews:queue:prerender"
	DeadLetterKey        = "ignews:queue:failed"
	PrerenderFailuresKey = "ignews:prerender:failures"
)

func ConnectRedis(redisURL string) error {
	if redisURL == "" {
		return errors.New("REDIS_URL environment variable is not set")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	Redis = redis.NewClient(opt)

	_, err = Redis.Ping(Ctx).Result()
	return err
}

func CloseRedis() {
	if Redis != nil {
		Redis.Close()
	}
}

func PushToQueue(queueKey string, data string) error {
	return Redis.LPush(Ctx, queueKey, data).Err()
}

// PopFromQueue blocks for up to timeout. An empty queue yields redis.Nil.
func PopFromQueue(queueKey string, timeout time.Duration) (string, error) {
	result, err := Redis.BRPop(Ctx, timeout, queueKey).Result()
	if err != nil {
		return "", err
	}
	return result[1], nil
}

func GetQueueLength(queueKey string) (int64, error) {
	return Redis.LLen(Ctx, queueKey).Result()
}

// IncrementFailures bumps the failure count of member and returns the new count.
func IncrementFailures(key, member string) (int64, error) {
	return Redis.HIncrBy(Ctx, key, member, 1).Result()
}

func ResetFailures(key, member string) error {
	return Redis.HDel(Ctx, key, member).Err()
}
