package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"ignews/config"
	"ignews/db"
	"ignews/internal/render"
	"ignews/internal/repository"
	"ignews/internal/site"
	"ignews/pkg/prismic"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const (
	maxRetries = 3
	popTimeout = 5 * time.Second
	retryDelay = 5 * time.Second
)

func main() {
	watch := flag.Bool("watch", false, "keep running and regenerate posts pushed to the prerender queue")
	flag.Parse()

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	err := db.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	var source site.Source
	if cfg.ContentSource == config.SourceMirror {
		err = db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("error connecting to DB: %v", err)
		}
		defer db.Close()

		source = repository.NewPostRepository(db.DB, cfg.MirrorSearchURL())
	} else {
		source = prismic.NewClient(cfg.PrismicAPIURL, cfg.PrismicAccessToken)
	}

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("error parsing templates: %v", err)
	}

	pageCache := repository.NewPageCacheRepository(db.Redis, cfg.Revalidate)
	builder := site.NewBuilder(source, pageCache, renderer, cfg.ListingPageSize)

	ctx := context.Background()

	built, err := builder.Prerender(ctx, cfg.PrerenderLimit)
	if err != nil {
		slog.Error("error prerendering site", "source", source.Name(), "error", err)
		return
	}

	slog.Info("prerender complete", "source", source.Name(), "posts", built, "limit", cfg.PrerenderLimit)

	if !*watch {
		return
	}

	for {
		uid, err := db.PopFromQueue(db.PrerenderQueueKey, popTimeout)
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			slog.Error("error popping from Redis queue", "error", err)
			break
		}

		if err := builder.Invalidate(ctx, uid); err != nil {
			slog.Error("error invalidating cached pages", "uid", uid, "error", err)
		}

		_, err = builder.BuildPost(ctx, uid)
		if errors.Is(err, site.ErrPostNotFound) {
			slog.Info("post unpublished, cache dropped", "uid", uid)
			continue
		}

		if err != nil {
			attempts, countErr := db.IncrementFailures(db.PrerenderFailuresKey, uid)
			if countErr != nil {
				slog.Error("error counting failures", "uid", uid, "error", countErr)
			}

			slog.Error("error regenerating post", "uid", uid, "attempts", attempts, "error", err)

			if attempts >= maxRetries {
				slog.Warn("post exceeded max retries, moving to dead letter queue", "uid", uid, "attempts", attempts)
				db.PushToQueue(db.DeadLetterKey, uid)
				db.ResetFailures(db.PrerenderFailuresKey, uid)
				continue
			}

			db.PushToQueue(db.PrerenderQueueKey, uid)

			time.Sleep(retryDelay)
			continue
		}

		db.ResetFailures(db.PrerenderFailuresKey, uid)

		if _, err := builder.RefreshFirstPage(ctx); err != nil {
			slog.Error("error refreshing first page", "error", err)
		}

		pending, err := db.GetQueueLength(db.PrerenderQueueKey)
		if err != nil {
			slog.Warn("error reading queue length", "error", err)
		}

		slog.Info("post regenerated successfully", "uid", uid, "pending", pending)
	}
}
