package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ignews/config"
	"ignews/db"
	"ignews/internal/model"
	"ignews/internal/post"
	"ignews/internal/repository"
	"ignews/pkg/prismic"

	"github.com/joho/godotenv"
)

const syncPageSize = 100

func main() {
	markdownDir := flag.String("markdown", "", "import the *.md posts of this directory instead of the CMS")
	author := flag.String("author", "", "author of imported markdown posts")
	prune := flag.Bool("prune", false, "delete mirrored posts that are no longer published")
	flag.Parse()

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	err = db.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	ctx := context.Background()
	repo := repository.NewPostRepository(db.DB, cfg.MirrorSearchURL())

	var source string
	var docs []prismic.Document

	if *markdownDir != "" {
		source = "markdown"
		docs, err = readMarkdown(*markdownDir, *author)
	} else {
		if cfg.PrismicAPIURL == "" {
			slog.Error("PRISMIC_API_URL environment variable is not set")
			return
		}
		client := prismic.NewClient(cfg.PrismicAPIURL, cfg.PrismicAccessToken)
		source = client.Name()
		docs, err = fetchAll(ctx, client)
	}

	if err != nil {
		slog.Error("error reading documents", "source", source, "error", err)
		return
	}

	var saved, unchanged, failed int
	uids := make([]string, 0, len(docs))

	for i := range docs {
		doc := &docs[i]
		if doc.UID == "" {
			slog.Warn("document without uid skipped", "source", source, "id", doc.ID)
			continue
		}
		uids = append(uids, doc.UID)

		changed, err := repo.SaveDocument(ctx, doc)
		if err != nil {
			slog.Error("error saving document", "source", source, "uid", doc.UID, "error", err)
			failed++
			continue
		}

		if !changed {
			unchanged++
			continue
		}

		saved++

		err = db.PushToQueue(db.PrerenderQueueKey, doc.UID)
		if err != nil {
			slog.Error("error pushing to Redis queue", "source", source, "uid", doc.UID, "error", err)
			failed++
		}
	}

	var removed []string
	if *prune && len(uids) > 0 {
		removed, err = repo.Prune(ctx, model.PostType, uids)
		if err != nil {
			slog.Error("error pruning documents", "source", source, "error", err)
			failed++
		}

		for _, uid := range removed {
			err = db.PushToQueue(db.PrerenderQueueKey, uid)
			if err != nil {
				slog.Error("error pushing to Redis queue", "source", source, "uid", uid, "error", err)
				failed++
			}
		}
	}

	slog.Info("sync complete", "source", source, "saved", saved, "unchanged", unchanged, "removed", len(removed), "failed", failed)
}

func fetchAll(ctx context.Context, client *prismic.Client) ([]prismic.Document, error) {
	page, err := client.GetByType(ctx, model.PostType, prismic.Query{Page: 1, PageSize: syncPageSize})
	if err != nil {
		return nil, err
	}

	docs := page.Results
	for next := page.Next(); next != ""; next = page.Next() {
		page, err = client.FetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		docs = append(docs, page.Results...)
	}

	return docs, nil
}

// readMarkdown imports every *.md file of dir. The file name is the uid and
// the modification time is the publication date.
func readMarkdown(dir, author string) ([]prismic.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var docs []prismic.Document
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			return nil, err
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		uid := strings.TrimSuffix(entry.Name(), ".md")

		doc, err := post.DocumentFromMarkdown(uid, author, info.ModTime(), src)
		if err != nil {
			slog.Warn("markdown post skipped", "path", path, "error", err)
			continue
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
