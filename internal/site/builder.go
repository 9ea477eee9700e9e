package site

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"ignews/internal/listing"
	"ignews/internal/model"
	"ignews/internal/post"
	"ignews/internal/render"
	"ignews/pkg/prismic"
)

const (
	FirstPageKey = "listing:first"
)

var ErrPostNotFound = errors.New("post not found")

func PostKey(uid string) string {
	return "post:" + uid
}

type Source interface {
	Name() string
	GetByType(ctx context.Context, docType string, q prismic.Query) (*prismic.Page, error)
	GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error)
	FetchPage(ctx context.Context, cursor string) (*prismic.Page, error)
}

type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, page []byte) error
	Delete(ctx context.Context, key string) error
}

// Builder produces the site's pages from the content source and keeps the
// rendered results in the page cache.
type Builder struct {
	source   Source
	cache    PageCache
	renderer *render.Renderer
	pageSize int
}

func NewBuilder(source Source, cache PageCache, renderer *render.Renderer, pageSize int) *Builder {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Builder{source: source, cache: cache, renderer: renderer, pageSize: pageSize}
}

func (b *Builder) Source() Source {
	return b.source
}

func (b *Builder) Renderer() *render.Renderer {
	return b.renderer
}

// FirstPage returns the first listing page, from the cache when possible.
func (b *Builder) FirstPage(ctx context.Context) (*prismic.Page, error) {
	cached, err := b.cache.Get(ctx, FirstPageKey)
	if err != nil {
		slog.Warn("error reading listing cache", "error", err)
	}

	if cached != nil {
		var page prismic.Page
		if err := json.Unmarshal(cached, &page); err == nil {
			return &page, nil
		}
		slog.Warn("discarding corrupt listing cache entry", "key", FirstPageKey)
	}

	return b.RefreshFirstPage(ctx)
}

func (b *Builder) RefreshFirstPage(ctx context.Context) (*prismic.Page, error) {
	page, err := b.source.GetByType(ctx, model.PostType, prismic.Query{
		Fetch:    listing.SummaryFields,
		Page:     1,
		PageSize: b.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	raw, err := json.Marshal(page)
	if err != nil {
		return nil, err
	}

	if err := b.cache.Set(ctx, FirstPageKey, raw); err != nil {
		slog.Warn("error writing listing cache", "error", err)
	}

	return page, nil
}

// PostPage returns the rendered detail page for uid. Unknown uids are
// rendered on first request and cached like prerendered ones.
func (b *Builder) PostPage(ctx context.Context, uid string) ([]byte, error) {
	cached, err := b.cache.Get(ctx, PostKey(uid))
	if err != nil {
		slog.Warn("error reading post cache", "uid", uid, "error", err)
	}

	if cached != nil {
		return cached, nil
	}

	return b.BuildPost(ctx, uid)
}

func (b *Builder) BuildPost(ctx context.Context, uid string) ([]byte, error) {
	raw, err := b.source.GetByUID(ctx, model.PostType, uid)
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", uid, err)
	}

	if raw == nil {
		return nil, ErrPostNotFound
	}

	doc, err := post.FromDocument(*raw)
	if err != nil {
		return nil, err
	}

	html, err := b.renderer.Post(doc)
	if err != nil {
		return nil, err
	}

	if err := b.cache.Set(ctx, PostKey(uid), html); err != nil {
		slog.Warn("error writing post cache", "uid", uid, "error", err)
	}

	return html, nil
}

// Invalidate drops the cached detail page of uid and the cached first
// listing page, which may list it.
func (b *Builder) Invalidate(ctx context.Context, uid string) error {
	if err := b.cache.Delete(ctx, PostKey(uid)); err != nil {
		return err
	}
	return b.cache.Delete(ctx, FirstPageKey)
}

// Prerender builds the first listing page and the detail pages of up to
// limit posts. Individual post failures are logged and skipped.
func (b *Builder) Prerender(ctx context.Context, limit int) (int, error) {
	if _, err := b.RefreshFirstPage(ctx); err != nil {
		return 0, err
	}

	page, err := b.source.GetByType(ctx, model.PostType, prismic.Query{
		Fetch:    []string{"post.uid"},
		Page:     1,
		PageSize: limit,
	})
	if err != nil {
		return 0, fmt.Errorf("fetch post paths: %w", err)
	}

	built := 0
	for _, doc := range page.Results {
		if doc.UID == "" {
			continue
		}

		if _, err := b.BuildPost(ctx, doc.UID); err != nil {
			slog.Error("error prerendering post", "uid", doc.UID, "error", err)
			continue
		}
		built++
	}

	return built, nil
}
