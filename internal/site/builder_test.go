package site

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ignews/internal/render"
	"ignews/pkg/prismic"

	"github.com/go-playground/assert/v2"
)

type fakeSource struct {
	page    *prismic.Page
	docs    map[string]*prismic.Document
	err     error
	queries []prismic.Query
	lookups int
}

func (f *fakeSource) Name() string {
	return "fake"
}

func (f *fakeSource) GetByType(ctx context.Context, docType string, q prismic.Query) (*prismic.Page, error) {
	f.queries = append(f.queries, q)
	return f.page, f.err
}

func (f *fakeSource) GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[uid], nil
}

func (f *fakeSource) FetchPage(ctx context.Context, cursor string) (*prismic.Page, error) {
	return f.page, f.err
}

type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	return f.entries[key], nil
}

func (f *fakeCache) Set(ctx context.Context, key string, page []byte) error {
	f.entries[key] = page
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func postDoc(uid string) *prismic.Document {
	return &prismic.Document{
		UID:  uid,
		Type: "post",
		Data: json.RawMessage(`{"title":"Title ` + uid + `","author":"Ana","content":[{"heading":"H","body":[{"type":"paragraph","text":"one two three","spans":[]}]}]}`),
	}
}

func newTestBuilder(t *testing.T, source *fakeSource, cache *fakeCache) *Builder {
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	return NewBuilder(source, cache, renderer, 2)
}

func TestFirstPage_CachesResult(t *testing.T) {
	next := "http://cms/next"
	source := &fakeSource{page: &prismic.Page{Page: 1, NextPage: &next, Results: []prismic.Document{*postDoc("a")}}}
	cache := newFakeCache()
	b := newTestBuilder(t, source, cache)

	page, err := b.FirstPage(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, "a", page.Results[0].UID)
	assert.Equal(t, 1, len(source.queries))
	assert.Equal(t, 2, source.queries[0].PageSize)
	assert.Equal(t, []string{"post.title", "post.subtitle", "post.author"}, source.queries[0].Fetch)

	page, err = b.FirstPage(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, next, page.Next())
	assert.Equal(t, 1, len(source.queries))
}

func TestFirstPage_CorruptCacheEntry(t *testing.T) {
	source := &fakeSource{page: &prismic.Page{Page: 1}}
	cache := newFakeCache()
	cache.entries[FirstPageKey] = []byte("not json")
	b := newTestBuilder(t, source, cache)

	_, err := b.FirstPage(context.Background())
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(source.queries))
}

func TestFirstPage_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("timeout")}
	b := newTestBuilder(t, source, newFakeCache())

	_, err := b.FirstPage(context.Background())
	assert.NotEqual(t, nil, err)
}

func TestPostPage(t *testing.T) {
	source := &fakeSource{docs: map[string]*prismic.Document{"a": postDoc("a")}}
	cache := newFakeCache()
	b := newTestBuilder(t, source, cache)

	page, err := b.PostPage(context.Background(), "a")
	assert.Equal(t, nil, err)
	assert.NotEqual(t, 0, len(page))
	assert.Equal(t, page, cache.entries[PostKey("a")])

	_, err = b.PostPage(context.Background(), "a")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, source.lookups)

	_, err = b.PostPage(context.Background(), "missing")
	assert.Equal(t, ErrPostNotFound, err)
	assert.Equal(t, true, cache.entries[PostKey("missing")] == nil)
}

func TestInvalidate(t *testing.T) {
	cache := newFakeCache()
	cache.entries[PostKey("a")] = []byte("a")
	cache.entries[PostKey("b")] = []byte("b")
	cache.entries[FirstPageKey] = []byte("{}")
	b := newTestBuilder(t, &fakeSource{}, cache)

	err := b.Invalidate(context.Background(), "a")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(cache.entries))
	assert.Equal(t, "b", string(cache.entries[PostKey("b")]))
}

func TestPrerender(t *testing.T) {
	source := &fakeSource{
		page: &prismic.Page{Results: []prismic.Document{*postDoc("a"), {UID: ""}, *postDoc("gone")}},
		docs: map[string]*prismic.Document{"a": postDoc("a")},
	}
	cache := newFakeCache()
	b := newTestBuilder(t, source, cache)

	built, err := b.Prerender(context.Background(), 10)

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, built)
	assert.Equal(t, 10, source.queries[1].PageSize)
	assert.NotEqual(t, nil, cache.entries[FirstPageKey])
	assert.NotEqual(t, nil, cache.entries[PostKey("a")])
}
