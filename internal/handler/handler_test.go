package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"

	"ignews/internal/listing"
	"ignews/internal/render"
	"ignews/internal/site"
	"ignews/pkg/prismic"

	"github.com/gin-gonic/gin"
)

type fakeSource struct {
	first *prismic.Page
	pages map[string]*prismic.Page
	docs  map[string]*prismic.Document
	err   error
}

func (f *fakeSource) Name() string {
	return "fake"
}

func (f *fakeSource) GetByType(ctx context.Context, docType string, q prismic.Query) (*prismic.Page, error) {
	return f.first, f.err
}

func (f *fakeSource) GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[uid], nil
}

func (f *fakeSource) FetchPage(ctx context.Context, cursor string) (*prismic.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[cursor], nil
}

type fakeCache struct {
	entries map[string][]byte
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

type fakeViews struct {
	mu     sync.Mutex
	states map[string]listing.State
	locked map[string]string
	nextID int
	err    error
}

func newFakeViews() *fakeViews {
	return &fakeViews{states: map[string]listing.State{}, locked: map[string]string{}}
}

func (f *fakeViews) Create(ctx context.Context, state listing.State) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	id := "view-" + strconv.Itoa(f.nextID)
	f.states[id] = state
	return id, nil
}

func (f *fakeViews) Get(ctx context.Context, id string) (*listing.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	state, ok := f.states[id]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (f *fakeViews) Save(ctx context.Context, id string, state listing.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = state
	return f.err
}

func (f *fakeViews) Lock(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked[id] != "" {
		return "", nil
	}
	f.locked[id] = "token-" + id
	return f.locked[id], nil
}

func (f *fakeViews) Unlock(ctx context.Context, id, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if f.locked[id] == token {
		delete(f.locked, id)
	}
	return nil
}

type fakeDocuments struct {
	page     *prismic.Page
	doc      *prismic.Document
	err      error
	lastType string
	lastQ    prismic.Query
}

func (f *fakeDocuments) GetByType(ctx context.Context, docType string, q prismic.Query) (*prismic.Page, error) {
	f.lastType = docType
	f.lastQ = q
	return f.page, f.err
}

func (f *fakeDocuments) GetByUID(ctx context.Context, docType, uid string) (*prismic.Document, error) {
	f.lastType = docType
	return f.doc, f.err
}

var errUnavailable = errors.New("service unavailable")

func postDoc(uid string) prismic.Document {
	date := "2021-03-15T19:25:28+0000"
	data, _ := json.Marshal(map[string]interface{}{
		"title":    "Title " + uid,
		"subtitle": "Subtitle " + uid,
		"author":   "Author " + uid,
		"content": []map[string]interface{}{
			{"heading": "Heading " + uid, "body": []map[string]interface{}{{"type": "paragraph", "text": "some words here", "spans": []interface{}{}}}},
		},
	})
	return prismic.Document{UID: uid, Type: "post", FirstPublicationDate: &date, Data: data}
}

func postPage(next string, uids ...string) *prismic.Page {
	p := &prismic.Page{Page: 1}
	if next != "" {
		p.NextPage = &next
	}
	for _, uid := range uids {
		p.Results = append(p.Results, postDoc(uid))
	}
	return p
}

func newTestBuilder(t *testing.T, source *fakeSource) *site.Builder {
	renderer, err := render.New()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	return site.NewBuilder(source, &fakeCache{entries: map[string][]byte{}}, renderer, 1)
}

func newTestRouter(t *testing.T, source *fakeSource, views *fakeViews, documents *fakeDocuments) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	builder := newTestBuilder(t, source)
	lh := NewListingHandler(builder, views, listing.AppendAll)
	ph := NewPostHandler(builder)
	dh := NewDocumentHandler(documents)

	r.GET("/", lh.GetHome)
	r.POST("/more", lh.LoadMoreFromHome)
	r.POST("/api/views", lh.CreateViewJSON)
	r.GET("/views/:id", lh.GetView)
	r.POST("/views/:id/more", lh.LoadMore)
	r.GET("/api/views/:id", lh.GetViewJSON)
	r.POST("/api/views/:id/more", lh.LoadMoreJSON)
	r.GET("/post/:slug", ph.GetPost)
	r.GET("/api/v2/documents/search", dh.Search)
	r.GET("/api/v2/documents/:uid", dh.GetDocument)
	r.GET("/health", lh.GetHealth)
	return r
}
