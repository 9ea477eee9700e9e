package listing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"ignews/internal/model"
	"ignews/pkg/prismic"
)

var (
	ErrNoMorePages    = errors.New("listing: no more pages")
	ErrLoadInProgress = errors.New("listing: a page load is already in progress")
)

type AppendMode string

const (
	// AppendAll appends every record of a fetched page.
	AppendAll AppendMode = "all"
	// AppendFirst appends only the first valid record of a fetched page.
	AppendFirst AppendMode = "first"
)

func ParseAppendMode(s string) (AppendMode, error) {
	switch AppendMode(s) {
	case AppendAll, "":
		return AppendAll, nil
	case AppendFirst:
		return AppendFirst, nil
	}
	return "", fmt.Errorf("listing: unknown append mode %q", s)
}

type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (*prismic.Page, error)
}

// State is the visible collection of a listing view. Items only ever grow.
type State struct {
	Cursor  string              `json:"cursor,omitempty"`
	Items   []model.PostSummary `json:"items"`
	Failure string              `json:"failure,omitempty"`
}

func (s State) HasMore() bool {
	return s.Cursor != ""
}

func (s State) clone() State {
	s.Items = slices.Clone(s.Items)
	return s
}

// FetchError reports a failed page load. The state it came from is left as it
// was, so the same load can be retried.
type FetchError struct {
	Cursor string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("listing: fetch next page: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Retryable() bool {
	return true
}

type Outcome struct {
	Appended []model.PostSummary
	State    State
}

type Option func(*Controller)

func WithAppendMode(mode AppendMode) Option {
	return func(c *Controller) {
		c.mode = mode
	}
}

type Controller struct {
	fetcher PageFetcher
	mode    AppendMode

	mu      sync.Mutex
	loading bool
	state   State
}

func NewController(fetcher PageFetcher, initial State, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		mode:    AppendAll,
		state:   initial.clone(),
	}
	if c.state.Items == nil {
		c.state.Items = []model.PostSummary{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LoadMore fetches the page behind the cursor and appends its records.
// Only one load runs at a time; a concurrent call gets ErrLoadInProgress
// instead of racing the first one, so items keep request order.
func (c *Controller) LoadMore(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return Outcome{}, ErrLoadInProgress
	}
	if !c.state.HasMore() {
		c.mu.Unlock()
		return Outcome{}, ErrNoMorePages
	}
	c.loading = true
	cursor := c.state.Cursor
	c.mu.Unlock()

	page, err := c.fetcher.FetchPage(ctx, cursor)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		fetchErr := &FetchError{Cursor: cursor, Err: err}
		c.state.Failure = fetchErr.Error()
		return Outcome{State: c.state.clone()}, fetchErr
	}

	var results []prismic.Document
	if page != nil {
		results = page.Results
	}

	appended := normalizeAll(results)
	if c.mode == AppendFirst && len(appended) > 1 {
		appended = appended[:1]
	}
	c.state.Items = append(c.state.Items, appended...)
	c.state.Cursor = page.Next()
	c.state.Failure = ""

	return Outcome{Appended: appended, State: c.state.clone()}, nil
}
