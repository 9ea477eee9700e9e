package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RequestTimeout bounds every call to the API.
const RequestTimeout = 30 * time.Second

// Client talks to a Prismic-compatible v2 REST API, e.g.
// https://<repo>.cdn.prismic.io/api/v2.
type Client struct {
	apiURL      string
	accessToken string
	httpClient  *http.Client

	mu  sync.Mutex
	ref string
}

func NewClient(apiURL, accessToken string) *Client {
	return &Client{
		apiURL:      strings.TrimRight(apiURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: RequestTimeout},
	}
}

func (c *Client) Name() string {
	return "prismic"
}

func (c *Client) GetByType(ctx context.Context, docType string, q Query) (*Page, error) {
	return c.search(ctx, []string{fmt.Sprintf("[at(document.type, %s)]", strconv.Quote(docType))}, q)
}

// GetByUID returns nil without an error when no document has the uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (*Document, error) {
	predicate := fmt.Sprintf("[at(my.%s.uid, %s)]", docType, strconv.Quote(uid))
	page, err := c.search(ctx, []string{predicate}, Query{PageSize: 1})
	if err != nil {
		return nil, err
	}

	if len(page.Results) == 0 {
		return nil, nil
	}
	return &page.Results[0], nil
}

// FetchPage issues a plain GET against an opaque next_page cursor.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Page, error) {
	u, err := url.Parse(cursor)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("prismic: invalid cursor %q", cursor)
	}

	var page Page
	if err := c.getJSON(ctx, cursor, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) search(ctx context.Context, predicates []string, q Query) (*Page, error) {
	ref, err := c.masterRef(ctx)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("ref", ref)
	values.Set("q", "["+strings.Join(predicates, "")+"]")
	if len(q.Fetch) > 0 {
		values.Set("fetch", strings.Join(q.Fetch, ","))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if c.accessToken != "" {
		values.Set("access_token", c.accessToken)
	}

	var page Page
	err = c.getJSON(ctx, c.apiURL+"/documents/search?"+values.Encode(), &page)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < 500 {
			// the ref may have been superseded by a new release
			c.resetRef()
		}
		return nil, err
	}
	return &page, nil
}

func (c *Client) masterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ref != "" {
		return c.ref, nil
	}

	u := c.apiURL
	if c.accessToken != "" {
		u += "?access_token=" + url.QueryEscape(c.accessToken)
	}

	var api struct {
		Refs []struct {
			ID          string `json:"id"`
			Ref         string `json:"ref"`
			IsMasterRef bool   `json:"isMasterRef"`
		} `json:"refs"`
	}
	if err := c.getJSON(ctx, u, &api); err != nil {
		return "", err
	}

	for _, r := range api.Refs {
		if r.IsMasterRef {
			c.ref = r.Ref
			return c.ref, nil
		}
	}
	return "", errors.New("prismic: api has no master ref")
}

func (c *Client) resetRef() {
	c.mu.Lock()
	c.ref = ""
	c.mu.Unlock()
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("prismic request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("prismic fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, URL: redact(u)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("prismic decode: %w", err)
	}
	return nil
}

func redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	q := parsed.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
