package prismic

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the timestamp layout the content API uses.
const DateLayout = "2006-01-02T15:04:05-0700"

type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Tags                 []string        `json:"tags"`
	Data                 json.RawMessage `json:"data"`
}

type Page struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Next returns the next-page cursor, or "" at the end of the collection.
func (p *Page) Next() string {
	if p == nil || p.NextPage == nil {
		return ""
	}
	return *p.NextPage
}

type Query struct {
	Fetch    []string
	Page     int
	PageSize int
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("prismic: unexpected status %d from %s", e.StatusCode, e.URL)
}

// ParseDate accepts the API layout and RFC 3339. A nil or empty value is an
// unknown date, not an error.
func ParseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}

	t, err := time.Parse(DateLayout, *value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, *value)
		if err != nil {
			return nil, fmt.Errorf("prismic: invalid date %q: %w", *value, err)
		}
	}
	return &t, nil
}

func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(DateLayout)
	return &s
}
