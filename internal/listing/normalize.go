package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"ignews/internal/model"
	"ignews/pkg/prismic"
	"ignews/pkg/richtext"
)

var ErrMissingUID = errors.New("listing: record has no uid")

// SummaryFields is the field selection used for listing queries.
var SummaryFields = []string{"post.title", "post.subtitle", "post.author"}

type summaryData struct {
	Title    richtext.Field `json:"title"`
	Subtitle richtext.Field `json:"subtitle"`
	Author   richtext.Field `json:"author"`
}

// Normalize maps a content record onto a PostSummary. Fields other than uid,
// first publication date, title, subtitle and author are dropped. A missing or
// unparseable date becomes nil.
func Normalize(doc prismic.Document) (model.PostSummary, error) {
	if doc.UID == "" {
		return model.PostSummary{}, ErrMissingUID
	}

	var data summaryData
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return model.PostSummary{}, fmt.Errorf("listing: decode %s: %w", doc.UID, err)
		}
	}

	published, err := prismic.ParseDate(doc.FirstPublicationDate)
	if err != nil {
		slog.Warn("unparseable publication date, treating as unknown", "uid", doc.UID, "error", err)
		published = nil
	}

	return model.PostSummary{
		UID:                  doc.UID,
		FirstPublicationDate: published,
		Title:                data.Title.Text(),
		Subtitle:             data.Subtitle.Text(),
		Author:               data.Author.Text(),
	}, nil
}

// NewState builds the initial state of a listing view from its first page.
// Records that cannot be normalized are skipped.
func NewState(page *prismic.Page) State {
	state := State{Items: []model.PostSummary{}}
	if page == nil {
		return state
	}

	state.Items = normalizeAll(page.Results)
	state.Cursor = page.Next()
	return state
}

func normalizeAll(docs []prismic.Document) []model.PostSummary {
	items := make([]model.PostSummary, 0, len(docs))
	for _, doc := range docs {
		summary, err := Normalize(doc)
		if err != nil {
			slog.Warn("skipping post record", "uid", doc.UID, "error", err)
			continue
		}
		items = append(items, summary)
	}
	return items
}
