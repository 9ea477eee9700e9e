package post

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ignews/internal/model"
	"ignews/pkg/prismic"
	"ignews/pkg/richtext"
)

const WordsPerMinute = 200

var ErrMissingUID = errors.New("post: record has no uid")

type documentData struct {
	Title   richtext.Field  `json:"title"`
	Banner  model.Banner    `json:"banner"`
	Author  richtext.Field  `json:"author"`
	Content []model.Section `json:"content"`
}

// FromDocument decodes a content record into a PostDocument.
func FromDocument(doc prismic.Document) (model.PostDocument, error) {
	if doc.UID == "" {
		return model.PostDocument{}, ErrMissingUID
	}

	var data documentData
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return model.PostDocument{}, fmt.Errorf("post: decode %s: %w", doc.UID, err)
		}
	}

	published, err := prismic.ParseDate(doc.FirstPublicationDate)
	if err != nil {
		slog.Warn("unparseable publication date, treating as unknown", "uid", doc.UID, "error", err)
		published = nil
	}

	return model.PostDocument{
		UID:                  doc.UID,
		FirstPublicationDate: published,
		Title:                data.Title.Text(),
		Banner:               data.Banner,
		Author:               data.Author.Text(),
		Content:              data.Content,
	}, nil
}

// WordCount counts whitespace-separated words across all section bodies.
// Headings are not counted.
func WordCount(doc model.PostDocument) int {
	bodies := make([]string, 0, len(doc.Content))
	for _, section := range doc.Content {
		bodies = append(bodies, section.Body.Text())
	}
	return len(strings.Fields(strings.Join(bodies, " ")))
}

// ReadingTime is the estimated reading time in whole minutes, rounded up.
func ReadingTime(doc model.PostDocument) int {
	words := WordCount(doc)
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
