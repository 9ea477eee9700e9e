package post

import (
	"encoding/json"
	"fmt"
	"time"

	"ignews/internal/model"
	"ignews/pkg/prismic"
	"ignews/pkg/richtext"
)

type markdownData struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle,omitempty"`
	Author   string          `json:"author"`
	Banner   model.Banner    `json:"banner"`
	Content  []model.Section `json:"content"`
}

// DocumentFromMarkdown builds a post record from a markdown file. Text before
// the first section heading becomes the subtitle.
func DocumentFromMarkdown(uid, author string, published time.Time, src []byte) (prismic.Document, error) {
	if uid == "" {
		return prismic.Document{}, ErrMissingUID
	}

	md, err := richtext.FromMarkdown(src)
	if err != nil {
		return prismic.Document{}, fmt.Errorf("post: import %s: %w", uid, err)
	}

	data := markdownData{
		Title:   md.Title,
		Author:  author,
		Content: []model.Section{},
	}

	for i, section := range md.Sections {
		if i == 0 && section.Heading == "" {
			data.Subtitle = section.Body.Text()
			continue
		}
		data.Content = append(data.Content, model.Section{Heading: section.Heading, Body: section.Body})
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return prismic.Document{}, err
	}

	return prismic.Document{
		ID:                   "markdown-" + uid,
		UID:                  uid,
		Type:                 model.PostType,
		FirstPublicationDate: prismic.FormatDate(&published),
		LastPublicationDate:  prismic.FormatDate(&published),
		Data:                 raw,
	}, nil
}
