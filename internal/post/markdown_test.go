package post

import (
	"testing"
	"time"

	"ignews/internal/listing"
	"ignews/pkg/richtext"

	"github.com/go-playground/assert/v2"
)

const hooksMarkdown = `# Como utilizar Hooks

Pensando em sincronização em vez de ciclos de vida.

## Proin et varius

Nullam dolor sapien, **vulputate** eu diam at.

## Cras laoreet

- mi
- nunc
`

func TestDocumentFromMarkdown(t *testing.T) {
	published := time.Date(2021, time.March, 15, 19, 25, 28, 0, time.UTC)

	raw, err := DocumentFromMarkdown("como-utilizar-hooks", "Joseph Oliveira", published, []byte(hooksMarkdown))
	assert.Equal(t, nil, err)
	assert.Equal(t, "post", raw.Type)
	assert.Equal(t, "markdown-como-utilizar-hooks", raw.ID)

	doc, err := FromDocument(raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Como utilizar Hooks", doc.Title)
	assert.Equal(t, "Joseph Oliveira", doc.Author)
	assert.Equal(t, published.Unix(), doc.FirstPublicationDate.Unix())
	assert.Equal(t, 2, len(doc.Content))
	assert.Equal(t, "Proin et varius", doc.Content[0].Heading)
	assert.Equal(t, richtext.Strong, doc.Content[0].Body[0].Spans[0].Type)
	assert.Equal(t, richtext.ListItem, doc.Content[1].Body[0].Type)
	assert.Equal(t, 9, WordCount(doc))

	summary, err := listing.Normalize(raw)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Pensando em sincronização em vez de ciclos de vida.", summary.Subtitle)
}

func TestDocumentFromMarkdown_Errors(t *testing.T) {
	_, err := DocumentFromMarkdown("", "", time.Now(), []byte(hooksMarkdown))
	assert.Equal(t, ErrMissingUID, err)

	_, err = DocumentFromMarkdown("a", "", time.Now(), []byte("no heading"))
	assert.NotEqual(t, nil, err)
}
