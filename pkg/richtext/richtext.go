package richtext

import (
	"bytes"
	"encoding/json"
	"html/template"
	"sort"
	"strings"
)

const (
	Paragraph    = "paragraph"
	Heading1     = "heading1"
	Heading2     = "heading2"
	Heading3     = "heading3"
	Heading4     = "heading4"
	Heading5     = "heading5"
	Heading6     = "heading6"
	Preformatted = "preformatted"
	ListItem     = "list-item"
	OListItem    = "o-list-item"

	Strong    = "strong"
	Em        = "em"
	Hyperlink = "hyperlink"
)

// Span marks a formatted range of a block's text. Offsets count runes.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

type SpanData struct {
	URL string `json:"url,omitempty"`
}

type Block struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Spans []Span `json:"spans"`
}

// Field is a rich-text field. Content services sometimes send a key-text field
// where a rich-text one is expected, so a bare JSON string decodes into a
// single paragraph.
type Field []Block

func (f *Field) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = nil
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s == "" {
			*f = nil
			return nil
		}
		*f = Field{{Type: Paragraph, Text: s}}
		return nil
	}

	var blocks []Block
	if err := json.Unmarshal(trimmed, &blocks); err != nil {
		return err
	}
	*f = blocks
	return nil
}

func (f Field) Text() string {
	return AsText(f)
}

// AsText joins the text of every block with a single space.
func AsText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Text == "" {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, " ")
}

// AsHTML renders blocks to escaped markup. Consecutive list items share one
// list element. Unknown block types are dropped.
func AsHTML(blocks []Block) template.HTML {
	var sb strings.Builder
	var openList string

	for _, b := range blocks {
		list := listTag(b.Type)
		if list != openList {
			if openList != "" {
				sb.WriteString("</" + openList + ">")
			}
			if list != "" {
				sb.WriteString("<" + list + ">")
			}
			openList = list
		}

		tag := blockTag(b.Type)
		if tag == "" {
			continue
		}

		sb.WriteString("<" + tag + ">")
		sb.WriteString(renderSpans(b.Text, b.Spans, b.Type == Preformatted))
		sb.WriteString("</" + tag + ">")
	}

	if openList != "" {
		sb.WriteString("</" + openList + ">")
	}

	return template.HTML(sb.String())
}

func listTag(blockType string) string {
	switch blockType {
	case ListItem:
		return "ul"
	case OListItem:
		return "ol"
	}
	return ""
}

func blockTag(blockType string) string {
	switch blockType {
	case Paragraph:
		return "p"
	case Heading1, Heading2, Heading3, Heading4, Heading5, Heading6:
		return "h" + strings.TrimPrefix(blockType, "heading")
	case Preformatted:
		return "pre"
	case ListItem, OListItem:
		return "li"
	}
	return ""
}

func renderSpans(text string, spans []Span, preformatted bool) string {
	runes := []rune(text)

	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > len(runes) {
			s.End = len(runes)
		}
		if s.Start >= s.End || openTag(s) == "" {
			continue
		}
		sorted = append(sorted, s)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var sb strings.Builder
	var stack []Span
	next := 0

	for i := 0; i <= len(runes); i++ {
		// Close everything ending here; spans closed only to keep nesting
		// valid are reopened right after.
		var reopen []Span
		for endsWithin(stack, i) {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sb.WriteString(closeTag(top))
			if top.End > i {
				reopen = append(reopen, top)
			}
		}
		for j := len(reopen) - 1; j >= 0; j-- {
			sb.WriteString(openTag(reopen[j]))
			stack = append(stack, reopen[j])
		}

		if i == len(runes) {
			break
		}

		for next < len(sorted) && sorted[next].Start == i {
			sb.WriteString(openTag(sorted[next]))
			stack = append(stack, sorted[next])
			next++
		}

		r := runes[i]
		if r == '\n' && !preformatted {
			sb.WriteString("<br />")
			continue
		}
		sb.WriteString(template.HTMLEscapeString(string(r)))
	}

	return sb.String()
}

func endsWithin(stack []Span, pos int) bool {
	for _, s := range stack {
		if s.End <= pos {
			return true
		}
	}
	return false
}

func openTag(s Span) string {
	switch s.Type {
	case Strong:
		return "<strong>"
	case Em:
		return "<em>"
	case Hyperlink:
		url := ""
		if s.Data != nil {
			url = s.Data.URL
		}
		return `<a href="` + template.HTMLEscapeString(safeURL(url)) + `">`
	}
	return ""
}

func closeTag(s Span) string {
	switch s.Type {
	case Strong:
		return "</strong>"
	case Em:
		return "</em>"
	case Hyperlink:
		return "</a>"
	}
	return ""
}

func safeURL(url string) string {
	lower := strings.ToLower(strings.TrimSpace(url))
	switch {
	case strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "mailto:"),
		strings.HasPrefix(lower, "/"),
		strings.HasPrefix(lower, "#"):
		return url
	}
	return "#"
}
