package richtext

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var ErrNoTitle = errors.New("markdown post has no level-1 heading")

type Section struct {
	Heading string
	Body    Field
}

type Markdown struct {
	Title    string
	Sections []Section
}

var markdown = goldmark.New()

// FromMarkdown converts a markdown post into rich text. The first level-1
// heading is the title, every level-1 or level-2 heading after it opens a new
// section, and content before the first section heading goes into a section
// without a heading.
func FromMarkdown(src []byte) (*Markdown, error) {
	doc := markdown.Parser().Parse(text.NewReader(src))

	md := &Markdown{}
	current := -1

	add := func(b Block) {
		if current < 0 {
			md.Sections = append(md.Sections, Section{})
			current = len(md.Sections) - 1
		}
		md.Sections[current].Body = append(md.Sections[current].Body, b)
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b := inlineBlock(node, src, "heading"+strconv.Itoa(node.Level))
			if md.Title == "" && node.Level == 1 {
				md.Title = b.Text
				continue
			}
			if node.Level <= 2 {
				md.Sections = append(md.Sections, Section{Heading: b.Text})
				current = len(md.Sections) - 1
				continue
			}
			add(b)
		case *ast.Paragraph:
			add(inlineBlock(node, src, Paragraph))
		case *ast.Blockquote:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				if p, ok := c.(*ast.Paragraph); ok {
					add(inlineBlock(p, src, Paragraph))
				}
			}
		case *ast.List:
			for _, b := range listBlocks(node, src) {
				add(b)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			add(Block{Type: Preformatted, Text: codeText(n, src)})
		}
	}

	if md.Title == "" {
		return nil, ErrNoTitle
	}

	return md, nil
}

func listBlocks(list *ast.List, src []byte) []Block {
	blockType := ListItem
	if list.IsOrdered() {
		blockType = OListItem
	}

	var blocks []Block
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.TextBlock, *ast.Paragraph:
				blocks = append(blocks, inlineBlock(v, src, blockType))
			case *ast.List:
				blocks = append(blocks, listBlocks(v, src)...)
			}
		}
	}
	return blocks
}

func codeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func inlineBlock(n ast.Node, src []byte, blockType string) Block {
	w := &inlineWriter{src: src}
	w.walk(n)
	return Block{Type: blockType, Text: strings.TrimRight(w.sb.String(), " \n"), Spans: w.spans}
}

type inlineWriter struct {
	src   []byte
	sb    strings.Builder
	pos   int
	spans []Span
}

func (w *inlineWriter) write(s string) {
	w.sb.WriteString(s)
	w.pos += utf8.RuneCountInString(s)
}

func (w *inlineWriter) span(start int, spanType string, data *SpanData) {
	if w.pos > start {
		w.spans = append(w.spans, Span{Start: start, End: w.pos, Type: spanType, Data: data})
	}
}

func (w *inlineWriter) walk(n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			w.write(string(v.Segment.Value(w.src)))
			if v.HardLineBreak() {
				w.write("\n")
			} else if v.SoftLineBreak() {
				w.write(" ")
			}
		case *ast.String:
			w.write(string(v.Value))
		case *ast.Emphasis:
			start := w.pos
			w.walk(v)
			if v.Level >= 2 {
				w.span(start, Strong, nil)
			} else {
				w.span(start, Em, nil)
			}
		case *ast.Link:
			start := w.pos
			w.walk(v)
			w.span(start, Hyperlink, &SpanData{URL: string(v.Destination)})
		case *ast.AutoLink:
			start := w.pos
			w.write(string(v.Label(w.src)))
			w.span(start, Hyperlink, &SpanData{URL: string(v.URL(w.src))})
		case *ast.RawHTML:
		default:
			w.walk(c)
		}
	}
}
