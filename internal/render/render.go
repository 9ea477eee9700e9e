package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"ignews/internal/model"
	"ignews/internal/post"
	"ignews/pkg/richtext"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	SiteName        = "ig.news"
	DatePlaceholder = "sem data"
)

var monthsPtBR = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// FormatDate renders a date as "dd MMM yyyy" with Portuguese month
// abbreviations. Unknown dates render as DatePlaceholder.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return DatePlaceholder
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), monthsPtBR[t.Month()-1], t.Year())
}

type Renderer struct {
	templates *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"date": FormatDate,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

type baseData struct {
	Title string
	Page  template.HTML
}

type IndexView struct {
	ViewID  string
	Items   []model.PostSummary
	HasMore bool
	Failed  bool
	Loading bool
}

type postView struct {
	Title          string
	BannerURL      string
	BannerAlt      string
	Author         string
	Date           string
	ReadingMinutes int
	Sections       []sectionView
}

type sectionView struct {
	Heading string
	Body    template.HTML
}

func (r *Renderer) Index(view IndexView) ([]byte, error) {
	return r.renderPage("Home | "+SiteName, "index.html", view)
}

// Post renders the detail page. Reading time is derived here, once per
// render, from the document itself.
func (r *Renderer) Post(doc model.PostDocument) ([]byte, error) {
	view := postView{
		Title:          doc.Title,
		BannerURL:      doc.Banner.URL,
		BannerAlt:      doc.Banner.Alt,
		Author:         doc.Author,
		Date:           FormatDate(doc.FirstPublicationDate),
		ReadingMinutes: post.ReadingTime(doc),
	}
	for _, section := range doc.Content {
		view.Sections = append(view.Sections, sectionView{
			Heading: section.Heading,
			Body:    richtext.AsHTML(section.Body),
		})
	}

	title := SiteName
	if doc.Title != "" {
		title = doc.Title + " | " + SiteName
	}
	return r.renderPage(title, "post.html", view)
}

func (r *Renderer) NotFound(message string) ([]byte, error) {
	return r.renderPage("Não encontrado | "+SiteName, "not_found.html", message)
}

func (r *Renderer) Error(message string) ([]byte, error) {
	return r.renderPage(SiteName, "error.html", message)
}

func (r *Renderer) renderPage(title, name string, data any) ([]byte, error) {
	var page bytes.Buffer
	if err := r.templates.ExecuteTemplate(&page, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}

	var out bytes.Buffer
	err := r.templates.ExecuteTemplate(&out, "_base.html", baseData{
		Title: title,
		Page:  template.HTML(page.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("render _base.html: %w", err)
	}
	return out.Bytes(), nil
}
