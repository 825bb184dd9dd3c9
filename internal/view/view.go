package view

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/Ayash-Bera/searchable/internal/background"
	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/Ayash-Bera/searchable/internal/orchestrator"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Raw HTML in answers is dropped, so model output cannot inject markup
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// Page is everything the index template needs for one render
type Page struct {
	Query           string
	Phase           orchestrator.Phase
	Searching       bool
	Idle            bool
	Backdrop        background.Style
	Stars           []background.Star
	Result          *models.SearchResult
	Answer          template.HTML
	Placeholders    []models.PlaceholderImage
	Generating      bool
	GeneratedImage  template.URL
	Trending        []models.Topic
	ScrollToResults bool
}

// NewPage builds the view of one session's state
func NewPage(state orchestrator.State, stars []background.Star) Page {
	p := Page{
		Query:           state.Query,
		Phase:           state.Phase(),
		Searching:       state.Searching,
		Idle:            state.Result == nil && !state.Searching,
		Backdrop:        background.Backdrop(state.Theme),
		Stars:           stars,
		Result:          state.Result,
		Placeholders:    state.Placeholders,
		Generating:      state.Generating,
		Trending:        state.Trending,
		ScrollToResults: state.ScrollToResults,
	}
	if state.Result != nil {
		p.Answer = RenderMarkdown(state.Result.Answer)
	}
	if uri := state.GeneratedImage.DataURI(); uri != "" {
		// data: URIs built from model bytes, with a mime type we set
		p.GeneratedImage = template.URL(uri)
	}
	return p
}

// TrendMarker is the arrow drawn next to a trending topic
func TrendMarker(trend models.Trend) string {
	switch trend {
	case models.TrendUp:
		return "▲"
	case models.TrendDown:
		return "▼"
	default:
		return ""
	}
}

// RenderMarkdown converts answer text to HTML. On a conversion error the text
// is shown escaped instead.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// Templates parses the embedded page templates
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"trendMarker": TrendMarker,
		"trendClass": func(t models.Trend) string {
			return "trend-" + string(t)
		},
	}).ParseFS(templateFS, "templates/*.html")
}

// Static serves the stylesheet
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
