package models

import (
	"encoding/base64"
	"fmt"
)

// Source is a web citation the answer was grounded on
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// SearchResult is the answer shown for one query. A new value is built per query.
type SearchResult struct {
	Answer        string   `json:"answer"`
	Sources       []Source `json:"sources"`
	RelatedTopics []string `json:"related_topics"`
}

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Topic is one chip of the trending bar
type Topic struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Trend Trend  `json:"trend"`
}

// SpaceTheme selects the decorative backdrop. It has no effect on queries.
type SpaceTheme string

const (
	ThemeDeepSpace  SpaceTheme = "DeepSpace"
	ThemeMars       SpaceTheme = "Mars"
	ThemeEarthOrbit SpaceTheme = "EarthOrbit"
	ThemeBlackHole  SpaceTheme = "BlackHole"
	ThemeNebula     SpaceTheme = "Nebula"
)

// AllThemes returns every theme in declaration order
func AllThemes() []SpaceTheme {
	return []SpaceTheme{ThemeDeepSpace, ThemeMars, ThemeEarthOrbit, ThemeBlackHole, ThemeNebula}
}

// PlaceholderImage is filler imagery derived from the query text
type PlaceholderImage struct {
	ID  int    `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// GeneratedImage is an inline image returned by the image model
type GeneratedImage struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// DataURI encodes the image for direct use in an <img src>
func (g *GeneratedImage) DataURI() string {
	if g == nil {
		return ""
	}
	mimeType := g.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(g.Data))
}
