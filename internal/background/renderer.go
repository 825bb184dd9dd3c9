package background

import "github.com/Ayash-Bera/searchable/internal/models"

// StarCount is the size of the star field drawn behind every theme
const StarCount = 100

// Style is the CSS treatment for one theme. Overlay is an extra layer drawn on
// top of the gradient, empty when the theme has none.
type Style struct {
	Class   string `json:"class"`
	Overlay string `json:"overlay,omitempty"`
}

var styles = map[models.SpaceTheme]Style{
	models.ThemeDeepSpace:  {Class: "backdrop-deep-space"},
	models.ThemeMars:       {Class: "backdrop-mars"},
	models.ThemeEarthOrbit: {Class: "backdrop-earth-orbit"},
	models.ThemeBlackHole:  {Class: "backdrop-black-hole", Overlay: "overlay-black-hole"},
	models.ThemeNebula:     {Class: "backdrop-nebula"},
}

// Backdrop maps a theme to its style. Unknown themes fall back to deep space.
func Backdrop(theme models.SpaceTheme) Style {
	if s, ok := styles[theme]; ok {
		return s
	}
	return styles[models.ThemeDeepSpace]
}

// Source yields floats in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Star is one twinkling dot. Left and Top are percentages of the viewport.
type Star struct {
	ID       int     `json:"id"`
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Size     float64 `json:"size"`
	Duration float64 `json:"duration"`
}

// GenerateStars places n stars at random. Callers generate the field once and
// keep it, so stars do not jump around between renders.
func GenerateStars(src Source, n int) []Star {
	if n <= 0 {
		return nil
	}
	stars := make([]Star, n)
	for i := range stars {
		stars[i] = Star{
			ID:       i,
			Left:     src.Float64() * 100,
			Top:      src.Float64() * 100,
			Size:     src.Float64() * 3,
			Duration: src.Float64()*3 + 2,
		}
	}
	return stars
}
