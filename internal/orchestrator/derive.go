package orchestrator

import (
	"fmt"
	"unicode/utf16"

	"github.com/Ayash-Bera/searchable/internal/models"
)

// PlaceholderCount is how many filler images accompany each result
const PlaceholderCount = 4

// Entropy is the randomness the orchestrator draws from. *rand.Rand satisfies it.
type Entropy interface {
	IntN(n int) int
}

// ChooseTheme picks a backdrop uniformly at random
func ChooseTheme(e Entropy) models.SpaceTheme {
	themes := models.AllThemes()
	return themes[e.IntN(len(themes))]
}

// QuerySeed sums the UTF-16 code units of the query
func QuerySeed(query string) int {
	seed := 0
	for _, unit := range utf16.Encode([]rune(query)) {
		seed += int(unit)
	}
	return seed
}

// DerivePlaceholders builds count CDN image links seeded from the query, so the
// same query always gets the same images.
func DerivePlaceholders(baseURL, query string, count int) []models.PlaceholderImage {
	seed := QuerySeed(query)
	images := make([]models.PlaceholderImage, 0, count)
	for i := 0; i < count; i++ {
		images = append(images, models.PlaceholderImage{
			ID:  i,
			Src: fmt.Sprintf("%s?random=%d", baseURL, seed+i),
			Alt: fmt.Sprintf("%s related image %d", query, i+1),
		})
	}
	return images
}

// SeedTopics is the trending list shown before any search
func SeedTopics() []models.Topic {
	return []models.Topic{
		{ID: "1", Label: "Mars Colonization", Trend: models.TrendUp},
		{ID: "2", Label: "Quantum Computing", Trend: models.TrendUp},
		{ID: "3", Label: "Neural Interfaces", Trend: models.TrendNeutral},
		{ID: "4", Label: "Exoplanet Discovery", Trend: models.TrendUp},
		{ID: "5", Label: "Fusion Energy", Trend: models.TrendUp},
		{ID: "6", Label: "Artificial General Intelligence", Trend: models.TrendNeutral},
	}
}

// TopicsFromRelated turns related topic strings into trending chips
func TopicsFromRelated(related []string) []models.Topic {
	topics := make([]models.Topic, len(related))
	for i, label := range related {
		topics[i] = models.Topic{
			ID:    fmt.Sprintf("rel-%d", i),
			Label: label,
			Trend: models.TrendNeutral,
		}
	}
	return topics
}
