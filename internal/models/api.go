package models

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

type TopicRequest struct {
	Label string `json:"label" binding:"required"`
}

// StateResponse is the JSON view of one session's orchestrator state
type StateResponse struct {
	Phase          string             `json:"phase"`
	Query          string             `json:"query"`
	Theme          SpaceTheme         `json:"theme"`
	Backdrop       string             `json:"backdrop"`
	Searching      bool               `json:"searching"`
	Result         *SearchResult      `json:"result"`
	Placeholders   []PlaceholderImage `json:"placeholders"`
	Generating     bool               `json:"generating"`
	GeneratedImage string             `json:"generated_image,omitempty"`
	Trending       []Topic            `json:"trending"`
}
