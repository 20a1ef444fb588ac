package domain

import "time"

// Game is a catalog entry from /api/fast-slots or /api/slotegrator/games/*.
// Category and Tags are optional; when the backend omits them the catalog
// falls back to name heuristics.
type Game struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Provider   string    `json:"provider"`
	Image      string    `json:"image,omitempty"`
	Category   string    `json:"category,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	IsMobile   bool      `json:"isMobile"`
	IsDesktop  bool      `json:"isDesktop"`
	HasJackpot bool      `json:"hasJackpot,omitempty"`
	RTP        *float64  `json:"rtp,omitempty"`
	Volatility string    `json:"volatility,omitempty"`
	LaunchURL  string    `json:"launchUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// GamePage is a page of games. Total is zero when the backend does not paginate.
type GamePage struct {
	Games   []Game `json:"games"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}
