package models

// Venue is an autocomplete search hit. Ephemeral: it lives only for the
// duration of a search session and is never persisted.
type Venue struct {
	VenueID      string   `json:"venue_id"`
	Name         string   `json:"name"`
	Neighborhood string   `json:"neighborhood"`
	Region       string   `json:"region"`
	Cuisine      []string `json:"cuisine"`
	URLSlug      string   `json:"url_slug"`
}

// WatchedVenue is a locally pinned favorite from watchlist.yaml. Display
// only; nothing is persisted back.
type WatchedVenue struct {
	VenueID string `yaml:"venue_id"`
	Name    string `yaml:"name"`
	Notes   string `yaml:"notes"`
}
