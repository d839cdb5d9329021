package steamgriddb

// envelope is the common SteamGridDB response wrapper.
type envelope[T any] struct {
	Success bool     `json:"success"`
	Data    []T      `json:"data"`
	Errors  []string `json:"errors"`
}

// Game is one autocomplete search result.
type Game struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Types    []string `json:"types"`
	Verified bool     `json:"verified"`
}

// Asset is one grid, logo or hero entry.
type Asset struct {
	ID     int    `json:"id"`
	URL    string `json:"url"`
	Thumb  string `json:"thumb"`
	Style  string `json:"style"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mime   string `json:"mime"`
}
