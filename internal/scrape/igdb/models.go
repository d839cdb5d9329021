package igdb

// Game is one /games result.
type Game struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Platforms   []int  `json:"platforms"`
	Cover       int    `json:"cover"`
	Screenshots []int  `json:"screenshots"`
	Videos      []int  `json:"videos"`
}

// AlternativeName is one /alternative_names result.
type AlternativeName struct {
	ID   int    `json:"id"`
	Game int    `json:"game"`
	Name string `json:"name"`
}

// Artwork is one /covers or /screenshots result. IGDB returns
// protocol-relative thumbnail URLs.
type Artwork struct {
	ID     int    `json:"id"`
	Game   int    `json:"game"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Video is one /game_videos result; VideoID is a YouTube video id.
type Video struct {
	ID      int    `json:"id"`
	Game    int    `json:"game"`
	Name    string `json:"name"`
	VideoID string `json:"video_id"`
}
