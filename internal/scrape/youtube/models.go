package youtube

// searchResult is the single-JSON output of a flat playlist search.
type searchResult struct {
	Entries []playlistEntry `json:"entries"`
}

// playlistEntry is one search hit; for playlist-filtered searches the id
// is a playlist id.
type playlistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// videoEntry is one line of the JSON-lines playlist listing.
type videoEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	LikeCount int64   `json:"like_count"`
}
