// Package media defines the model shared by all scrapers: images, videos
// and music grouped into role-keyed contexts.
package media

import "time"

// Source identifies which provider produced a piece of media. Local and
// Previous are sentinels for user-added files and carried-over prior
// selections.
type Source string

const (
	SourceSteamGridDB Source = "steamgriddb"
	SourceIGDB        Source = "igdb"
	SourceIGN         Source = "ign"
	SourceYouTube     Source = "youtube"
	SourceLocal       Source = "local"
	SourcePrevious    Source = "previous"
)

// Role is the visual slot a scraped image fills, distinct from its
// technical type.
type Role string

const (
	RoleIcon  Role = "icon"
	RoleLogo  Role = "logo"
	RoleTitle Role = "title"
	RoleHero  Role = "hero"
	RoleSlide Role = "slide"
)

// Roles lists every image role in canonical order.
var Roles = []Role{RoleIcon, RoleLogo, RoleTitle, RoleHero, RoleSlide}

// Rect is an optional crop rectangle in integer pixels.
type Rect struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Media is the base of every scraped asset. An item with neither a URL nor
// a downloaded payload is meaningless and must not be emitted by a scraper.
type Media struct {
	URL    string `json:"url"`
	Path   string `json:"path,omitempty"`
	Data   []byte `json:"-"`
	Source Source `json:"source"`
	Crop   *Rect  `json:"crop,omitempty"`
}

// MediaURL returns the origin location of the asset.
func (m *Media) MediaURL() string { return m.URL }

// Origin returns the source tag.
func (m *Media) Origin() Source { return m.Source }

// Item is implemented by every concrete media type.
type Item interface {
	MediaURL() string
	Origin() Source
}

// Image is a scraped picture. Width and Height stay 0 until probed.
type Image struct {
	Media
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Video is a scraped video reference. Downloading its bytes is out of
// scope; only the URL and ranking metadata are carried.
type Video struct {
	Media
	Title     string        `json:"title"`
	Duration  time.Duration `json:"duration"`
	LikeCount int64         `json:"likeCount"`
	Thumbnail *Image        `json:"thumbnail,omitempty"`
}

// Music is a scraped soundtrack entry.
type Music struct {
	Media
	Title     string        `json:"title"`
	Duration  time.Duration `json:"duration"`
	LikeCount int64         `json:"likeCount"`
	Thumbnail *Image        `json:"thumbnail,omitempty"`
}
