package media

// MediaContext is the per-call or aggregate bag of role-keyed media lists.
type MediaContext struct {
	Icons  []*Image `json:"icons"`
	Logos  []*Image `json:"logos"`
	Titles []*Image `json:"titles"`
	Heros  []*Image `json:"heros"`
	Slides []*Image `json:"slides"`
	Music  []*Music `json:"music"`
	Videos []*Video `json:"videos"`
}

// NewContext returns an empty context.
func NewContext() *MediaContext {
	return &MediaContext{}
}

// Images returns the image list for a role.
func (c *MediaContext) Images(role Role) []*Image {
	switch role {
	case RoleIcon:
		return c.Icons
	case RoleLogo:
		return c.Logos
	case RoleTitle:
		return c.Titles
	case RoleHero:
		return c.Heros
	case RoleSlide:
		return c.Slides
	}
	return nil
}

// SetImages replaces the image list for a role.
func (c *MediaContext) SetImages(role Role, images []*Image) {
	switch role {
	case RoleIcon:
		c.Icons = images
	case RoleLogo:
		c.Logos = images
	case RoleTitle:
		c.Titles = images
	case RoleHero:
		c.Heros = images
	case RoleSlide:
		c.Slides = images
	}
}

// IsEmpty reports whether the context holds no media at all.
func (c *MediaContext) IsEmpty() bool {
	for _, role := range Roles {
		if len(c.Images(role)) > 0 {
			return false
		}
	}
	return len(c.Music) == 0 && len(c.Videos) == 0
}

// Flatten merges a collection of contexts into one by role-wise
// concatenation. Input contexts are not modified; the result owns its
// lists. Nil contexts are skipped.
func Flatten(contexts []*MediaContext) *MediaContext {
	merged := NewContext()
	for _, ctx := range contexts {
		if ctx == nil {
			continue
		}
		for _, role := range Roles {
			merged.SetImages(role, append(merged.Images(role), ctx.Images(role)...))
		}
		merged.Music = append(merged.Music, ctx.Music...)
		merged.Videos = append(merged.Videos, ctx.Videos...)
	}
	return merged
}

// Restamp overwrites the source tag on every item in the context,
// thumbnails included. Stored selections are restamped to Previous
// before they rejoin a scrape.
func (c *MediaContext) Restamp(src Source) {
	for _, role := range Roles {
		for _, img := range c.Images(role) {
			img.Source = src
		}
	}
	for _, m := range c.Music {
		m.Source = src
		if m.Thumbnail != nil {
			m.Thumbnail.Source = src
		}
	}
	for _, v := range c.Videos {
		v.Source = src
		if v.Thumbnail != nil {
			v.Thumbnail.Source = src
		}
	}
}

// ScrapeState is the per-source match state produced by a first scrape
// pass and handed back for the second. It makes the two-pass protocol a
// function of (state, request) instead of hidden scraper-instance fields.
type ScrapeState struct {
	GameID       string
	RolesFetched map[Role]bool
}

// NewScrapeState returns a state with no fetched roles.
func NewScrapeState(gameID string) *ScrapeState {
	return &ScrapeState{GameID: gameID, RolesFetched: make(map[Role]bool)}
}

// MarkFetched records that a role has been fetched for this game.
func (s *ScrapeState) MarkFetched(role Role) {
	if s.RolesFetched == nil {
		s.RolesFetched = make(map[Role]bool)
	}
	s.RolesFetched[role] = true
}

// Fetched reports whether a role has already been fetched.
func (s *ScrapeState) Fetched(role Role) bool {
	return s != nil && s.RolesFetched[role]
}
