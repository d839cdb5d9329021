package ign

// searchEnvelope is the GraphQL response wrapper.
type searchEnvelope struct {
	Data struct {
		SearchObjectsByName struct {
			Objects []GameObject `json:"objects"`
		} `json:"searchObjectsByName"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GameObject is one search result.
type GameObject struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Metadata struct {
		Names struct {
			Name string   `json:"name"`
			Alt  []string `json:"alt"`
		} `json:"names"`
	} `json:"metadata"`
	PrimaryImage *PrimaryImage `json:"primaryImage"`
	Attributes   []Attribute   `json:"attributes"`
}

// PrimaryImage is the object's poster image.
type PrimaryImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Attribute tags an object with a platform.
type Attribute struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
