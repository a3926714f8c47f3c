package model

// Board is a named forum section that contains topics.
// Boards are identified positionally by their index in the flattened board list.
type Board struct {
	// Name is the display name of the board as shown on the index page.
	Name string `json:"name"`

	// URL is the absolute URL of the first page of the board's topic listing.
	URL string `json:"url"`
}

// Topic is a discussion thread within a board.
// Topics are identified positionally within their board's topic list.
type Topic struct {
	// Title is the topic subject as shown in the board listing.
	Title string `json:"title"`

	// RootURL is the absolute URL of the first message page of the topic.
	RootURL string `json:"root_url"`
}
