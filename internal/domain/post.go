package domain

// Post is the record kept for every published article inside a category node.
// The JSON keys match the persisted structure file.
type Post struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Enclosure   string `json:"enclosure"`
	PubDate     string `json:"pubdate"`
}
