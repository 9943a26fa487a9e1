package domain

// Advertisement stores a promoted banner entry.
type Advertisement struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	LinkURL      string `json:"link_url"`
	LinkText     string `json:"link_text"`
	DisplayOrder int    `json:"display_order"`
}
