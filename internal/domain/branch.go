package domain

// Theme stores a single rentable escape-room experience. A theme has no
// lifecycle of its own; it always belongs to a branch.
type Theme struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PosterURL   string `json:"poster_url"`

	// Scores are bounded integers in [0,10].
	Difficulty     int `json:"difficulty"`
	Fear           int `json:"fear"`
	Activity       int `json:"activity"`
	Recommendation int `json:"recommendation"`

	Tags []string `json:"tags"`
}

// Branch stores a physical escape-room business location.
type Branch struct {
	ID         string  `json:"id"`
	BrandName  string  `json:"brand_name"`
	BranchName string  `json:"branch_name"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	WebsiteURL string  `json:"website_url,omitempty"`
	Phone      string  `json:"phone,omitempty"`

	// Themes keep insertion order; the order is display order only.
	Themes []Theme `json:"themes"`
}

// Location returns the branch coordinate.
func (b Branch) Location() Location {
	return Location{Lat: b.Lat, Lng: b.Lng}
}

// ThemeDisplay is a theme flattened with its parent branch fields for list
// views.
type ThemeDisplay struct {
	Theme

	BranchID   string   `json:"branch_id"`
	BrandName  string   `json:"brand_name"`
	BranchName string   `json:"branch_name"`
	Address    string   `json:"address"`
	Location   Location `json:"location"`
	WebsiteURL string   `json:"website_url,omitempty"`
}
