package escape

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

// wireID accepts backend ids serialized as numbers or strings.
type wireID string

func (w *wireID) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*w = wireID(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		*w = wireID(number.String())
		return nil
	}
	return fmt.Errorf("id must be a string or number")
}

type wireTheme struct {
	ID                  wireID `json:"id"`
	BranchID            wireID `json:"branchId"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	PosterURL           string `json:"posterUrl"`
	PointDifficulty     int    `json:"pointDifficulty"`
	PointFear           int    `json:"pointFear"`
	PointActivity       int    `json:"pointActivity"`
	PointRecommendation int    `json:"pointRecommendation"`
	// Tags arrive comma-joined.
	Tags string `json:"tags"`
}

type wireBranch struct {
	ID         wireID      `json:"id"`
	BrandName  string      `json:"brandName"`
	BranchName string      `json:"branchName"`
	Address    string      `json:"address"`
	Latitude   float64     `json:"latitude"`
	Longitude  float64     `json:"longitude"`
	WebsiteURL string      `json:"websiteUrl"`
	Phone      string      `json:"phone"`
	Themes     []wireTheme `json:"themes"`
}

type wireReview struct {
	ID                  wireID    `json:"id"`
	ThemeID             wireID    `json:"themeId"`
	UserNickname        string    `json:"userNickname"`
	PointDifficulty     int       `json:"pointDifficulty"`
	PointFear           int       `json:"pointFear"`
	PointActivity       int       `json:"pointActivity"`
	PointRecommendation int       `json:"pointRecommendation"`
	Comment             string    `json:"comment"`
	CreatedAt           time.Time `json:"createdAt"`
}

type wireAd struct {
	ID           wireID `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageURL     string `json:"imageUrl"`
	LinkURL      string `json:"linkUrl"`
	LinkText     string `json:"linkText"`
	DisplayOrder int    `json:"displayOrder"`
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func (w wireTheme) toDomain() domain.Theme {
	return domain.Theme{
		ID:             string(w.ID),
		Name:           w.Name,
		Description:    w.Description,
		PosterURL:      w.PosterURL,
		Difficulty:     w.PointDifficulty,
		Fear:           w.PointFear,
		Activity:       w.PointActivity,
		Recommendation: w.PointRecommendation,
		Tags:           splitTags(w.Tags),
	}
}

func (w wireBranch) toDomain() domain.Branch {
	themes := make([]domain.Theme, 0, len(w.Themes))
	for _, t := range w.Themes {
		themes = append(themes, t.toDomain())
	}
	return domain.Branch{
		ID:         string(w.ID),
		BrandName:  w.BrandName,
		BranchName: w.BranchName,
		Address:    w.Address,
		Lat:        w.Latitude,
		Lng:        w.Longitude,
		WebsiteURL: w.WebsiteURL,
		Phone:      w.Phone,
		Themes:     themes,
	}
}

func (w wireReview) toDomain() domain.Review {
	return domain.Review{
		ID:             string(w.ID),
		ThemeID:        string(w.ThemeID),
		Nickname:       w.UserNickname,
		Difficulty:     w.PointDifficulty,
		Fear:           w.PointFear,
		Activity:       w.PointActivity,
		Recommendation: w.PointRecommendation,
		Comment:        w.Comment,
		CreatedAt:      w.CreatedAt,
	}
}

func (w wireAd) toDomain() domain.Advertisement {
	return domain.Advertisement{
		ID:           string(w.ID),
		Title:        w.Title,
		Description:  w.Description,
		ImageURL:     w.ImageURL,
		LinkURL:      w.LinkURL,
		LinkText:     w.LinkText,
		DisplayOrder: w.DisplayOrder,
	}
}

// backendID parses an id that must refer to a backend-assigned row.
// Client-assigned report ids never reach the backend.
func backendID(id string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a backend id", id)
	}
	return parsed, nil
}
