package domain

import (
	"math"
	"time"
)

// Review stores a user review of a theme. Reviews are immutable after
// creation; deletion is the only update operation.
type Review struct {
	ID       string `json:"id"`
	ThemeID  string `json:"theme_id"`
	Nickname string `json:"nickname"`

	Difficulty     int `json:"difficulty"`
	Fear           int `json:"fear"`
	Activity       int `json:"activity"`
	Recommendation int `json:"recommendation"`

	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreAverages stores per-theme mean review scores.
type ScoreAverages struct {
	Difficulty     float64 `json:"difficulty"`
	Fear           float64 `json:"fear"`
	Activity       float64 `json:"activity"`
	Recommendation float64 `json:"recommendation"`
	Count          int     `json:"count"`
}

// AverageScores folds reviews into mean scores rounded to one decimal.
// Returns a zero value with Count 0 when reviews is empty.
func AverageScores(reviews []Review) ScoreAverages {
	if len(reviews) == 0 {
		return ScoreAverages{}
	}
	var sum ScoreAverages
	for _, r := range reviews {
		sum.Difficulty += float64(r.Difficulty)
		sum.Fear += float64(r.Fear)
		sum.Activity += float64(r.Activity)
		sum.Recommendation += float64(r.Recommendation)
	}
	n := float64(len(reviews))
	round1 := func(v float64) float64 {
		return math.Round(v/n*10) / 10
	}
	return ScoreAverages{
		Difficulty:     round1(sum.Difficulty),
		Fear:           round1(sum.Fear),
		Activity:       round1(sum.Activity),
		Recommendation: round1(sum.Recommendation),
		Count:          len(reviews),
	}
}
