package escape

import (
	"context"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

// API describes all directory backend operations used by the CLI.
type API interface {
	Branches(ctx context.Context) ([]domain.Branch, error)
	BranchByID(ctx context.Context, id string) (*domain.Branch, error)
	CreateBranch(ctx context.Context, in CreateBranchInput) (*domain.Branch, error)
	DeleteBranch(ctx context.Context, id string) error

	Themes(ctx context.Context) ([]domain.ThemeDisplay, error)
	ThemeByID(ctx context.Context, id string) (*domain.Theme, error)
	ThemesByBranch(ctx context.Context, branchID string) ([]domain.Theme, error)

	ReviewsByTheme(ctx context.Context, themeID string) ([]domain.Review, error)
	CreateReview(ctx context.Context, in CreateReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, id string) error

	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)

	Advertisements(ctx context.Context) ([]domain.Advertisement, error)
}

// CreateBranchInput is the payload for registering a branch with the backend.
type CreateBranchInput struct {
	BrandName  string
	BranchName string
	Address    string
	Lat        float64
	Lng        float64
	WebsiteURL string
	Phone      string
	Themes     []domain.Theme
}

// CreateReviewInput is the payload for submitting a review.
type CreateReviewInput struct {
	ThemeID        string
	Nickname       string
	Difficulty     int
	Fear           int
	Activity       int
	Recommendation int
	Comment        string
}

// RegisterInput is the payload for account registration.
type RegisterInput struct {
	Email    string
	Password string
	Nickname string
}

// LoginInput is the payload for login.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult stores the backend auth response.
type AuthResult struct {
	Token    string `json:"token"`
	Nickname string `json:"nickname"`
}
