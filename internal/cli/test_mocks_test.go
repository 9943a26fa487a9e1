package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/jihyuk/escapemap-cli/internal/config"
	"github.com/jihyuk/escapemap-cli/internal/domain"
	escapegateway "github.com/jihyuk/escapemap-cli/internal/gateway/escape"
)

type mockEscapeAPI struct {
	BranchesFunc       func(ctx context.Context) ([]domain.Branch, error)
	BranchByIDFunc     func(ctx context.Context, id string) (*domain.Branch, error)
	CreateBranchFunc   func(ctx context.Context, in escapegateway.CreateBranchInput) (*domain.Branch, error)
	DeleteBranchFunc   func(ctx context.Context, id string) error
	ThemesFunc         func(ctx context.Context) ([]domain.ThemeDisplay, error)
	ThemeByIDFunc      func(ctx context.Context, id string) (*domain.Theme, error)
	ThemesByBranchFunc func(ctx context.Context, branchID string) ([]domain.Theme, error)
	ReviewsByThemeFunc func(ctx context.Context, themeID string) ([]domain.Review, error)
	CreateReviewFunc   func(ctx context.Context, in escapegateway.CreateReviewInput) (*domain.Review, error)
	DeleteReviewFunc   func(ctx context.Context, id string) error
	RegisterFunc       func(ctx context.Context, in escapegateway.RegisterInput) (*escapegateway.AuthResult, error)
	LoginFunc          func(ctx context.Context, in escapegateway.LoginInput) (*escapegateway.AuthResult, error)
	AdvertisementsFunc func(ctx context.Context) ([]domain.Advertisement, error)
}

func (m *mockEscapeAPI) Branches(ctx context.Context) ([]domain.Branch, error) {
	if m.BranchesFunc == nil {
		return nil, fmt.Errorf("unexpected Branches call")
	}
	return m.BranchesFunc(ctx)
}

func (m *mockEscapeAPI) BranchByID(ctx context.Context, id string) (*domain.Branch, error) {
	if m.BranchByIDFunc == nil {
		return nil, fmt.Errorf("unexpected BranchByID call")
	}
	return m.BranchByIDFunc(ctx, id)
}

func (m *mockEscapeAPI) CreateBranch(ctx context.Context, in escapegateway.CreateBranchInput) (*domain.Branch, error) {
	if m.CreateBranchFunc == nil {
		return nil, fmt.Errorf("unexpected CreateBranch call")
	}
	return m.CreateBranchFunc(ctx, in)
}

func (m *mockEscapeAPI) DeleteBranch(ctx context.Context, id string) error {
	if m.DeleteBranchFunc == nil {
		return fmt.Errorf("unexpected DeleteBranch call")
	}
	return m.DeleteBranchFunc(ctx, id)
}

func (m *mockEscapeAPI) Themes(ctx context.Context) ([]domain.ThemeDisplay, error) {
	if m.ThemesFunc == nil {
		return nil, fmt.Errorf("unexpected Themes call")
	}
	return m.ThemesFunc(ctx)
}

func (m *mockEscapeAPI) ThemeByID(ctx context.Context, id string) (*domain.Theme, error) {
	if m.ThemeByIDFunc == nil {
		return nil, fmt.Errorf("unexpected ThemeByID call")
	}
	return m.ThemeByIDFunc(ctx, id)
}

func (m *mockEscapeAPI) ThemesByBranch(ctx context.Context, branchID string) ([]domain.Theme, error) {
	if m.ThemesByBranchFunc == nil {
		return nil, fmt.Errorf("unexpected ThemesByBranch call")
	}
	return m.ThemesByBranchFunc(ctx, branchID)
}

func (m *mockEscapeAPI) ReviewsByTheme(ctx context.Context, themeID string) ([]domain.Review, error) {
	if m.ReviewsByThemeFunc == nil {
		return nil, fmt.Errorf("unexpected ReviewsByTheme call")
	}
	return m.ReviewsByThemeFunc(ctx, themeID)
}

func (m *mockEscapeAPI) CreateReview(ctx context.Context, in escapegateway.CreateReviewInput) (*domain.Review, error) {
	if m.CreateReviewFunc == nil {
		return nil, fmt.Errorf("unexpected CreateReview call")
	}
	return m.CreateReviewFunc(ctx, in)
}

func (m *mockEscapeAPI) DeleteReview(ctx context.Context, id string) error {
	if m.DeleteReviewFunc == nil {
		return fmt.Errorf("unexpected DeleteReview call")
	}
	return m.DeleteReviewFunc(ctx, id)
}

func (m *mockEscapeAPI) Register(ctx context.Context, in escapegateway.RegisterInput) (*escapegateway.AuthResult, error) {
	if m.RegisterFunc == nil {
		return nil, fmt.Errorf("unexpected Register call")
	}
	return m.RegisterFunc(ctx, in)
}

func (m *mockEscapeAPI) Login(ctx context.Context, in escapegateway.LoginInput) (*escapegateway.AuthResult, error) {
	if m.LoginFunc == nil {
		return nil, fmt.Errorf("unexpected Login call")
	}
	return m.LoginFunc(ctx, in)
}

func (m *mockEscapeAPI) Advertisements(ctx context.Context) ([]domain.Advertisement, error) {
	if m.AdvertisementsFunc == nil {
		return nil, fmt.Errorf("unexpected Advertisements call")
	}
	return m.AdvertisementsFunc(ctx)
}

type mockLocationResolver struct {
	GetFunc func(ctx context.Context, address string) (domain.Location, error)
}

func (m *mockLocationResolver) Get(ctx context.Context, address string) (domain.Location, error) {
	if m.GetFunc == nil {
		return domain.Location{}, fmt.Errorf("unexpected Get call")
	}
	return m.GetFunc(ctx, address)
}

type testEnv struct {
	Deps   Dependencies
	Store  *config.Store
	Stdout *bytes.Buffer
	Stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := config.NewStoreAt(t.TempDir())
	return &testEnv{
		Deps: Dependencies{
			Escape:   &mockEscapeAPI{},
			Location: &mockLocationResolver{},
			State:    store,
			Version:  "test",
		},
		Store:  store,
		Stdout: &bytes.Buffer{},
		Stderr: &bytes.Buffer{},
	}
}

func (env *testEnv) run(args ...string) int {
	return Execute(context.Background(), args, env.Deps, env.Stdout, env.Stderr)
}

func (env *testEnv) escape() *mockEscapeAPI {
	return env.Deps.Escape.(*mockEscapeAPI)
}

func (env *testEnv) location() *mockLocationResolver {
	return env.Deps.Location.(*mockLocationResolver)
}

func (env *testEnv) seedEscapeData(t *testing.T, state domain.EscapeState) {
	t.Helper()
	if err := env.Store.SaveEscapeData(context.Background(), state); err != nil {
		t.Fatalf("seed escape data: %v", err)
	}
}

func (env *testEnv) seedUser(t *testing.T, user domain.UserState) {
	t.Helper()
	if err := env.Store.SaveUser(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func (env *testEnv) seedFavorites(t *testing.T, favorites domain.FavoriteState) {
	t.Helper()
	if err := env.Store.SaveFavorites(context.Background(), favorites); err != nil {
		t.Fatalf("seed favorites: %v", err)
	}
}
