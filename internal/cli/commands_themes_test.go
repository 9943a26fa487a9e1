package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

func seedTwoBranches(t *testing.T, env *testEnv) {
	t.Helper()
	env.seedEscapeData(t, domain.EscapeState{
		Branches: []domain.Branch{
			{
				ID:         "1",
				BrandName:  "Secret Agent",
				BranchName: "Gangnam",
				Lat:        37.5,
				Lng:        127.0,
				Themes: []domain.Theme{
					{ID: "t1", Name: "Vault", Difficulty: 8, Tags: []string{"thriller"}},
					{ID: "t2", Name: "Casino", Difficulty: 5, Tags: []string{"heist"}},
				},
			},
			{
				ID:         "2",
				BrandName:  "Keyless",
				BranchName: "Hongdae",
				Lat:        37.55,
				Lng:        126.92,
				Themes: []domain.Theme{
					{ID: "t3", Name: "Asylum", Difficulty: 9, Tags: []string{"horror"}},
				},
			},
		},
	})
}

func decodeEnvelope(t *testing.T, raw string) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("decode envelope: %v\n%s", err, raw)
	}
	return env
}

func TestThemesListsAllThemes(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("themes", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, env.Stderr.String())
	}
	payload := decodeEnvelope(t, env.Stdout.String())
	data, _ := payload["data"].(map[string]any)
	if data["count"] != float64(3) {
		t.Fatalf("expected three themes, got %v", data["count"])
	}
}

func TestThemesFiltersByTag(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("themes", "--tag", "horror", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	themes, _ := data["themes"].([]any)
	if len(themes) != 1 {
		t.Fatalf("expected one horror theme, got %d", len(themes))
	}
	theme, _ := themes[0].(map[string]any)
	if theme["id"] != "t3" {
		t.Fatalf("expected t3, got %v", theme["id"])
	}
}

func TestThemesSortsByDifficultyDescending(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("themes", "--sort", "difficulty", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	themes, _ := data["themes"].([]any)
	first, _ := themes[0].(map[string]any)
	if first["id"] != "t3" {
		t.Fatalf("expected hardest theme first, got %v", first["id"])
	}
}

func TestThemesRejectsUnknownSortKey(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("themes", "--sort", "price")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(env.Stdout.String(), "unsupported sort key") {
		t.Fatalf("expected sort key message, got %s", env.Stdout.String())
	}
}

func TestThemesFiltersByScoreBounds(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("themes", "--min-difficulty", "6", "--max-difficulty", "8", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	themes, _ := data["themes"].([]any)
	if len(themes) != 1 {
		t.Fatalf("expected one theme in the 6..8 band, got %d", len(themes))
	}
	theme, _ := themes[0].(map[string]any)
	if theme["id"] != "t1" {
		t.Fatalf("expected t1, got %v", theme["id"])
	}
}

func TestThemesShowFallsBackToBackendForNumericID(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)
	env.escape().ThemesFunc = func(_ context.Context) ([]domain.ThemeDisplay, error) {
		return []domain.ThemeDisplay{
			{
				Theme:      domain.Theme{ID: "44", Name: "Blackout"},
				BranchID:   "9",
				BrandName:  "Fresh",
				BranchName: "Mapo",
			},
		}, nil
	}

	code := env.run("themes", "show", "44", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, env.Stdout.String())
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	if data["name"] != "Blackout" {
		t.Fatalf("expected backend theme, got %v", data)
	}
}

func TestThemesShowUnknownIDFails(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("themes", "show", "missing")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(env.Stdout.String(), "not in the approved collection") {
		t.Fatalf("expected not-found message, got %s", env.Stdout.String())
	}
}

func TestThemesRefreshPullsFromBackend(t *testing.T) {
	env := newTestEnv(t)
	env.escape().BranchesFunc = func(_ context.Context) ([]domain.Branch, error) {
		return []domain.Branch{
			{ID: "9", BrandName: "Fresh", Themes: []domain.Theme{{ID: "t9", Name: "New Room"}}},
		}, nil
	}

	code := env.run("themes", "--refresh", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, env.Stderr.String())
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	if data["count"] != float64(1) {
		t.Fatalf("expected the fetched theme, got %v", data["count"])
	}
}
