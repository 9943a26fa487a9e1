package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/jihyuk/escapemap-cli/internal/domain"
	"github.com/jihyuk/escapemap-cli/internal/gateway/location"
)

func TestReportGeocodesAndStoresPending(t *testing.T) {
	env := newTestEnv(t)
	env.location().GetFunc = func(_ context.Context, address string) (domain.Location, error) {
		if address != "123 Teheran-ro" {
			t.Fatalf("expected address passed through, got %q", address)
		}
		return domain.Location{Lat: 37.5, Lng: 127.0}, nil
	}

	code := env.run(
		"report",
		"--brand", "Secret Agent",
		"--branch", "Gangnam",
		"--address", "123 Teheran-ro",
		"--theme-name", "Vault",
		"--tags", "thriller,heist",
		"--difficulty", "8",
		"--fear", "2",
		"--activity", "6",
		"--recommendation", "9",
	)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s%s", code, env.Stdout.String(), env.Stderr.String())
	}

	state, err := env.Store.LoadEscapeData(context.Background())
	if err != nil {
		t.Fatalf("load escape data: %v", err)
	}
	if len(state.PendingBranches) != 1 {
		t.Fatalf("expected one pending branch, got %d", len(state.PendingBranches))
	}
	branch := state.PendingBranches[0]
	if !strings.HasPrefix(branch.ID, "report-") {
		t.Fatalf("expected client-assigned report id, got %q", branch.ID)
	}
	if branch.Lat != 37.5 || branch.Lng != 127.0 {
		t.Fatalf("expected geocoded coordinates, got %f,%f", branch.Lat, branch.Lng)
	}
	if len(branch.Themes) != 1 {
		t.Fatalf("expected one theme, got %d", len(branch.Themes))
	}
	theme := branch.Themes[0]
	if theme.Difficulty != 8 || theme.Fear != 2 || theme.Activity != 6 || theme.Recommendation != 9 {
		t.Fatalf("expected reported scores persisted, got %+v", theme)
	}
	if len(theme.Tags) != 2 {
		t.Fatalf("expected parsed theme tags, got %v", theme.Tags)
	}
	if len(state.Branches) != 0 {
		t.Fatalf("expected approved collection untouched, got %d", len(state.Branches))
	}
}

func TestReportRejectsOutOfRangeThemeScore(t *testing.T) {
	env := newTestEnv(t)

	code := env.run(
		"report",
		"--brand", "B",
		"--branch", "C",
		"--address", "somewhere",
		"--lat", "37.5",
		"--lng", "127.0",
		"--theme-name", "Vault",
		"--difficulty", "11",
	)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(env.Stdout.String(), "out of range") {
		t.Fatalf("expected range message, got %s", env.Stdout.String())
	}
}

func TestReportThemeClonesApprovedBranchIntoPending(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run(
		"report", "theme",
		"--branch", "1",
		"--name", "Blackout",
		"--tags", "horror",
		"--difficulty", "7",
	)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s%s", code, env.Stdout.String(), env.Stderr.String())
	}

	state, err := env.Store.LoadEscapeData(context.Background())
	if err != nil {
		t.Fatalf("load escape data: %v", err)
	}
	if len(state.PendingBranches) != 1 {
		t.Fatalf("expected one pending branch, got %d", len(state.PendingBranches))
	}
	pending := state.PendingBranches[0]
	if !strings.HasPrefix(pending.ID, "report-") {
		t.Fatalf("expected client-assigned report id, got %q", pending.ID)
	}
	if pending.BrandName != "Secret Agent" || pending.BranchName != "Gangnam" {
		t.Fatalf("expected branch details copied, got %+v", pending)
	}
	if pending.Lat != 37.5 || pending.Lng != 127.0 {
		t.Fatalf("expected coordinates copied, got %f,%f", pending.Lat, pending.Lng)
	}
	if len(pending.Themes) != 1 {
		t.Fatalf("expected only the new theme attached, got %d", len(pending.Themes))
	}
	theme := pending.Themes[0]
	if theme.Name != "Blackout" || theme.Difficulty != 7 || theme.Fear != 0 || theme.Activity != 5 {
		t.Fatalf("unexpected reported theme %+v", theme)
	}
	if len(state.Branches) != 2 {
		t.Fatalf("expected approved collection untouched, got %d", len(state.Branches))
	}
}

func TestReportThemeUnknownBranchFails(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("report", "theme", "--branch", "99", "--name", "Blackout")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(env.Stdout.String(), "not in the approved collection") {
		t.Fatalf("expected not-found message, got %s", env.Stdout.String())
	}
}

func TestReportExplicitCoordinatesSkipGeocoding(t *testing.T) {
	env := newTestEnv(t)

	code := env.run(
		"report",
		"--brand", "Keyless",
		"--branch", "Hongdae",
		"--address", "somewhere",
		"--lat", "37.55",
		"--lng", "126.92",
	)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, env.Stdout.String())
	}

	state, _ := env.Store.LoadEscapeData(context.Background())
	if len(state.PendingBranches) != 1 || state.PendingBranches[0].Lat != 37.55 {
		t.Fatalf("expected explicit coordinates stored, got %+v", state.PendingBranches)
	}
}

func TestReportAddressNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.location().GetFunc = func(_ context.Context, _ string) (domain.Location, error) {
		return domain.Location{}, location.ErrAddressNotFound
	}

	code := env.run("report", "--brand", "B", "--branch", "C", "--address", "nowhere")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(env.Stdout.String(), "no coordinates found") {
		t.Fatalf("expected not-found message, got %s", env.Stdout.String())
	}
}

func TestReportRejectsInvalidWebsite(t *testing.T) {
	env := newTestEnv(t)

	code := env.run(
		"report",
		"--brand", "B",
		"--branch", "C",
		"--address", "somewhere",
		"--lat", "37.5",
		"--lng", "127.0",
		"--website", "not a url",
	)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(env.Stdout.String(), "must be a valid URL") {
		t.Fatalf("expected validation message, got %s", env.Stdout.String())
	}
}

func TestReportRejectsHalfCoordinatePair(t *testing.T) {
	env := newTestEnv(t)

	code := env.run("report", "--brand", "B", "--branch", "C", "--address", "somewhere", "--lat", "37.5")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(env.Stdout.String(), "--lat and --lng together") {
		t.Fatalf("expected pairing message, got %s", env.Stdout.String())
	}
}
