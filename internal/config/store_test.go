package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

func TestLoadUserDefaultsWhenMissing(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	user, err := store.LoadUser(context.Background())
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if user.Nickname != "Escaper" {
		t.Fatalf("expected default nickname, got %q", user.Nickname)
	}
	if !user.NotificationsEnabled {
		t.Fatal("expected notifications enabled by default")
	}
	if user.IsAdmin {
		t.Fatal("expected admin off by default")
	}
}

func TestUserRoundTrip(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	ctx := context.Background()

	saved := domain.UserState{
		Nickname:             "Jihyuk",
		NotificationsEnabled: false,
		IsAdmin:              true,
		AuthToken:            "token-123",
	}
	if err := store.SaveUser(ctx, saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := store.LoadUser(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != saved {
		t.Fatalf("expected %+v, got %+v", saved, loaded)
	}
}

func TestLoadFavoritesMissingIsEmpty(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	favorites, err := store.LoadFavorites(context.Background())
	if err != nil {
		t.Fatalf("expected empty state for missing file, got %v", err)
	}
	if len(favorites.Favorites) != 0 {
		t.Fatalf("expected no favorites, got %v", favorites.Favorites)
	}
}

func TestEscapeDataRoundTrip(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	ctx := context.Background()

	saved := domain.EscapeState{
		Branches: []domain.Branch{{ID: "1", BrandName: "Secret Agent"}},
		PendingBranches: []domain.Branch{
			{ID: "report-1", BrandName: "Keyless"},
		},
	}
	if err := store.SaveEscapeData(ctx, saved); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := store.LoadEscapeData(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Branches) != 1 || loaded.Branches[0].ID != "1" {
		t.Fatalf("expected approved branch restored, got %+v", loaded.Branches)
	}
	if len(loaded.PendingBranches) != 1 || loaded.PendingBranches[0].ID != "report-1" {
		t.Fatalf("expected pending branch restored, got %+v", loaded.PendingBranches)
	}
}

func TestLoadRejectsMalformedPayload(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreAt(dir)
	if err := os.WriteFile(filepath.Join(dir, "user-storage.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := store.LoadUser(context.Background())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestNewStoreHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ESCAPEMAP_STATE_DIR", dir)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("expected store, got %v", err)
	}
	if store.Dir() != dir {
		t.Fatalf("expected dir %q, got %q", dir, store.Dir())
	}
}

func TestMergeFetchedReplacesApprovedKeepsPending(t *testing.T) {
	persisted := domain.EscapeState{
		Branches:        []domain.Branch{{ID: "1", BrandName: "Stale"}},
		PendingBranches: []domain.Branch{{ID: "report-1", BrandName: "Reported"}},
	}
	fetched := []domain.Branch{{ID: "2", BrandName: "Fresh"}}

	merged := MergeFetched(persisted, fetched)
	if len(merged.Branches) != 1 || merged.Branches[0].ID != "2" {
		t.Fatalf("expected fetched approved set, got %+v", merged.Branches)
	}
	if len(merged.PendingBranches) != 1 || merged.PendingBranches[0].ID != "report-1" {
		t.Fatalf("expected pending carried over, got %+v", merged.PendingBranches)
	}
}
