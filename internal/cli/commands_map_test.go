package cli

import (
	"testing"
)

func TestMapHiddenBelowMinZoom(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("map", "--zoom", "12", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	if data["tier"] != "hidden" {
		t.Fatalf("expected hidden tier, got %v", data["tier"])
	}
}

func TestMapClustersInClusterBand(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("map", "--zoom", "14", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	if data["tier"] != "clusters" {
		t.Fatalf("expected clusters tier, got %v", data["tier"])
	}
	clusters, _ := data["clusters"].([]any)
	if len(clusters) == 0 {
		t.Fatal("expected cluster rows")
	}
}

func TestMapMarkersAtHighZoom(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("map", "--zoom", "17", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	if data["tier"] != "markers" {
		t.Fatalf("expected markers tier, got %v", data["tier"])
	}
	markers, _ := data["markers"].([]any)
	if len(markers) != 2 {
		t.Fatalf("expected one marker per branch, got %d", len(markers))
	}
}

func TestMapSearchNarrowsMarkers(t *testing.T) {
	env := newTestEnv(t)
	seedTwoBranches(t, env)

	code := env.run("map", "--zoom", "17", "--search", "asylum", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	data, _ := decodeEnvelope(t, env.Stdout.String())["data"].(map[string]any)
	markers, _ := data["markers"].([]any)
	if len(markers) != 1 {
		t.Fatalf("expected one matching branch, got %d", len(markers))
	}
	marker, _ := markers[0].(map[string]any)
	if marker["id"] != "2" {
		t.Fatalf("expected the branch carrying the matching theme, got %v", marker["id"])
	}
}

func TestMapRequiresZoomFlag(t *testing.T) {
	env := newTestEnv(t)

	code := env.run("map")
	if code != 1 {
		t.Fatalf("expected exit 1 for missing required flag, got %d", code)
	}
}
