package mapview

import (
	"math"
	"testing"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

func branchAt(id string, lat, lng float64) domain.Branch {
	return domain.Branch{ID: id, BrandName: "Brand " + id, Lat: lat, Lng: lng}
}

func TestPlanHidesEverythingBelowMinZoom(t *testing.T) {
	branches := []domain.Branch{
		branchAt("1", 37.5000, 127.0000),
		branchAt("2", 37.5001, 127.0001),
	}

	plan := Plan(branches, 12.9, DefaultConfig())
	if plan.Tier != TierHidden {
		t.Fatalf("expected hidden tier, got %q", plan.Tier)
	}
	if len(plan.Clusters) != 0 || len(plan.Markers) != 0 {
		t.Fatalf("expected no render data, got %d clusters and %d markers", len(plan.Clusters), len(plan.Markers))
	}
}

func TestPlanClustersNearbyBranchesInClusterBand(t *testing.T) {
	branches := []domain.Branch{
		branchAt("1", 37.5000, 127.0000),
		branchAt("2", 37.5001, 127.0001),
	}

	plan := Plan(branches, 14, DefaultConfig())
	if plan.Tier != TierClusters {
		t.Fatalf("expected clusters tier, got %q", plan.Tier)
	}
	if len(plan.Clusters) != 1 {
		t.Fatalf("expected one cluster, got %d", len(plan.Clusters))
	}
	cluster := plan.Clusters[0]
	if cluster.Count() != 2 {
		t.Fatalf("expected cluster of 2, got %d", cluster.Count())
	}
	if math.Abs(cluster.Lat-37.50005) > 1e-9 {
		t.Fatalf("expected centroid lat 37.50005, got %.6f", cluster.Lat)
	}
	if math.Abs(cluster.Lng-127.00005) > 1e-9 {
		t.Fatalf("expected centroid lng 127.00005, got %.6f", cluster.Lng)
	}
}

func TestPlanShowsIndividualMarkersAtClusterZoom(t *testing.T) {
	branches := []domain.Branch{
		branchAt("1", 37.5000, 127.0000),
		branchAt("2", 37.5001, 127.0001),
	}

	plan := Plan(branches, 17, DefaultConfig())
	if plan.Tier != TierMarkers {
		t.Fatalf("expected markers tier, got %q", plan.Tier)
	}
	if len(plan.Markers) != 2 {
		t.Fatalf("expected two markers, got %d", len(plan.Markers))
	}
}

func TestClusterBranchesKeepsDistantBranchesApart(t *testing.T) {
	branches := []domain.Branch{
		branchAt("1", 37.50, 127.00),
		branchAt("2", 37.60, 127.10),
	}

	clusters := ClusterBranches(branches, 0.05)
	if len(clusters) != 2 {
		t.Fatalf("expected two clusters, got %d", len(clusters))
	}
	for _, cluster := range clusters {
		if cluster.Count() != 1 {
			t.Fatalf("expected singleton clusters, got %d members", cluster.Count())
		}
	}
}

func TestClusterBranchesCentroidIsRunningMean(t *testing.T) {
	branches := []domain.Branch{
		branchAt("1", 37.500, 127.000),
		branchAt("2", 37.504, 127.000),
		branchAt("3", 37.508, 127.000),
	}

	clusters := ClusterBranches(branches, 0.05)
	if len(clusters) != 1 {
		t.Fatalf("expected one cluster, got %d", len(clusters))
	}
	if math.Abs(clusters[0].Lat-37.504) > 1e-9 {
		t.Fatalf("expected centroid lat 37.504, got %.6f", clusters[0].Lat)
	}
}

func TestClusterBranchesMeasuresDistanceToRunningCentroid(t *testing.T) {
	// Branch 3 is within 0.05 of the seed but not of the centroid after
	// branch 2 is absorbed, so it seeds its own cluster.
	branches := []domain.Branch{
		branchAt("1", 37.500, 127.000),
		branchAt("2", 37.452, 127.000),
		branchAt("3", 37.540, 127.000),
	}

	clusters := ClusterBranches(branches, 0.05)
	if len(clusters) != 2 {
		t.Fatalf("expected two clusters, got %d", len(clusters))
	}
	if clusters[0].Count() != 2 {
		t.Fatalf("expected first cluster of 2, got %d", clusters[0].Count())
	}
	if clusters[1].Count() != 1 {
		t.Fatalf("expected second cluster of 1, got %d", clusters[1].Count())
	}
}

func TestClusterBranchesEmptyInput(t *testing.T) {
	clusters := ClusterBranches(nil, 0.05)
	if len(clusters) != 0 {
		t.Fatalf("expected no clusters, got %d", len(clusters))
	}
}
