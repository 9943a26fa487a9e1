package mapview

import (
	"math"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

// Tier selects what the map renders for a given zoom level.
type Tier string

const (
	// TierHidden renders nothing (zoomed out too far).
	TierHidden Tier = "hidden"
	// TierClusters renders grouped cluster markers.
	TierClusters Tier = "clusters"
	// TierMarkers renders one marker per branch.
	TierMarkers Tier = "markers"
)

// Config stores the zoom thresholds and grouping distance.
type Config struct {
	// MinZoomToShow hides all markers below this zoom.
	MinZoomToShow float64
	// ClusterZoom switches from clusters to individual markers at this zoom.
	ClusterZoom float64
	// Distance is the grouping radius in raw coordinate degrees.
	Distance float64
}

// DefaultConfig returns the thresholds used by the map view.
func DefaultConfig() Config {
	return Config{
		MinZoomToShow: 13,
		ClusterZoom:   16,
		Distance:      0.05,
	}
}

// Cluster groups nearby branches under a shared centroid.
type Cluster struct {
	Lat      float64         `json:"lat"`
	Lng      float64         `json:"lng"`
	Branches []domain.Branch `json:"branches"`
}

// Count returns the number of branches in the cluster.
func (c Cluster) Count() int {
	return len(c.Branches)
}

// RenderPlan is the render instruction for one zoom level.
type RenderPlan struct {
	Tier     Tier            `json:"tier"`
	Clusters []Cluster       `json:"clusters,omitempty"`
	Markers  []domain.Branch `json:"markers,omitempty"`
}

// Plan decides the render tier for the given zoom and, in the cluster band,
// groups branches with ClusterBranches. Output is deterministic for a fixed
// branch order; a different input order may produce different clusters.
func Plan(branches []domain.Branch, zoom float64, cfg Config) RenderPlan {
	switch {
	case zoom < cfg.MinZoomToShow:
		return RenderPlan{Tier: TierHidden}
	case zoom < cfg.ClusterZoom:
		return RenderPlan{Tier: TierClusters, Clusters: ClusterBranches(branches, cfg.Distance)}
	default:
		return RenderPlan{Tier: TierMarkers, Markers: branches}
	}
}

// ClusterBranches groups branches with a single greedy pass. Each unassigned
// branch seeds a cluster at its own coordinate; remaining unassigned branches
// are absorbed when their degree-space Euclidean distance to the running
// centroid is below distance, and the centroid is updated as the incremental
// running mean of the absorbed coordinates. Clusters are never merged with
// each other. O(n^2), acceptable for a city-scale directory.
func ClusterBranches(branches []domain.Branch, distance float64) []Cluster {
	clusters := make([]Cluster, 0, len(branches))
	assigned := make(map[string]bool, len(branches))

	for i, seed := range branches {
		if assigned[seed.ID] {
			continue
		}
		assigned[seed.ID] = true

		cluster := Cluster{
			Lat:      seed.Lat,
			Lng:      seed.Lng,
			Branches: []domain.Branch{seed},
		}

		for _, other := range branches[i+1:] {
			if assigned[other.ID] {
				continue
			}
			dist := math.Hypot(cluster.Lat-other.Lat, cluster.Lng-other.Lng)
			if dist >= distance {
				continue
			}
			n := float64(len(cluster.Branches))
			cluster.Lat = (cluster.Lat*n + other.Lat) / (n + 1)
			cluster.Lng = (cluster.Lng*n + other.Lng) / (n + 1)
			cluster.Branches = append(cluster.Branches, other)
			assigned[other.ID] = true
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}
