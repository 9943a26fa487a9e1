package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/domain"
	"github.com/jihyuk/escapemap-cli/internal/service/mapview"
	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

func newMapCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var zoom float64
	var search string
	var refresh bool
	cfg := mapview.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Render the marker plan for the approved branches at a zoom level.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMap(cmd, deps, flags, zoom, search, refresh, cfg)
		},
	}

	cmd.Flags().Float64Var(&zoom, "zoom", 0, "Map zoom level to plan markers for.")
	cmd.Flags().StringVar(&search, "search", "", "Only plan branches whose brand, branch, or theme names contain this text.")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the approved branches from the backend before planning.")
	cmd.Flags().Float64Var(&cfg.MinZoomToShow, "min-zoom", cfg.MinZoomToShow, "Zoom level below which nothing renders.")
	cmd.Flags().Float64Var(&cfg.ClusterZoom, "cluster-zoom", cfg.ClusterZoom, "Zoom level at which clusters give way to individual markers.")
	cmd.Flags().Float64Var(&cfg.Distance, "distance", cfg.Distance, "Cluster absorption distance in coordinate degrees.")
	addGlobalFlags(cmd, &flags)
	_ = cmd.MarkFlagRequired("zoom")
	return cmd
}

func runMap(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	zoom float64,
	search string,
	refresh bool,
	cfg mapview.Config,
) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "map", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}
	if refresh {
		if err := syncBranches(cmd.Context(), deps, session); err != nil {
			return emitUpstreamError(cmd, format, "map", flags.Output, flags.Verbose, err)
		}
	}

	branches := searchBranches(session.Store.Branches(), search)
	plan := mapview.Plan(branches, zoom, cfg)

	clusters := make([]map[string]any, 0, len(plan.Clusters))
	for _, cluster := range plan.Clusters {
		clusters = append(clusters, map[string]any{
			"lat":   cluster.Lat,
			"lng":   cluster.Lng,
			"count": cluster.Count(),
		})
	}
	markers := make([]map[string]any, 0, len(plan.Markers))
	for _, branch := range plan.Markers {
		markers = append(markers, map[string]any{
			"id":          branch.ID,
			"brand_name":  branch.BrandName,
			"branch_name": branch.BranchName,
			"lat":         branch.Lat,
			"lng":         branch.Lng,
			"themes":      len(branch.Themes),
		})
	}
	data := map[string]any{
		"zoom":     zoom,
		"tier":     string(plan.Tier),
		"clusters": clusters,
		"markers":  markers,
	}

	if format == output.FormatTable {
		return writeTable(cmd, buildMapTable(plan), flags.Output)
	}
	env := output.BuildEnvelope("map", data, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func searchBranches(branches []domain.Branch, search string) []domain.Branch {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return branches
	}
	matched := make([]domain.Branch, 0, len(branches))
	for _, branch := range branches {
		if branchMatches(branch, needle) {
			matched = append(matched, branch)
		}
	}
	return matched
}

func branchMatches(branch domain.Branch, needle string) bool {
	if strings.Contains(strings.ToLower(branch.BrandName), needle) ||
		strings.Contains(strings.ToLower(branch.BranchName), needle) {
		return true
	}
	for _, theme := range branch.Themes {
		if strings.Contains(strings.ToLower(theme.Name), needle) {
			return true
		}
	}
	return false
}

func buildMapTable(plan mapview.RenderPlan) string {
	switch plan.Tier {
	case mapview.TierClusters:
		rows := [][]string{}
		for _, cluster := range plan.Clusters {
			rows = append(rows, []string{
				formatCoordinate(cluster.Lat),
				formatCoordinate(cluster.Lng),
				formatScore(cluster.Count()),
			})
		}
		if len(rows) == 0 {
			rows = append(rows, []string{"-", "-", "-"})
		}
		return output.RenderTable("Clusters", []string{"Lat", "Lng", "Branches"}, rows)
	case mapview.TierMarkers:
		rows := [][]string{}
		for _, branch := range plan.Markers {
			rows = append(rows, []string{
				fallbackString(branch.BrandName, "-"),
				fallbackString(branch.BranchName, "-"),
				formatCoordinate(branch.Lat),
				formatCoordinate(branch.Lng),
				formatScore(len(branch.Themes)),
			})
		}
		if len(rows) == 0 {
			rows = append(rows, []string{"-", "-", "-", "-", "-"})
		}
		return output.RenderTable("Markers", []string{"Brand", "Branch", "Lat", "Lng", "Themes"}, rows)
	default:
		return "Nothing to render below the minimum zoom level."
	}
}
