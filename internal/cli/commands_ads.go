package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

func newAdsCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "ads",
		Short: "List active advertisements in display order.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAds(cmd, deps, flags)
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func runAds(cmd *cobra.Command, deps Dependencies, flags globalFlags) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	ads, err := deps.Escape.Advertisements(cmd.Context())
	if err != nil {
		return emitUpstreamError(cmd, format, "ads", flags.Output, flags.Verbose, err)
	}
	sort.SliceStable(ads, func(i, j int) bool {
		return ads[i].DisplayOrder < ads[j].DisplayOrder
	})

	if format == output.FormatTable {
		headers := []string{"ID", "Title", "Link", "Order"}
		rows := [][]string{}
		for _, ad := range ads {
			rows = append(rows, []string{
				ad.ID,
				fallbackString(ad.Title, "-"),
				fallbackString(ad.LinkURL, "-"),
				formatScore(ad.DisplayOrder),
			})
		}
		if len(rows) == 0 {
			rows = append(rows, []string{"-", "-", "-", "-"})
		}
		return writeTable(cmd, output.RenderTable("Advertisements", headers, rows), flags.Output)
	}
	env := output.BuildEnvelope("ads", map[string]any{
		"advertisements": ads,
		"count":          len(ads),
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}
