package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/domain"
	"github.com/jihyuk/escapemap-cli/internal/service/moderation"
	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

type themeFilters struct {
	Tag    string
	Brand  string
	Branch string
	Search string

	MinDifficulty     int
	MaxDifficulty     int
	MinFear           int
	MaxFear           int
	MinActivity       int
	MaxActivity       int
	MinRecommendation int
	MaxRecommendation int
}

func defaultThemeFilters() themeFilters {
	return themeFilters{
		MaxDifficulty:     10,
		MaxFear:           10,
		MaxActivity:       10,
		MaxRecommendation: 10,
	}
}

func newThemesCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	filters := defaultThemeFilters()
	var sortKey string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List escape room themes across the approved branches.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runThemesList(cmd, deps, flags, filters, sortKey, refresh)
		},
	}

	cmd.Flags().StringVar(&filters.Tag, "tag", "", "Only show themes carrying any of these comma-separated tags.")
	cmd.Flags().StringVar(&filters.Brand, "brand", "", "Only show themes whose brand name contains this text.")
	cmd.Flags().StringVar(&filters.Branch, "branch", "", "Only show themes belonging to this branch id.")
	cmd.Flags().StringVar(&filters.Search, "search", "", "Only show themes whose name or description contains this text.")
	cmd.Flags().IntVar(&filters.MinDifficulty, "min-difficulty", 0, "Lower difficulty bound.")
	cmd.Flags().IntVar(&filters.MaxDifficulty, "max-difficulty", 10, "Upper difficulty bound.")
	cmd.Flags().IntVar(&filters.MinFear, "min-fear", 0, "Lower fear bound.")
	cmd.Flags().IntVar(&filters.MaxFear, "max-fear", 10, "Upper fear bound.")
	cmd.Flags().IntVar(&filters.MinActivity, "min-activity", 0, "Lower activity bound.")
	cmd.Flags().IntVar(&filters.MaxActivity, "max-activity", 10, "Upper activity bound.")
	cmd.Flags().IntVar(&filters.MinRecommendation, "min-recommendation", 0, "Lower recommendation bound.")
	cmd.Flags().IntVar(&filters.MaxRecommendation, "max-recommendation", 10, "Upper recommendation bound.")
	cmd.Flags().StringVar(&sortKey, "sort", "", "Sort by: name, difficulty, fear, activity, or recommendation.")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the approved branches from the backend before listing.")
	addGlobalFlags(cmd, &flags)

	cmd.AddCommand(newThemesShowCommand(deps))
	return cmd
}

func newThemesShowCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "show <theme-id>",
		Short: "Show one theme with its branch details.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemesShow(cmd, deps, flags, args[0])
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func runThemesList(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	filters themeFilters,
	sortKey string,
	refresh bool,
) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "themes", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}
	if refresh {
		if err := syncBranches(cmd.Context(), deps, session); err != nil {
			return emitUpstreamError(cmd, format, "themes", flags.Output, flags.Verbose, err)
		}
	}

	themes := filterThemes(session.Store.AllThemes(), filters)
	if err := sortThemes(themes, sortKey); err != nil {
		return emitError(cmd, format, "themes", flags.Output, "ESCAPE_INVALID_ARGUMENT", err.Error())
	}

	if format == output.FormatTable {
		return writeTable(cmd, buildThemesTable(themes, session.Store), flags.Output)
	}
	env := output.BuildEnvelope("themes", map[string]any{
		"themes": themeRows(themes, session.Store),
		"count":  len(themes),
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runThemesShow(cmd *cobra.Command, deps Dependencies, flags globalFlags, themeID string) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "themes", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	id := strings.TrimSpace(themeID)
	theme, ok := session.Store.ThemeByID(id)
	if !ok && isBackendID(id) {
		theme, ok, err = fetchThemeDisplay(cmd.Context(), deps, id)
		if err != nil {
			return emitUpstreamError(cmd, format, "themes", flags.Output, flags.Verbose, err)
		}
	}
	if !ok {
		return emitError(cmd, format, "themes", flags.Output, "ESCAPE_THEME_NOT_FOUND", fmt.Sprintf("theme %q is not in the approved collection", themeID))
	}

	if format == output.FormatTable {
		rows := [][]string{
			{"Theme", fallbackString(theme.Name, "-")},
			{"Brand", fallbackString(theme.BrandName, "-")},
			{"Branch", fallbackString(theme.BranchName, "-")},
			{"Address", fallbackString(theme.Address, "-")},
			{"Website", fallbackString(theme.WebsiteURL, "-")},
			{"Difficulty", formatScore(theme.Difficulty)},
			{"Fear", formatScore(theme.Fear)},
			{"Activity", formatScore(theme.Activity)},
			{"Recommendation", formatScore(theme.Recommendation)},
			{"Tags", fallbackString(strings.Join(theme.Tags, ", "), "-")},
			{"Favorite", boolToYesNo(session.Store.IsFavorite(theme.ID))},
			{"Description", fallbackString(theme.Description, "-")},
		}
		return writeTable(cmd, output.RenderTable("Theme "+theme.ID, []string{"Field", "Value"}, rows), flags.Output)
	}
	env := output.BuildEnvelope("themes", themeRow(theme, session.Store), nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

// fetchThemeDisplay looks a theme up on the backend when the local approved
// collection has no entry for it.
func fetchThemeDisplay(ctx context.Context, deps Dependencies, id string) (domain.ThemeDisplay, bool, error) {
	themes, err := deps.Escape.Themes(ctx)
	if err != nil {
		return domain.ThemeDisplay{}, false, err
	}
	for _, theme := range themes {
		if theme.ID == id {
			return theme, true, nil
		}
	}
	return domain.ThemeDisplay{}, false, nil
}

func filterThemes(themes []domain.ThemeDisplay, filters themeFilters) []domain.ThemeDisplay {
	tags := splitCSV(filters.Tag)
	brand := strings.ToLower(strings.TrimSpace(filters.Brand))
	branchID := strings.TrimSpace(filters.Branch)
	needle := strings.ToLower(strings.TrimSpace(filters.Search))

	filtered := make([]domain.ThemeDisplay, 0, len(themes))
	for _, theme := range themes {
		if len(tags) > 0 && !themeHasAnyTag(theme, tags) {
			continue
		}
		if brand != "" && !strings.Contains(strings.ToLower(theme.BrandName), brand) {
			continue
		}
		if branchID != "" && theme.BranchID != branchID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(theme.Name), needle) &&
			!strings.Contains(strings.ToLower(theme.Description), needle) {
			continue
		}
		if !scoreWithin(theme.Difficulty, filters.MinDifficulty, filters.MaxDifficulty) ||
			!scoreWithin(theme.Fear, filters.MinFear, filters.MaxFear) ||
			!scoreWithin(theme.Activity, filters.MinActivity, filters.MaxActivity) ||
			!scoreWithin(theme.Recommendation, filters.MinRecommendation, filters.MaxRecommendation) {
			continue
		}
		filtered = append(filtered, theme)
	}
	return filtered
}

func scoreWithin(value, lower, upper int) bool {
	return value >= lower && value <= upper
}

func themeHasAnyTag(theme domain.ThemeDisplay, wanted map[string]struct{}) bool {
	for _, tag := range theme.Tags {
		if _, ok := wanted[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return true
		}
	}
	return false
}

func sortThemes(themes []domain.ThemeDisplay, sortKey string) error {
	key := strings.ToLower(strings.TrimSpace(sortKey))
	var less func(a, b domain.ThemeDisplay) bool
	switch key {
	case "":
		return nil
	case "name":
		less = func(a, b domain.ThemeDisplay) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case "difficulty":
		less = func(a, b domain.ThemeDisplay) bool { return a.Difficulty > b.Difficulty }
	case "fear":
		less = func(a, b domain.ThemeDisplay) bool { return a.Fear > b.Fear }
	case "activity":
		less = func(a, b domain.ThemeDisplay) bool { return a.Activity > b.Activity }
	case "recommendation":
		less = func(a, b domain.ThemeDisplay) bool { return a.Recommendation > b.Recommendation }
	default:
		return fmt.Errorf("unsupported sort key %q", sortKey)
	}
	sort.SliceStable(themes, func(i, j int) bool {
		return less(themes[i], themes[j])
	})
	return nil
}

func themeRow(theme domain.ThemeDisplay, store *moderation.Store) map[string]any {
	return map[string]any{
		"id":             theme.ID,
		"name":           theme.Name,
		"description":    theme.Description,
		"brand_name":     theme.BrandName,
		"branch_name":    theme.BranchName,
		"branch_id":      theme.BranchID,
		"address":        theme.Address,
		"website_url":    theme.WebsiteURL,
		"lat":            theme.Location.Lat,
		"lng":            theme.Location.Lng,
		"difficulty":     theme.Difficulty,
		"fear":           theme.Fear,
		"activity":       theme.Activity,
		"recommendation": theme.Recommendation,
		"tags":           theme.Tags,
		"is_favorite":    store.IsFavorite(theme.ID),
	}
}

func themeRows(themes []domain.ThemeDisplay, store *moderation.Store) []any {
	rows := make([]any, 0, len(themes))
	for _, theme := range themes {
		rows = append(rows, themeRow(theme, store))
	}
	return rows
}

func buildThemesTable(themes []domain.ThemeDisplay, store *moderation.Store) string {
	headers := []string{"ID", "Theme", "Brand", "Branch", "Diff", "Fear", "Act", "Rec", "Fav", "Tags"}
	rows := [][]string{}
	for _, theme := range themes {
		rows = append(rows, []string{
			theme.ID,
			fallbackString(theme.Name, "-"),
			fallbackString(theme.BrandName, "-"),
			fallbackString(theme.BranchName, "-"),
			formatScore(theme.Difficulty),
			formatScore(theme.Fear),
			formatScore(theme.Activity),
			formatScore(theme.Recommendation),
			boolToYesNo(store.IsFavorite(theme.ID)),
			fallbackString(strings.Join(theme.Tags, ","), "-"),
		})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"-", "-", "-", "-", "-", "-", "-", "-", "-", "-"})
	}
	return output.RenderTable("Themes", headers, rows)
}
