package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

func newFavoritesCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"favourites"},
		Short:   "List and manage favorite themes.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFavoritesList(cmd, deps, flags)
		},
	}
	addGlobalFlags(cmd, &flags)

	cmd.AddCommand(newFavoritesListCommand(deps))
	cmd.AddCommand(newFavoritesAddCommand(deps))
	cmd.AddCommand(newFavoritesRemoveCommand(deps))
	return cmd
}

func newFavoritesListCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show favorite themes resolved against the approved branches.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFavoritesList(cmd, deps, flags)
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newFavoritesAddCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "add <theme-id>",
		Short: "Mark a theme as favorite.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoriteMutation(cmd, deps, flags, args[0], "add")
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newFavoritesRemoveCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "remove <theme-id>",
		Short: "Remove a theme from favorites.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoriteMutation(cmd, deps, flags, args[0], "remove")
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func runFavoritesList(cmd *cobra.Command, deps Dependencies, flags globalFlags) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "favorites", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	themes := session.Store.FavoriteThemes()
	if format == output.FormatTable {
		return writeTable(cmd, buildThemesTable(themes, session.Store), flags.Output)
	}
	env := output.BuildEnvelope("favorites", map[string]any{
		"favorites": themeRows(themes, session.Store),
		"count":     len(themes),
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runFavoriteMutation(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	rawThemeID string,
	action string,
) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	themeID := strings.TrimSpace(rawThemeID)
	if themeID == "" {
		return emitError(cmd, format, "favorites", flags.Output, "ESCAPE_INVALID_ARGUMENT", "theme id is required")
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "favorites", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if action == "remove" {
		session.Store.RemoveFavorite(themeID)
	} else {
		session.Store.AddFavorite(themeID)
	}
	if err := deps.State.SaveFavorites(cmd.Context(), session.Store.FavoriteState()); err != nil {
		return emitError(cmd, format, "favorites", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	warnings := []string{}
	theme, known := session.Store.ThemeByID(themeID)
	if !known && action == "add" {
		warnings = append(warnings, fmt.Sprintf("theme %q is not in the approved collection yet; it will surface once approved", themeID))
	}

	data := map[string]any{
		"action":      action,
		"theme_id":    themeID,
		"name":        theme.Name,
		"is_favorite": session.Store.IsFavorite(themeID),
	}

	if format == output.FormatTable {
		verb := "added"
		if action == "remove" {
			verb = "removed"
		}
		text := output.RenderTable(
			"Favorite theme "+verb,
			[]string{"Field", "Value"},
			[][]string{
				{"Theme ID", themeID},
				{"Name", fallbackString(theme.Name, "-")},
				{"Is favorite", boolToYesNo(session.Store.IsFavorite(themeID))},
			},
		)
		for _, warning := range warnings {
			text += "\nnote: " + warning
		}
		return writeTable(cmd, text, flags.Output)
	}
	env := output.BuildEnvelope("favorites", data, warnings, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}
