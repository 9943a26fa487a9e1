package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/domain"
	"github.com/jihyuk/escapemap-cli/internal/gateway/location"
	"github.com/jihyuk/escapemap-cli/internal/service/moderation"
	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

var validate = validator.New()

type reportInput struct {
	BrandName  string  `validate:"required,max=100"`
	BranchName string  `validate:"required,max=100"`
	Address    string  `validate:"required,max=200"`
	WebsiteURL string  `validate:"omitempty,url"`
	Phone      string  `validate:"omitempty,max=30"`
	Lat        float64 `validate:"gte=-90,lte=90"`
	Lng        float64 `validate:"gte=-180,lte=180"`
}

type themeInput struct {
	Name           string `validate:"omitempty,max=100"`
	Description    string `validate:"max=500"`
	Tags           string
	Difficulty     int `validate:"gte=0,lte=10"`
	Fear           int `validate:"gte=0,lte=10"`
	Activity       int `validate:"gte=0,lte=10"`
	Recommendation int `validate:"gte=0,lte=10"`
}

func addThemeScoreFlags(cmd *cobra.Command, input *themeInput) {
	cmd.Flags().IntVar(&input.Difficulty, "difficulty", 5, "Theme difficulty score, 0 to 10.")
	cmd.Flags().IntVar(&input.Fear, "fear", 0, "Theme fear score, 0 to 10.")
	cmd.Flags().IntVar(&input.Activity, "activity", 5, "Theme activity score, 0 to 10.")
	cmd.Flags().IntVar(&input.Recommendation, "recommendation", 5, "Theme recommendation score, 0 to 10.")
}

func newReportCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var input reportInput
	var theme themeInput
	var latSet, lngSet bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a new branch; it stays pending until an admin approves it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			latSet = cmd.Flags().Changed("lat")
			lngSet = cmd.Flags().Changed("lng")
			return runReport(cmd, deps, flags, input, theme, latSet, lngSet)
		},
	}

	cmd.Flags().StringVar(&input.BrandName, "brand", "", "Brand name of the venue.")
	cmd.Flags().StringVar(&input.BranchName, "branch", "", "Branch name, for example 'Gangnam'.")
	cmd.Flags().StringVar(&input.Address, "address", "", "Street address. Geocoded to coordinates unless --lat/--lng are given.")
	cmd.Flags().StringVar(&input.WebsiteURL, "website", "", "Venue website URL.")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "Venue phone number.")
	cmd.Flags().Float64Var(&input.Lat, "lat", 0, "Latitude override. Provide together with --lng to skip geocoding.")
	cmd.Flags().Float64Var(&input.Lng, "lng", 0, "Longitude override. Provide together with --lat to skip geocoding.")
	cmd.Flags().StringVar(&theme.Name, "theme-name", "", "Name of the theme to report with the branch.")
	cmd.Flags().StringVar(&theme.Description, "theme-desc", "", "Theme description.")
	cmd.Flags().StringVar(&theme.Tags, "tags", "", "Comma-separated theme tags.")
	addThemeScoreFlags(cmd, &theme)
	addGlobalFlags(cmd, &flags)
	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("branch")
	_ = cmd.MarkFlagRequired("address")

	cmd.AddCommand(newReportThemeCommand(deps))
	return cmd
}

func newReportThemeCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var branchID string
	var theme themeInput

	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Report a new theme for an approved branch; it stays pending until approved.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReportTheme(cmd, deps, flags, branchID, theme)
		},
	}

	cmd.Flags().StringVar(&branchID, "branch", "", "ID of the approved branch the theme belongs to.")
	cmd.Flags().StringVar(&theme.Name, "name", "", "Theme name.")
	cmd.Flags().StringVar(&theme.Description, "desc", "", "Theme description.")
	cmd.Flags().StringVar(&theme.Tags, "tags", "", "Comma-separated theme tags.")
	addThemeScoreFlags(cmd, &theme)
	addGlobalFlags(cmd, &flags)
	_ = cmd.MarkFlagRequired("branch")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runReport(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	input reportInput,
	theme themeInput,
	latSet bool,
	lngSet bool,
) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	if err := validate.Struct(input); err != nil {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_INVALID_ARGUMENT", validationMessage(err))
	}
	if err := validate.Struct(theme); err != nil {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_INVALID_ARGUMENT", validationMessage(err))
	}
	if latSet != lngSet {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_INVALID_ARGUMENT", "provide --lat and --lng together, or omit both to geocode the address")
	}

	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	coords := domain.Location{Lat: input.Lat, Lng: input.Lng}
	if !latSet {
		if deps.Location == nil {
			return emitError(cmd, format, "report", flags.Output, "ESCAPE_LOCATION_RESOLVE_ERROR", "location resolver is not available")
		}
		coords, err = deps.Location.Get(cmd.Context(), input.Address)
		if errors.Is(err, location.ErrAddressNotFound) {
			return emitError(cmd, format, "report", flags.Output, "ESCAPE_ADDRESS_NOT_FOUND", "no coordinates found for the given address; pass --lat/--lng explicitly")
		}
		if err != nil {
			return emitError(cmd, format, "report", flags.Output, "ESCAPE_LOCATION_RESOLVE_ERROR", err.Error())
		}
	}

	branch := domain.Branch{
		ID:         moderation.NewReportID(),
		BrandName:  strings.TrimSpace(input.BrandName),
		BranchName: strings.TrimSpace(input.BranchName),
		Address:    strings.TrimSpace(input.Address),
		Lat:        coords.Lat,
		Lng:        coords.Lng,
		WebsiteURL: strings.TrimSpace(input.WebsiteURL),
		Phone:      strings.TrimSpace(input.Phone),
	}
	if strings.TrimSpace(theme.Name) != "" {
		branch.Themes = []domain.Theme{buildReportedTheme(theme)}
	}

	session.Store.Report(branch)
	if err := deps.State.SaveEscapeData(cmd.Context(), session.Store.State()); err != nil {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		return writeTable(cmd, output.RenderTable(
			"Branch reported (pending approval)",
			[]string{"Field", "Value"},
			[][]string{
				{"Report ID", branch.ID},
				{"Brand", branch.BrandName},
				{"Branch", branch.BranchName},
				{"Address", branch.Address},
				{"Lat", formatCoordinate(branch.Lat)},
				{"Lng", formatCoordinate(branch.Lng)},
				{"Themes", formatScore(len(branch.Themes))},
			},
		), flags.Output)
	}
	env := output.BuildEnvelope("report", map[string]any{
		"id":          branch.ID,
		"brand_name":  branch.BrandName,
		"branch_name": branch.BranchName,
		"address":     branch.Address,
		"lat":         branch.Lat,
		"lng":         branch.Lng,
		"themes":      len(branch.Themes),
		"status":      "pending",
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runReportTheme(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	branchID string,
	theme themeInput,
) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	if err := validate.Struct(theme); err != nil {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_INVALID_ARGUMENT", validationMessage(err))
	}

	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	id := strings.TrimSpace(branchID)
	approved, ok := approvedBranchByID(session.Store.Branches(), id)
	if !ok {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_BRANCH_NOT_FOUND", fmt.Sprintf("branch %q is not in the approved collection", branchID))
	}

	reported := buildReportedTheme(theme)
	pending := domain.Branch{
		ID:         moderation.NewReportID(),
		BrandName:  approved.BrandName,
		BranchName: approved.BranchName,
		Address:    approved.Address,
		Lat:        approved.Lat,
		Lng:        approved.Lng,
		WebsiteURL: approved.WebsiteURL,
		Phone:      approved.Phone,
		Themes:     []domain.Theme{reported},
	}

	session.Store.Report(pending)
	if err := deps.State.SaveEscapeData(cmd.Context(), session.Store.State()); err != nil {
		return emitError(cmd, format, "report", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		return writeTable(cmd, output.RenderTable(
			"Theme reported (pending approval)",
			[]string{"Field", "Value"},
			[][]string{
				{"Report ID", pending.ID},
				{"Brand", pending.BrandName},
				{"Branch", pending.BranchName},
				{"Theme", reported.Name},
				{"Difficulty", formatScore(reported.Difficulty)},
				{"Fear", formatScore(reported.Fear)},
				{"Activity", formatScore(reported.Activity)},
				{"Recommendation", formatScore(reported.Recommendation)},
			},
		), flags.Output)
	}
	env := output.BuildEnvelope("report", map[string]any{
		"id":          pending.ID,
		"branch_id":   approved.ID,
		"brand_name":  pending.BrandName,
		"branch_name": pending.BranchName,
		"theme":       reported.Name,
		"status":      "pending",
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func approvedBranchByID(branches []domain.Branch, id string) (domain.Branch, bool) {
	for _, branch := range branches {
		if branch.ID == id {
			return branch, true
		}
	}
	return domain.Branch{}, false
}

// buildReportedTheme assigns a client report id; the backend re-keys the theme
// on approval.
func buildReportedTheme(input themeInput) domain.Theme {
	return domain.Theme{
		ID:             moderation.NewReportID(),
		Name:           strings.TrimSpace(input.Name),
		Description:    strings.TrimSpace(input.Description),
		Difficulty:     input.Difficulty,
		Fear:           input.Fear,
		Activity:       input.Activity,
		Recommendation: input.Recommendation,
		Tags:           parseTagList(input.Tags),
	}
}

func parseTagList(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		switch fieldErr.Tag() {
		case "required":
			parts = append(parts, strings.ToLower(fieldErr.Field())+" is required")
		case "url":
			parts = append(parts, strings.ToLower(fieldErr.Field())+" must be a valid URL")
		case "max":
			parts = append(parts, strings.ToLower(fieldErr.Field())+" is too long (max "+fieldErr.Param()+")")
		case "gte", "lte":
			parts = append(parts, strings.ToLower(fieldErr.Field())+" is out of range")
		default:
			parts = append(parts, strings.ToLower(fieldErr.Field())+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
