package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/domain"
	escapegateway "github.com/jihyuk/escapemap-cli/internal/gateway/escape"
	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

type reviewInput struct {
	Difficulty     int    `validate:"gte=0,lte=10"`
	Fear           int    `validate:"gte=0,lte=10"`
	Activity       int    `validate:"gte=0,lte=10"`
	Recommendation int    `validate:"gte=0,lte=10"`
	Comment        string `validate:"max=500"`
}

func newReviewsCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "List, add, and delete theme reviews.",
	}
	cmd.AddCommand(newReviewsListCommand(deps))
	cmd.AddCommand(newReviewsAddCommand(deps))
	cmd.AddCommand(newReviewsDeleteCommand(deps))
	return cmd
}

func newReviewsListCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "list <theme-id>",
		Short: "Show reviews and mean scores for a theme.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviewsList(cmd, deps, flags, args[0])
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newReviewsAddCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var input reviewInput
	var nickname string

	cmd := &cobra.Command{
		Use:   "add <theme-id>",
		Short: "Submit a review for a theme under the local nickname.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviewsAdd(cmd, deps, flags, args[0], input, nickname)
		},
	}

	cmd.Flags().IntVar(&input.Difficulty, "difficulty", 0, "Difficulty score, 0 to 10.")
	cmd.Flags().IntVar(&input.Fear, "fear", 0, "Fear score, 0 to 10.")
	cmd.Flags().IntVar(&input.Activity, "activity", 0, "Activity score, 0 to 10.")
	cmd.Flags().IntVar(&input.Recommendation, "recommendation", 0, "Recommendation score, 0 to 10.")
	cmd.Flags().StringVar(&input.Comment, "comment", "", "Review comment text.")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Sign the review with this nickname instead of the profile one.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newReviewsDeleteCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "delete <review-id>",
		Short: "Delete a review.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviewsDelete(cmd, deps, flags, args[0])
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func runReviewsList(cmd *cobra.Command, deps Dependencies, flags globalFlags, rawThemeID string) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	themeID := strings.TrimSpace(rawThemeID)
	reviews, err := deps.Escape.ReviewsByTheme(cmd.Context(), themeID)
	if err != nil {
		return emitUpstreamError(cmd, format, "reviews", flags.Output, flags.Verbose, err)
	}
	averages := domain.AverageScores(reviews)

	if format == output.FormatTable {
		headers := []string{"ID", "Nickname", "Diff", "Fear", "Act", "Rec", "Date", "Comment"}
		rows := [][]string{}
		for _, review := range reviews {
			rows = append(rows, []string{
				review.ID,
				fallbackString(review.Nickname, "-"),
				formatScore(review.Difficulty),
				formatScore(review.Fear),
				formatScore(review.Activity),
				formatScore(review.Recommendation),
				review.CreatedAt.Format("2006-01-02"),
				fallbackString(review.Comment, "-"),
			})
		}
		if len(rows) == 0 {
			rows = append(rows, []string{"-", "-", "-", "-", "-", "-", "-", "-"})
		}
		text := output.RenderTable("Reviews for theme "+themeID, headers, rows)
		if averages.Count > 0 {
			text += fmt.Sprintf(
				"\nAverages over %d review(s): difficulty %.1f, fear %.1f, activity %.1f, recommendation %.1f",
				averages.Count, averages.Difficulty, averages.Fear, averages.Activity, averages.Recommendation,
			)
		}
		return writeTable(cmd, text, flags.Output)
	}
	env := output.BuildEnvelope("reviews", map[string]any{
		"theme_id": themeID,
		"reviews":  reviews,
		"averages": averages,
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runReviewsAdd(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	rawThemeID string,
	input reviewInput,
	nickname string,
) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	if err := validate.Struct(input); err != nil {
		return emitError(cmd, format, "reviews", flags.Output, "ESCAPE_INVALID_ARGUMENT", validationMessage(err))
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "reviews", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	signedBy := fallbackString(strings.TrimSpace(nickname), session.User.Nickname)
	created, err := deps.Escape.CreateReview(cmd.Context(), escapegateway.CreateReviewInput{
		ThemeID:        strings.TrimSpace(rawThemeID),
		Nickname:       signedBy,
		Difficulty:     input.Difficulty,
		Fear:           input.Fear,
		Activity:       input.Activity,
		Recommendation: input.Recommendation,
		Comment:        strings.TrimSpace(input.Comment),
	})
	if err != nil {
		return emitUpstreamError(cmd, format, "reviews", flags.Output, flags.Verbose, err)
	}

	if format == output.FormatTable {
		return writeTable(cmd, output.RenderTable(
			"Review submitted",
			[]string{"Field", "Value"},
			[][]string{
				{"Review ID", created.ID},
				{"Theme ID", created.ThemeID},
				{"Nickname", fallbackString(created.Nickname, signedBy)},
				{"Date", created.CreatedAt.Format(time.RFC3339)},
			},
		), flags.Output)
	}
	env := output.BuildEnvelope("reviews", created, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runReviewsDelete(cmd *cobra.Command, deps Dependencies, flags globalFlags, rawID string) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	reviewID := strings.TrimSpace(rawID)
	if err := deps.Escape.DeleteReview(cmd.Context(), reviewID); err != nil {
		return emitUpstreamError(cmd, format, "reviews", flags.Output, flags.Verbose, err)
	}

	if format == output.FormatTable {
		return writeTable(cmd, fmt.Sprintf("Review %s deleted.", reviewID), flags.Output)
	}
	env := output.BuildEnvelope("reviews", map[string]any{
		"action":    "delete",
		"review_id": reviewID,
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}
