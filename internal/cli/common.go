package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/config"
	"github.com/jihyuk/escapemap-cli/internal/domain"
	escapegateway "github.com/jihyuk/escapemap-cli/internal/gateway/escape"
	"github.com/jihyuk/escapemap-cli/internal/service/moderation"
	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

type globalFlags struct {
	Format  string
	Output  string
	Verbose bool
}

const sharedGlobalFlagAnnotation = "escapemap_cli_shared_global"

func addGlobalFlags(cmd *cobra.Command, flags *globalFlags) {
	addSharedGlobalFlag(cmd, "format", func() {
		cmd.Flags().StringVar(&flags.Format, "format", "table", "Output format: table, json, or yaml.")
	})
	addSharedGlobalFlag(cmd, "output", func() {
		cmd.Flags().StringVar(&flags.Output, "output", "", "Write command output to a file in addition to stdout.")
	})
	addSharedGlobalFlag(cmd, "verbose", func() {
		cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output (prints upstream request trace and detailed error diagnostics).")
	})
}

func addSharedGlobalFlag(cmd *cobra.Command, name string, register func()) {
	if cmd.Flags().Lookup(name) != nil {
		return
	}
	register()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return
	}
	if flag.Annotations == nil {
		flag.Annotations = map[string][]string{}
	}
	flag.Annotations[sharedGlobalFlagAnnotation] = []string{"true"}
}

func parseOutputFormat(format string) (output.Format, error) {
	return output.ParseFormat(format)
}

func writeTable(cmd *cobra.Command, text string, outputPath string) error {
	return output.WriteOutput(cmd.OutOrStdout(), text, outputPath)
}

func writeMachinePayload(cmd *cobra.Command, env output.Envelope, format output.Format, outputPath string) error {
	rendered, err := output.RenderPayload(env, format)
	if err != nil {
		return err
	}
	return output.WriteOutput(cmd.OutOrStdout(), rendered, outputPath)
}

func emitError(
	cmd *cobra.Command,
	format output.Format,
	command string,
	outputPath string,
	code string,
	message string,
) error {
	if format == output.FormatTable {
		if err := output.WriteOutput(cmd.OutOrStdout(), message, outputPath); err != nil {
			return err
		}
		return &exitError{code: 1}
	}
	env := output.BuildEnvelope(command, nil, []string{}, map[string]any{
		"code":    code,
		"message": message,
	})
	if err := writeMachinePayload(cmd, env, format, outputPath); err != nil {
		return err
	}
	return &exitError{code: 1}
}

func emitUpstreamError(
	cmd *cobra.Command,
	format output.Format,
	command string,
	outputPath string,
	verbose bool,
	err error,
) error {
	if err == nil {
		err = escapegateway.ErrUpstream
	}
	var apiErr *escapegateway.APIError
	if errors.As(err, &apiErr) {
		return emitError(cmd, format, command, outputPath, "ESCAPE_BACKEND_ERROR", apiErr.Error())
	}
	if verbose {
		return emitError(cmd, format, command, outputPath, "ESCAPE_UPSTREAM_ERROR", err.Error())
	}

	message := escapegateway.ErrUpstream.Error() + " (use --verbose for details)"
	var upstreamErr *escapegateway.UpstreamRequestError
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode > 0 {
		message = fmt.Sprintf("%s (status %d, use --verbose for details)", escapegateway.ErrUpstream.Error(), upstreamErr.StatusCode)
	}
	return emitError(cmd, format, command, outputPath, "ESCAPE_UPSTREAM_ERROR", message)
}

// session bundles the moderation store with the persisted user profile for the
// duration of one command invocation.
type session struct {
	Store *moderation.Store
	User  domain.UserState
}

func loadSession(ctx context.Context, deps Dependencies) (*session, error) {
	if deps.State == nil {
		return nil, fmt.Errorf("state store is not available")
	}
	user, err := deps.State.LoadUser(ctx)
	if err != nil {
		return nil, err
	}
	escapeState, err := deps.State.LoadEscapeData(ctx)
	if err != nil {
		return nil, err
	}
	favorites, err := deps.State.LoadFavorites(ctx)
	if err != nil {
		return nil, err
	}
	return &session{
		Store: moderation.NewStore(escapeState, favorites),
		User:  user,
	}, nil
}

func (s *session) persist(ctx context.Context, deps Dependencies) error {
	if err := deps.State.SaveEscapeData(ctx, s.Store.State()); err != nil {
		return err
	}
	return deps.State.SaveFavorites(ctx, s.Store.FavoriteState())
}

// syncBranches refreshes the approved collection from the backend. Pending
// branches survive the refresh untouched.
func syncBranches(ctx context.Context, deps Dependencies, s *session) error {
	branches, err := deps.Escape.Branches(ctx)
	if err != nil {
		return err
	}
	merged := config.MergeFetched(s.Store.State(), branches)
	s.Store.ReplaceBranches(merged.Branches)
	return deps.State.SaveEscapeData(ctx, merged)
}

func requireAdmin(
	cmd *cobra.Command,
	format output.Format,
	command string,
	outputPath string,
	user domain.UserState,
) error {
	if user.IsAdmin {
		return nil
	}
	return emitError(
		cmd,
		format,
		command,
		outputPath,
		"ESCAPE_ADMIN_REQUIRED",
		"Admin mode is required. Enable it with 'escapemap profile admin on'.",
	)
}

func isBackendID(id string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	return err == nil
}

func splitCSV(value string) map[string]struct{} {
	result := map[string]struct{}{}
	if strings.TrimSpace(value) == "" {
		return result
	}
	for _, part := range strings.Split(value, ",") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		result[token] = struct{}{}
	}
	return result
}

func fallbackString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func boolToYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', 6, 64)
}

func formatScore(value int) string {
	return strconv.Itoa(value)
}
