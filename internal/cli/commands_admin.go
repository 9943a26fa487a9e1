package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/domain"
	escapegateway "github.com/jihyuk/escapemap-cli/internal/gateway/escape"
	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

func newAdminCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderate reported branches (requires admin mode).",
	}
	cmd.AddCommand(newAdminPendingCommand(deps))
	cmd.AddCommand(newAdminApproveCommand(deps))
	cmd.AddCommand(newAdminRejectCommand(deps))
	cmd.AddCommand(newAdminDeleteCommand(deps))
	return cmd
}

func newAdminPendingCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List reported branches awaiting review.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAdminPending(cmd, deps, flags)
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newAdminApproveCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "approve <report-id>",
		Short: "Approve a pending branch and register it with the backend.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminApprove(cmd, deps, flags, args[0])
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newAdminRejectCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "reject <report-id>",
		Short: "Reject and discard a pending branch.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminReject(cmd, deps, flags, args[0])
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newAdminDeleteCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "delete <branch-id>",
		Short: "Delete an approved branch and its themes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminDelete(cmd, deps, flags, args[0])
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func runAdminPending(cmd *cobra.Command, deps Dependencies, flags globalFlags) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "admin", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}
	if err := requireAdmin(cmd, format, "admin", flags.Output, session.User); err != nil {
		return err
	}

	pending := session.Store.Pending()
	if format == output.FormatTable {
		headers := []string{"Report ID", "Brand", "Branch", "Address", "Themes"}
		rows := [][]string{}
		for _, branch := range pending {
			rows = append(rows, []string{
				branch.ID,
				fallbackString(branch.BrandName, "-"),
				fallbackString(branch.BranchName, "-"),
				fallbackString(branch.Address, "-"),
				formatScore(len(branch.Themes)),
			})
		}
		if len(rows) == 0 {
			rows = append(rows, []string{"-", "-", "-", "-", "-"})
		}
		return writeTable(cmd, output.RenderTable("Pending branches", headers, rows), flags.Output)
	}
	env := output.BuildEnvelope("admin", map[string]any{
		"pending": pendingRows(pending),
		"count":   len(pending),
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runAdminApprove(cmd *cobra.Command, deps Dependencies, flags globalFlags, rawID string) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "admin", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}
	if err := requireAdmin(cmd, format, "admin", flags.Output, session.User); err != nil {
		return err
	}

	reportID := strings.TrimSpace(rawID)
	branch, ok := findPendingBranch(session.Store.Pending(), reportID)
	if !ok {
		return emitError(cmd, format, "admin", flags.Output, "ESCAPE_REPORT_NOT_FOUND", fmt.Sprintf("no pending branch with id %q", reportID))
	}

	created, err := deps.Escape.CreateBranch(cmd.Context(), escapegateway.CreateBranchInput{
		BrandName:  branch.BrandName,
		BranchName: branch.BranchName,
		Address:    branch.Address,
		Lat:        branch.Lat,
		Lng:        branch.Lng,
		WebsiteURL: branch.WebsiteURL,
		Phone:      branch.Phone,
		Themes:     branch.Themes,
	})
	if err != nil {
		return emitUpstreamError(cmd, format, "admin", flags.Output, flags.Verbose, err)
	}

	// The backend assigned real ids; drop the report entry and take the
	// approved set from a fresh fetch so both stay consistent.
	session.Store.Reject(reportID)
	warnings := []string{}
	if fetched, fetchErr := deps.Escape.Branches(cmd.Context()); fetchErr == nil {
		session.Store.ReplaceBranches(fetched)
	} else {
		session.Store.Report(*created)
		session.Store.Approve(created.ID)
		warnings = append(warnings, "branch registered but refresh failed; run a command with --refresh to resync")
	}
	if err := deps.State.SaveEscapeData(cmd.Context(), session.Store.State()); err != nil {
		return emitError(cmd, format, "admin", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		text := output.RenderTable(
			"Branch approved",
			[]string{"Field", "Value"},
			[][]string{
				{"Report ID", reportID},
				{"Backend ID", created.ID},
				{"Brand", created.BrandName},
				{"Branch", created.BranchName},
			},
		)
		for _, warning := range warnings {
			text += "\nnote: " + warning
		}
		return writeTable(cmd, text, flags.Output)
	}
	env := output.BuildEnvelope("admin", map[string]any{
		"action":     "approve",
		"report_id":  reportID,
		"backend_id": created.ID,
		"brand_name": created.BrandName,
	}, warnings, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runAdminReject(cmd *cobra.Command, deps Dependencies, flags globalFlags, rawID string) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "admin", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}
	if err := requireAdmin(cmd, format, "admin", flags.Output, session.User); err != nil {
		return err
	}

	reportID := strings.TrimSpace(rawID)
	_, existed := findPendingBranch(session.Store.Pending(), reportID)
	session.Store.Reject(reportID)
	if err := deps.State.SaveEscapeData(cmd.Context(), session.Store.State()); err != nil {
		return emitError(cmd, format, "admin", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		message := fmt.Sprintf("Report %s rejected.", reportID)
		if !existed {
			message = fmt.Sprintf("No pending branch with id %s; nothing to do.", reportID)
		}
		return writeTable(cmd, message, flags.Output)
	}
	env := output.BuildEnvelope("admin", map[string]any{
		"action":    "reject",
		"report_id": reportID,
		"existed":   existed,
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runAdminDelete(cmd *cobra.Command, deps Dependencies, flags globalFlags, rawID string) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "admin", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}
	if err := requireAdmin(cmd, format, "admin", flags.Output, session.User); err != nil {
		return err
	}

	branchID := strings.TrimSpace(rawID)
	if isBackendID(branchID) {
		if err := deps.Escape.DeleteBranch(cmd.Context(), branchID); err != nil {
			return emitUpstreamError(cmd, format, "admin", flags.Output, flags.Verbose, err)
		}
	}
	session.Store.Delete(branchID)
	if err := deps.State.SaveEscapeData(cmd.Context(), session.Store.State()); err != nil {
		return emitError(cmd, format, "admin", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		return writeTable(cmd, fmt.Sprintf("Branch %s deleted. Favorites pointing at its themes are ignored until removed.", branchID), flags.Output)
	}
	env := output.BuildEnvelope("admin", map[string]any{
		"action":    "delete",
		"branch_id": branchID,
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func findPendingBranch(pending []domain.Branch, id string) (domain.Branch, bool) {
	for _, branch := range pending {
		if branch.ID == id {
			return branch, true
		}
	}
	return domain.Branch{}, false
}

func pendingRows(pending []domain.Branch) []any {
	rows := make([]any, 0, len(pending))
	for _, branch := range pending {
		themes := make([]map[string]any, 0, len(branch.Themes))
		for _, theme := range branch.Themes {
			themes = append(themes, map[string]any{
				"id":   theme.ID,
				"name": theme.Name,
				"tags": theme.Tags,
			})
		}
		rows = append(rows, map[string]any{
			"id":          branch.ID,
			"brand_name":  branch.BrandName,
			"branch_name": branch.BranchName,
			"address":     branch.Address,
			"lat":         branch.Lat,
			"lng":         branch.Lng,
			"themes":      themes,
		})
	}
	return rows
}
