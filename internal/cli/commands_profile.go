package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jihyuk/escapemap-cli/internal/domain"
	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

func newProfileCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit the local user profile.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProfileShow(cmd, deps, flags)
		},
	}
	addGlobalFlags(cmd, &flags)

	cmd.AddCommand(newProfileShowCommand(deps))
	cmd.AddCommand(newProfileNicknameCommand(deps))
	cmd.AddCommand(newProfileNotificationsCommand(deps))
	cmd.AddCommand(newProfileAdminCommand(deps))
	return cmd
}

func newProfileShowCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the local profile settings.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProfileShow(cmd, deps, flags)
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfileNicknameCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "nickname <name>",
		Short: "Set the nickname used on submitted reviews.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSet(cmd, deps, flags, func(user *profileMutation) error {
				name := strings.TrimSpace(args[0])
				if name == "" {
					return fmt.Errorf("nickname must not be empty")
				}
				user.State.Nickname = name
				user.Changed = "nickname"
				return nil
			})
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfileNotificationsCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "notifications <on|off>",
		Short: "Toggle local notification preference.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSet(cmd, deps, flags, func(user *profileMutation) error {
				enabled, err := parseOnOff(args[0])
				if err != nil {
					return err
				}
				user.State.NotificationsEnabled = enabled
				user.Changed = "notifications"
				return nil
			})
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfileAdminCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "admin <on|off>",
		Short: "Toggle the local admin mode flag that unlocks moderation commands.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSet(cmd, deps, flags, func(user *profileMutation) error {
				enabled, err := parseOnOff(args[0])
				if err != nil {
					return err
				}
				user.State.IsAdmin = enabled
				user.Changed = "admin"
				return nil
			})
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

type profileMutation struct {
	State   domain.UserState
	Changed string
}

func runProfileShow(cmd *cobra.Command, deps Dependencies, flags globalFlags) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "profile", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		return writeTable(cmd, output.RenderTable(
			"Profile",
			[]string{"Field", "Value"},
			[][]string{
				{"Nickname", fallbackString(session.User.Nickname, "-")},
				{"Notifications", boolToYesNo(session.User.NotificationsEnabled)},
				{"Admin mode", boolToYesNo(session.User.IsAdmin)},
				{"Signed in", boolToYesNo(session.User.AuthToken != "")},
				{"State dir", deps.State.Dir()},
			},
		), flags.Output)
	}
	env := output.BuildEnvelope("profile", map[string]any{
		"nickname":      session.User.Nickname,
		"notifications": session.User.NotificationsEnabled,
		"is_admin":      session.User.IsAdmin,
		"signed_in":     session.User.AuthToken != "",
		"state_dir":     deps.State.Dir(),
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func runProfileSet(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	mutate func(*profileMutation) error,
) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "profile", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	mutation := profileMutation{State: session.User}
	if err := mutate(&mutation); err != nil {
		return emitError(cmd, format, "profile", flags.Output, "ESCAPE_INVALID_ARGUMENT", err.Error())
	}
	if err := deps.State.SaveUser(cmd.Context(), mutation.State); err != nil {
		return emitError(cmd, format, "profile", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		return writeTable(cmd, fmt.Sprintf("Profile updated (%s).", mutation.Changed), flags.Output)
	}
	env := output.BuildEnvelope("profile", map[string]any{
		"changed":       mutation.Changed,
		"nickname":      mutation.State.Nickname,
		"notifications": mutation.State.NotificationsEnabled,
		"is_admin":      mutation.State.IsAdmin,
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected 'on' or 'off', got %q", value)
	}
}
