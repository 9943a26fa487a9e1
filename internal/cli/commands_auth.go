package cli

import (
	"strings"

	"github.com/spf13/cobra"

	escapegateway "github.com/jihyuk/escapemap-cli/internal/gateway/escape"
	"github.com/jihyuk/escapemap-cli/internal/service/output"
)

type registerInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
	Nickname string `validate:"required,max=30"`
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func newAuthCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Register, log in, and log out against the backend.",
	}
	cmd.AddCommand(newAuthRegisterCommand(deps))
	cmd.AddCommand(newAuthLoginCommand(deps))
	cmd.AddCommand(newAuthLogoutCommand(deps))
	return cmd
}

func newAuthRegisterCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var input registerInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a backend account and store its token locally.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthRegister(cmd, deps, flags, input)
		},
	}
	cmd.Flags().StringVar(&input.Email, "email", "", "Account email address.")
	cmd.Flags().StringVar(&input.Password, "password", "", "Account password (8 characters or more).")
	cmd.Flags().StringVar(&input.Nickname, "nickname", "", "Public nickname shown on reviews.")
	addGlobalFlags(cmd, &flags)
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("nickname")
	return cmd
}

func newAuthLoginCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var input loginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the backend token locally.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthLogin(cmd, deps, flags, input)
		},
	}
	cmd.Flags().StringVar(&input.Email, "email", "", "Account email address.")
	cmd.Flags().StringVar(&input.Password, "password", "", "Account password.")
	addGlobalFlags(cmd, &flags)
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAuthLogoutCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Drop the locally stored backend token.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthLogout(cmd, deps, flags)
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}

func runAuthRegister(cmd *cobra.Command, deps Dependencies, flags globalFlags, input registerInput) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	if err := validate.Struct(input); err != nil {
		return emitError(cmd, format, "auth", flags.Output, "ESCAPE_INVALID_ARGUMENT", validationMessage(err))
	}

	result, err := deps.Escape.Register(cmd.Context(), escapegateway.RegisterInput{
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
		Nickname: strings.TrimSpace(input.Nickname),
	})
	if err != nil {
		return emitUpstreamError(cmd, format, "auth", flags.Output, flags.Verbose, err)
	}
	return storeAuthResult(cmd, deps, flags, format, "register", result)
}

func runAuthLogin(cmd *cobra.Command, deps Dependencies, flags globalFlags, input loginInput) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	if err := validate.Struct(input); err != nil {
		return emitError(cmd, format, "auth", flags.Output, "ESCAPE_INVALID_ARGUMENT", validationMessage(err))
	}

	result, err := deps.Escape.Login(cmd.Context(), escapegateway.LoginInput{
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
	})
	if err != nil {
		return emitUpstreamError(cmd, format, "auth", flags.Output, flags.Verbose, err)
	}
	return storeAuthResult(cmd, deps, flags, format, "login", result)
}

func runAuthLogout(cmd *cobra.Command, deps Dependencies, flags globalFlags) error {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "auth", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	session.User.AuthToken = ""
	if err := deps.State.SaveUser(cmd.Context(), session.User); err != nil {
		return emitError(cmd, format, "auth", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		return writeTable(cmd, "Logged out; local token cleared.", flags.Output)
	}
	env := output.BuildEnvelope("auth", map[string]any{"action": "logout"}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}

func storeAuthResult(
	cmd *cobra.Command,
	deps Dependencies,
	flags globalFlags,
	format output.Format,
	action string,
	result *escapegateway.AuthResult,
) error {
	session, err := loadSession(cmd.Context(), deps)
	if err != nil {
		return emitError(cmd, format, "auth", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}
	session.User.AuthToken = result.Token
	if nickname := strings.TrimSpace(result.Nickname); nickname != "" {
		session.User.Nickname = nickname
	}
	if err := deps.State.SaveUser(cmd.Context(), session.User); err != nil {
		return emitError(cmd, format, "auth", flags.Output, "ESCAPE_STATE_ERROR", err.Error())
	}

	if format == output.FormatTable {
		return writeTable(cmd, output.RenderTable(
			"Signed in",
			[]string{"Field", "Value"},
			[][]string{
				{"Action", action},
				{"Nickname", fallbackString(session.User.Nickname, "-")},
				{"Token stored", boolToYesNo(session.User.AuthToken != "")},
			},
		), flags.Output)
	}
	env := output.BuildEnvelope("auth", map[string]any{
		"action":       action,
		"nickname":     session.User.Nickname,
		"token_stored": session.User.AuthToken != "",
	}, nil, nil)
	return writeMachinePayload(cmd, env, format, flags.Output)
}
