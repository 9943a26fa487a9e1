package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/jihyuk/escapemap-cli/internal/domain"
	escapegateway "github.com/jihyuk/escapemap-cli/internal/gateway/escape"
)

var unknownCommandPattern = regexp.MustCompile(`unknown command "([^"]+)"`)

// LocationResolver resolves addresses to coordinates.
type LocationResolver interface {
	Get(ctx context.Context, address string) (domain.Location, error)
}

// StateStore persists the local user, favorite, and branch collections.
type StateStore interface {
	Dir() string
	LoadUser(ctx context.Context) (domain.UserState, error)
	SaveUser(ctx context.Context, state domain.UserState) error
	LoadFavorites(ctx context.Context) (domain.FavoriteState, error)
	SaveFavorites(ctx context.Context, state domain.FavoriteState) error
	LoadEscapeData(ctx context.Context) (domain.EscapeState, error)
	SaveEscapeData(ctx context.Context, state domain.EscapeState) error
}

// Dependencies wires runtime services.
type Dependencies struct {
	Escape   escapegateway.API
	Location LocationResolver
	State    StateStore
	Version  string
}

var errVersionShown = fmt.Errorf("version shown")

// Execute runs the CLI with injected dependencies.
func Execute(ctx context.Context, args []string, deps Dependencies, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil || err == errVersionShown {
		return 0
	}
	var controlled *exitError
	if errors.As(err, &controlled) {
		return controlled.code
	}

	if matches := unknownCommandPattern.FindStringSubmatch(err.Error()); len(matches) > 1 {
		_, _ = fmt.Fprintf(stderr, "No such command '%s'\n", matches[1])
		return 2
	}

	if msg := err.Error(); msg != "" {
		_, _ = fmt.Fprintln(stderr, msg)
	}
	return 1
}
