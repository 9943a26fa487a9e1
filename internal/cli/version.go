package cli

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

const (
	devVersion         = "dev"
	goDevelMainVersion = "(devel)"
)

var readBuildInfo = debug.ReadBuildInfo

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show CLI version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}

// resolvedVersion prefers an injected release version, then module build info,
// then the VCS revision stamped into the binary.
func resolvedVersion(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" && trimmed != devVersion {
		return trimmed
	}

	info, ok := readBuildInfo()
	if ok && info != nil {
		mainVersion := strings.TrimSpace(info.Main.Version)
		if mainVersion != "" && mainVersion != goDevelMainVersion {
			return mainVersion
		}
		if revision, dirty := buildRevision(info.Settings); revision != "" {
			if dirty {
				return revision + "-dirty"
			}
			return revision
		}
	}

	if trimmed != "" {
		return trimmed
	}
	return devVersion
}

func buildRevision(settings []debug.BuildSetting) (string, bool) {
	var revision string
	dirty := false
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			revision = strings.TrimSpace(setting.Value)
		case "vcs.modified":
			dirty = strings.EqualFold(strings.TrimSpace(setting.Value), "true")
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return revision, dirty
}
