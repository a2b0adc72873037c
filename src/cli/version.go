package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// Build information. These variables are set via -ldflags at build time.
var (
	// Version is the semantic version (e.g., "v0.0.4")
	Version = "v0.0.0"

	// GitCommit is the git commit hash
	GitCommit = "unknown"

	// BuildTime is the build timestamp
	BuildTime = "unknown"

	// GoVersion is the Go version used to build
	GoVersion = runtime.Version()
)

// openWrtReleasePath is replaced in tests.
var openWrtReleasePath = "/etc/openwrt_release"

// getOpenWrtVersion reads the OpenWrt version, or "unknown" on other systems.
func getOpenWrtVersion() string {
	data, err := os.ReadFile(openWrtReleasePath)
	if err != nil {
		return "unknown"
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "DISTRIB_DESCRIPTION=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				return strings.Trim(parts[1], "'\"")
			}
		}
	}

	return "unknown"
}

// GetVersionInfo returns a one-line version string for program
func GetVersionInfo(program string) string {
	return fmt.Sprintf("%s %s", program, Version)
}

// GetFormattedVersionInfo returns a formatted multi-line version string
func GetFormattedVersionInfo(program string) string {
	return fmt.Sprintf(`%s
version: %s
commit: %s
build_time: %s
go_version: %s
openwrt_version: %s`,
		program, Version, GitCommit, BuildTime, GoVersion, getOpenWrtVersion())
}

// NewVersionCommand prints build information.
func NewVersionCommand(program string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), GetFormattedVersionInfo(program))
		},
	}
}
