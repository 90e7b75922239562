package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo holds version information for JSON output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var (
		short    bool
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the version, build information, and platform details for mcptap.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, short, jsonMode)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output JSON instead of human-readable text")

	return cmd
}

func runVersion(cmd *cobra.Command, short, jsonMode bool) error {
	formatter := newCommandFormatter(cmd, jsonMode)

	if short {
		if jsonMode {
			return formatter.JSON(map[string]string{"version": Version})
		}
		formatter.Println("%s", Version)
		return nil
	}

	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if jsonMode {
		return formatter.JSON(info)
	}

	formatter.Println("%s", formatter.Bold("mcptap"))
	formatter.Println("%s", "──────")
	formatter.Println("  %s  %s", formatter.Dim("Version:"), info.Version)
	formatter.Println("  %s  %s", formatter.Dim("Git Commit:"), info.GitCommit)
	formatter.Println("  %s  %s", formatter.Dim("Build Date:"), info.BuildDate)
	formatter.Println("  %s  %s", formatter.Dim("Go Version:"), info.GoVersion)
	formatter.Println("  %s  %s", formatter.Dim("Platform:"), info.Platform)

	return nil
}
