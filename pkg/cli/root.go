// Package cli implements the al-build command surface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/lincza/al-build/pkg/logger"
)

var rootLog = logger.New("cli:root")

// NewRootCommand creates the al-build root command with all subcommands.
func NewRootCommand(version string) *cobra.Command {
	rootLog.Printf("Creating root command, version %s", version)
	cmd := &cobra.Command{
		Use:   "al-build",
		Short: "Build, sign and publish Business Central extensions",
		Long: `al-build drives the CI pipeline of an AL extension project: it
classifies the build from the triggering event, generates a build version,
downloads dependency symbols, compiles, signs and publishes the package.

Examples:
  al-build setup                    # Install the AL compiler
  al-build analyze                  # Inspect the project
  al-build symbols                  # Download dependency symbols
  al-build compile                  # Compile the extension
  al-build run                      # Full pipeline, as used in CI
  al-build sign out/App.app         # Sign a compiled package`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("dir", "C", ".", "Project directory containing app.json")

	cmd.AddCommand(NewSetupCommand())
	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewSymbolsCommand())
	cmd.AddCommand(NewCompileCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewSignCommand())
	cmd.AddCommand(NewPublishCommand())

	return cmd
}

func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output in JSON format")
}

func projectDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		return "."
	}
	return dir
}
