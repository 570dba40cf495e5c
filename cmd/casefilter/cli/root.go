package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// VersionInfo is stamped into the binary at build time.
type VersionInfo struct {
	Version string
	Commit  string
}

var versionInfo VersionInfo

// NewRootCommand returns the casefilter command. Configuration is read before
// any subcommand runs.
func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string

	versionInfo = info

	cmd := &cobra.Command{
		Use:   "casefilter",
		Short: "Filter conditions for the case dashboard",
		Long: `Validate filter condition DTOs against the configured filter fields,
translate them to SQL and look up value suggestions.`,
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(path)
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./casefilter.yaml)")
	cmd.PersistentFlags().Bool("no-color", false, "Disables colored log output")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.no_color", cmd.PersistentFlags().Lookup("no-color"))

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	return cmd
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "casefilter %s (%s)\n", versionInfo.Version, versionInfo.Commit)
			return err
		},
	}
}
