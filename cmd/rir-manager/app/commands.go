// Package app provides the entry point for the rir-manager application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ipam-rir/rir-manager/internal/versions"
)

// LogLevel is the level of the default logger; --debug lowers it.
var LogLevel = new(slog.LevelVar)

// NewRootCmd creates a new root command for rir-manager.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:               "rir-manager",
		DisableAutoGenTag: true,
		Short:             "Regional Internet Registry resource manager",
		Long: `rir-manager keeps IPAM records in step with a Regional Internet Registry.
It mirrors organizations, contacts and networks from the registry and submits
reassignments, reallocations and removals on behalf of its users.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if v.GetBool("debug") {
				LogLevel.Set(slog.LevelDebug)
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := v.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		slog.Error("Error binding debug flag", "error", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE:  runVersion,
	}
	cmd.Flags().String("format", "", "Output format (json)")
	cmd.Flags().String("require", "", "Fail unless the version satisfies this constraint (e.g. '>= 1.2')")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	info := versions.GetVersionInfo()

	constraint, err := cmd.Flags().GetString("require")
	if err != nil {
		return fmt.Errorf("failed to get require flag: %w", err)
	}
	if constraint != "" {
		ok, err := versions.Satisfies(info.Version, constraint)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("version %s does not satisfy %s", info.Version, constraint)
		}
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	if format == "json" {
		output, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format version info as JSON: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(output))
		return nil
	}

	slog.Info("rir-manager version",
		"version", info.Version,
		"commit", info.Commit,
		"built", info.BuildDate,
		"go", info.GoVersion,
		"platform", info.Platform)
	return nil
}
