package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a configuration file",
		Long: `Validate parses the configuration file and runs every check the server
runs at startup. Secret files are not read.`,
		RunE: runValidate,
	}
	validateCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := validateCmd.MarkFlagRequired("config"); err != nil {
		panic(fmt.Sprintf("failed to mark flag as required: %v", err))
	}

	cmd.AddCommand(validateCmd)
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "Valid configuration")
	storage := "memory"
	if cfg.Database != nil {
		storage = fmt.Sprintf("postgres (%s:%d/%s)", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}
	_, _ = fmt.Fprintf(out, "  Storage: %s\n", storage)
	_, _ = fmt.Fprintf(out, "  Queue: %s\n", cfg.Queue.GetType())
	_, _ = fmt.Fprintf(out, "  Auth: %s\n", cfg.Auth.GetMode())
	if cfg.Sync.Disabled {
		_, _ = fmt.Fprintln(out, "  Sync: disabled")
	} else {
		_, _ = fmt.Fprintf(out, "  Sync: %s\n", cfg.Sync.GetSchedule())
	}
	for _, reg := range cfg.Registries {
		_, _ = fmt.Fprintf(out, "  Registry: %s (%s, %s, %d credentials)\n",
			reg.Name, reg.RIR, reg.OrgHandle, len(reg.Credentials))
	}
	return nil
}
