package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ipam-rir/rir-manager/database"
	"github.com/ipam-rir/rir-manager/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate down (0 = all)")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the schema up to date.
This command reads the database connection parameters from the config file
and applies all migrations that haven't been run yet.`,
		RunE: runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.

WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  rir-manager migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  rir-manager migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	})
	return cmd
}

// setupMigration loads the config and opens a migrator for its database
func setupMigration(cmd *cobra.Command) (*config.Config, database.Migrator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database == nil {
		return nil, nil, fmt.Errorf("database configuration is required")
	}
	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build connection string: %w", err)
	}
	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		return nil, nil, err
	}
	return cfg, m, nil
}

func closeMigrator(m database.Migrator) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		slog.Error("Error closing migration source", "error", srcErr)
	}
	if dbErr != nil {
		slog.Error("Error closing database connection", "error", dbErr)
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, m, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	prompt := fmt.Sprintf("About to apply migrations to database %s@%s:%d/%s. Continue?",
		cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	if err := confirmMigration(cmd, prompt); err != nil {
		return err
	}

	slog.Info("Applying database migrations")
	if err := database.MigrateUp(m); err != nil {
		return err
	}
	database.LogVersion(m)
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	_, m, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	prompt := "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
	if numSteps > 0 {
		prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", numSteps)
	}
	if err := confirmMigration(cmd, prompt); err != nil {
		return err
	}

	if err := database.MigrateDown(m, numSteps); err != nil {
		return err
	}
	database.LogVersion(m)
	return nil
}

// confirmMigration asks for confirmation unless --yes was given
func confirmMigration(cmd *cobra.Command, prompt string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	if yes {
		return nil
	}
	if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
		slog.Info("Migration cancelled")
		return fmt.Errorf("migration cancelled by user")
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s (yes/no): ", prompt)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y"
}
