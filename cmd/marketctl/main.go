package main

import (
	"fmt"
	"os"

	"github.com/safar/barrio-store/internal/config"
	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "marketctl",
	Short:         "Administer the barrio marketplace document store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(bootstrapCmd, migrateCmd, seedCmd, importLegacyCmd, usersCmd, ordersCmd, notificationsCmd)
}

// openDocs opens the configured document store. The caller closes it.
func openDocs(cmd *cobra.Command) (*database.DocStore, error) {
	return database.Open(cmd.Context(), cfg, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
