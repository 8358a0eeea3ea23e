package main

import (
	"fmt"
	"os"

	"github.com/safar/barrio-store/internal/config"
	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/store"
	"github.com/safar/barrio-store/migrations"
	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create missing collections and the administrator account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := openDocs(cmd)
		if err != nil {
			return err
		}
		defer docs.Close()

		if err := store.Bootstrap(cmd.Context(), docs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Collections ready, administrator is %s\n", store.AdminUsername)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the SQL document schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Backend != config.BackendSQLite && cfg.Storage.Backend != config.BackendPostgres {
			return fmt.Errorf("migrate needs STORAGE_BACKEND=sqlite or postgres, got %q", cfg.Storage.Backend)
		}

		db, err := database.NewConnection(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := database.Migrate(cmd.Context(), db, migrations.FS, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully ran %d migration(s) %s\n", n, args[0])
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Register users and stores listed in a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		seed, err := store.ParseSeed(f)
		if err != nil {
			return err
		}

		docs, err := openDocs(cmd)
		if err != nil {
			return err
		}
		defer docs.Close()

		if err := store.Bootstrap(cmd.Context(), docs); err != nil {
			return err
		}
		res, err := store.ApplySeed(cmd.Context(), docs, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "users: %d created, %d skipped; stores: %d created, %d updated\n",
			res.UsersCreated, res.UsersSkipped, res.StoresCreated, res.StoresUpdated)
		return nil
	},
}

var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy DIR",
	Short: "Merge the prototype's usuarios/tiendas/pedidos/notificaciones JSON files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := openDocs(cmd)
		if err != nil {
			return err
		}
		defer docs.Close()

		if err := store.Bootstrap(cmd.Context(), docs); err != nil {
			return err
		}
		res, err := store.ImportLegacy(cmd.Context(), docs, os.DirFS(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "users: %d, stores: %d, orders: %d, notifications: %d imported; %d skipped\n",
			res.Users, res.Stores, res.Orders, res.Notifications, res.Skipped)
		return nil
	},
}
