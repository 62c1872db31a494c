// ABOUTME: Migration command for copying readlist data between storage backends
// ABOUTME: Supports sqlite-to-charm and charm-to-sqlite with an empty-target check

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/config"
	"github.com/harper/readlist/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate data between storage backends",
	Long: `Copy every entry from the currently configured backend to a different backend.

Ids, read state, tags and extracted content are preserved. Does NOT update the
config file; verify the migration was successful then update config.json.

Examples:
  readlist migrate --to charm
  readlist migrate --to sqlite --data-dir ~/readlist-sqlite`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var (
	migrateTo      string
	migrateDataDir string
	migrateForce   bool
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "target backend (sqlite or charm)")
	migrateCmd.Flags().StringVar(&migrateDataDir, "data-dir", "", "target data directory for sqlite (defaults to current config data_dir)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "merge into a target that already holds entries, replacing matching ids")
	_ = migrateCmd.MarkFlagRequired("to")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sourceBackend := cfg.Backend
	targetBackend := migrateTo

	if targetBackend != "sqlite" && targetBackend != "charm" {
		return fmt.Errorf("invalid target backend %q: must be \"sqlite\" or \"charm\"", targetBackend)
	}
	if targetBackend == sourceBackend && migrateDataDir == "" {
		return fmt.Errorf("target backend %q is the same as the current backend", targetBackend)
	}

	target := *cfg
	target.Backend = targetBackend
	if migrateDataDir != "" {
		target.DataDir = config.ExpandPath(migrateDataDir)
	}

	dst, err := target.OpenStorage(log)
	if err != nil {
		return fmt.Errorf("open target storage (%s): %w", targetBackend, err)
	}
	defer dst.Close()

	empty, err := storage.IsEmpty(ctx, dst)
	if err != nil {
		return fmt.Errorf("check target storage: %w", err)
	}
	if !empty && !migrateForce {
		return fmt.Errorf("target %s storage already holds entries; use --force to copy anyway", targetBackend)
	}

	out := cmd.OutOrStdout()
	color.New(color.FgYellow).Fprintln(out, "Migrating readlist data:")
	fmt.Fprintf(out, "  Source:  %s (%s)\n", sourceBackend, cfg.GetDataDir())
	fmt.Fprintf(out, "  Target:  %s (%s)\n", targetBackend, target.GetDataDir())
	fmt.Fprintln(out)

	copyFn := storage.CopyEntries
	if !empty {
		copyFn = storage.MergeEntries
	}
	summary, err := copyFn(ctx, store, dst)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	color.New(color.FgGreen).Fprintln(out, "Migration complete!")
	fmt.Fprintf(out, "  Entries: %d\n", summary.Entries)
	fmt.Fprintln(out)
	color.New(color.FgYellow).Fprintln(out, "Note: config.json was NOT updated. To switch to the new backend, edit:")
	fmt.Fprintf(out, "  %s\n", configFile())
	fmt.Fprintf(out, "  Set \"backend\": %q", targetBackend)
	if migrateDataDir != "" {
		fmt.Fprintf(out, " and \"data_dir\": %q", migrateDataDir)
	}
	fmt.Fprintln(out)

	return nil
}

// configFile returns the config path in use.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.GetConfigPath()
}
