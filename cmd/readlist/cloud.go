// ABOUTME: Cloud subcommand for the Charm storage backend
// ABOUTME: Provides status, link, repair, reset, and wipe commands for the charm KV database

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/charm"
)

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Manage the Charm cloud backend",
	Long: `Manage readlist data stored with the charm backend.

Charm uses your SSH keys for authentication - no passwords needed!
All data is encrypted end-to-end before being stored.

Commands:
  status  - Show link status and entry counts
  link    - Link your account (open browser to charm.2389.dev)
  repair  - Fix a corrupted local database
  reset   - Delete local data and re-sync from cloud
  wipe    - Permanently delete ALL data (local and cloud)

Examples:
  readlist cloud status
  readlist cloud repair --force`,
}

var cloudStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cloud status",
	Long:  `Display the Charm account link and the size of the local mirror.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		id, err := charm.NewClient().ID()
		if err != nil {
			color.New(color.FgYellow).Fprintln(out, "Not linked to Charm")
			fmt.Fprintln(out, "\nRun 'readlist cloud link' to connect your account.")
		} else {
			color.New(color.FgGreen).Fprintln(out, "Linked to Charm")
			fmt.Fprintf(out, "  Account ID: %s\n", id)
			fmt.Fprintf(out, "  Server: %s\n", charm.DefaultCharmHost)
		}

		fmt.Fprintf(out, "\n  Backend: %s\n", cfg.Backend)
		if stats, err := svc.GetDatabaseStats(cmd.Context()); err == nil {
			fmt.Fprintf(out, "  Entries: %d (%d unread)\n", stats.TotalEntries, stats.UnreadEntries)
		}
		return nil
	},
}

var cloudLinkCmd = &cobra.Command{
	Use:         "link",
	Short:       "Link to Charm account",
	Long:        `Link this device to your Charm account using your SSH keys.`,
	Annotations: map[string]string{skipInit: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		id, err := charm.NewClient().ID()
		if err == nil {
			color.New(color.FgGreen).Fprintln(out, "Already linked to Charm!")
			fmt.Fprintf(out, "  Account ID: %s\n", id)
			return nil
		}

		fmt.Fprintln(out, "Link your Charm account in the browser:")
		fmt.Fprintf(out, "  https://%s\n\n", charm.DefaultCharmHost)
		color.New(color.FgYellow).Fprintln(out, "After linking, set \"backend\": \"charm\" in your config to store entries there.")
		return nil
	},
}

var cloudRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair a corrupted local database",
	Long: `Attempt to repair a corrupted local charm database.

Steps performed:
  1. Checkpoint WAL (write-ahead log) into main database
  2. Remove stale SHM (shared memory) files
  3. Run integrity check
  4. Vacuum database to reclaim space

Use --force to attempt REINDEX recovery if corruption is detected.`,
	Annotations: map[string]string{skipInit: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		out := cmd.OutOrStdout()
		green := color.New(color.FgGreen)

		fmt.Fprintln(out, "Repairing database...")
		result, err := kv.Repair(charm.DBName, force)

		if result != nil {
			if result.WalCheckpointed {
				green.Fprintln(out, "  ✓ WAL checkpointed")
			}
			if result.ShmRemoved {
				green.Fprintln(out, "  ✓ SHM file removed")
			}
			if result.IntegrityOK {
				green.Fprintln(out, "  ✓ Integrity check passed")
			} else {
				color.New(color.FgRed).Fprintln(out, "  ✗ Integrity check failed")
			}
			if result.Vacuumed {
				green.Fprintln(out, "  ✓ Database vacuumed")
			}
		}

		if err != nil {
			if !force {
				fmt.Fprintln(out, "\nRun with --force to attempt REINDEX recovery.")
			}
			return err
		}

		green.Fprintln(out, "\nRepair complete.")
		return nil
	},
}

var cloudResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete local database and re-download from cloud",
	Long: `Delete the local charm database and re-sync from Charm Cloud.

Any unsynced local changes will be lost.`,
	Annotations: map[string]string{skipInit: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "This will DELETE your local database and re-download from Charm Cloud.")
		fmt.Fprintln(out, "Any unsynced local data will be lost.")
		fmt.Fprint(out, "\nContinue? [y/N] ")

		if answer := readLine(cmd); answer != "y" && answer != "Y" {
			fmt.Fprintln(out, "Canceled.")
			return nil
		}

		fmt.Fprintln(out, "\nResetting database...")
		if err := kv.Reset(charm.DBName); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		green := color.New(color.FgGreen)
		green.Fprintln(out, "  ✓ Local database deleted")
		green.Fprintln(out, "  ✓ Synced from cloud")
		green.Fprintln(out, "\nReset complete.")
		return nil
	},
}

var cloudWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Permanently delete ALL data (local and cloud)",
	Long: `Permanently delete ALL charm data for readlist.

WARNING: This is destructive and cannot be undone!
This removes BOTH local data AND cloud backups. The reading list itself is
not touched; the next sync repopulates the mirror without tags or read state.`,
	Annotations: map[string]string{skipInit: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		color.New(color.FgRed).Fprintln(out, "WARNING: This will permanently delete ALL data!")
		fmt.Fprintln(out, "This includes local AND cloud data. This cannot be undone.")
		fmt.Fprint(out, "\nType 'wipe' to confirm: ")

		if readLine(cmd) != "wipe" {
			fmt.Fprintln(out, "Canceled.")
			return nil
		}

		fmt.Fprintln(out, "\nWiping database...")
		result, err := kv.Wipe(charm.DBName)
		if err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}

		green := color.New(color.FgGreen)
		if result.CloudBackupsDeleted > 0 {
			green.Fprintf(out, "  ✓ %d cloud backups deleted\n", result.CloudBackupsDeleted)
		}
		if result.LocalFilesDeleted > 0 {
			green.Fprintf(out, "  ✓ %d local files deleted\n", result.LocalFilesDeleted)
		}

		green.Fprintln(out, "\nWipe complete.")
		return nil
	},
}

// readLine reads one trimmed line of confirmation input.
func readLine(cmd *cobra.Command) string {
	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func init() {
	cloudRepairCmd.Flags().Bool("force", false, "Attempt REINDEX recovery if corruption detected")

	cloudCmd.AddCommand(cloudStatusCmd)
	cloudCmd.AddCommand(cloudLinkCmd)
	cloudCmd.AddCommand(cloudRepairCmd)
	cloudCmd.AddCommand(cloudResetCmd)
	cloudCmd.AddCommand(cloudWipeCmd)

	rootCmd.AddCommand(cloudCmd)
}
