// ABOUTME: Mark-read command for marking entries as read
// ABOUTME: Supports single entry by ID or bulk operations by add date

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/storage"
	"github.com/harper/readlist/internal/timeutil"
)

var markReadCmd = &cobra.Command{
	Use:   "mark-read [entry-id]",
	Short: "Mark entries as read",
	Long:  "Mark a single entry as read by ID, or use --before to mark all entries added before a date",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		before, _ := cmd.Flags().GetString("before")
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		// Single entry mode
		if len(args) == 1 {
			if before != "" {
				return fmt.Errorf("cannot use --before with an entry ID")
			}

			entry, err := svc.FindEntry(ctx, args[0])
			if err != nil {
				return err
			}
			if entry.IsRead {
				fmt.Fprintln(out, "Entry is already marked as read")
				return nil
			}
			if _, err := svc.UpdateReadStatus(ctx, entry.ID, true); err != nil {
				return fmt.Errorf("failed to mark entry as read: %w", err)
			}
			fmt.Fprintf(out, "Marked as read: %s\n", entry.Title)
			return nil
		}

		// Bulk mode requires --before
		if before == "" {
			return fmt.Errorf("provide an entry ID or use --before for bulk marking")
		}

		cutoff, err := timeutil.ParseCutoff(before, time.Now())
		if err != nil {
			return fmt.Errorf("invalid --before: %w", err)
		}

		end := cutoff.Add(-time.Millisecond)
		entries, err := svc.GetFilteredEntries(ctx,
			storage.Filter{Read: storage.UnreadOnly, AddedTo: &end}, storage.DefaultSort)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		count := 0
		for _, e := range entries {
			if _, err := svc.UpdateReadStatus(ctx, e.ID, true); err != nil {
				return fmt.Errorf("failed to mark %s as read after %d entries: %w", shortID(e.ID), count, err)
			}
			count++
		}

		if count == 0 {
			fmt.Fprintln(out, "No entries to mark as read")
		} else {
			fmt.Fprintf(out, "Marked %d entries as read\n", count)
		}
		return nil
	},
}

var markUnreadCmd = &cobra.Command{
	Use:   "mark-unread <entry-id>",
	Short: "Mark an entry as unread",
	Long:  "Mark an entry as unread by ID or ID prefix and clear its read time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		entry, err := svc.FindEntry(ctx, args[0])
		if err != nil {
			return err
		}
		if !entry.IsRead {
			fmt.Fprintln(out, "Entry is already unread")
			return nil
		}
		if _, err := svc.UpdateReadStatus(ctx, entry.ID, false); err != nil {
			return fmt.Errorf("failed to mark entry as unread: %w", err)
		}
		fmt.Fprintf(out, "Marked as unread: %s\n", entry.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(markReadCmd)
	rootCmd.AddCommand(markUnreadCmd)

	markReadCmd.Flags().StringP("before", "b", "", "mark entries added before: yesterday, week, month, 30d, or YYYY-MM-DD")
}
