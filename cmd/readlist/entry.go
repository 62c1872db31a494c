// ABOUTME: Commands that change a single entry: tag, edit and rm
// ABOUTME: Title and URL edits are pushed to the reading list; tags stay local

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/models"
	"github.com/harper/readlist/internal/service"
)

var tagCmd = &cobra.Command{
	Use:   "tag <entry-id> [tags...]",
	Short: "Set an entry's tags",
	Long: `Replace an entry's tags with the given list.

Duplicate and blank tags are dropped. Run with no tags, or with --clear, to remove all tags.

Examples:
  readlist tag 3f2a9c1e golang concurrency
  readlist tag 3f2a9c1e --clear`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clearTags, _ := cmd.Flags().GetBool("clear")
		ctx := cmd.Context()

		entry, err := svc.FindEntry(ctx, args[0])
		if err != nil {
			return err
		}
		tags := args[1:]
		if clearTags {
			if len(tags) > 0 {
				return fmt.Errorf("cannot use --clear with tags")
			}
			tags = nil
		}

		updated, err := svc.UpdateTags(ctx, entry.ID, tags)
		if err != nil {
			return fmt.Errorf("failed to set tags: %w", err)
		}
		if updated == nil {
			return fmt.Errorf("entry not found: %s", args[0])
		}

		out := cmd.OutOrStdout()
		if len(updated.Tags) == 0 {
			fmt.Fprintf(out, "Cleared tags: %s\n", updated.Title)
			return nil
		}
		fmt.Fprintf(out, "Tagged %s: %s\n", updated.Title, strings.Join(updated.Tags, ", "))
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <entry-id>",
	Short: "Change an entry's title or URL",
	Long: `Change an entry's title and/or URL locally and in the reading list.

If the reading list cannot be updated the local change is kept and a warning
is printed; the next sync restores the reading list's values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var patch models.Patch
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			patch.Title = &title
		}
		if cmd.Flags().Changed("url") {
			u, _ := cmd.Flags().GetString("url")
			patch.URL = &u
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change: use --title or --url")
		}

		entry, err := svc.FindEntry(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		updated, err := svc.UpdateEntry(ctx, entry.ID, patch)
		var divergence *service.DivergenceError
		switch {
		case errors.As(err, &divergence):
			color.New(color.FgYellow).Fprintf(out, "Warning: %v\n", divergence)
		case err != nil:
			return fmt.Errorf("failed to update entry: %w", err)
		}
		if updated == nil {
			return fmt.Errorf("entry not found: %s", args[0])
		}

		fmt.Fprintf(out, "Updated %s: %s <%s>\n", shortID(updated.ID), updated.Title, updated.URL)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <entry-id>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove an entry from the reading list",
	Long: `Remove an entry from the reading list and then from the local mirror.

If the reading list cannot be updated the local entry is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		entry, err := svc.FindEntry(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteEntry(ctx, entry.ID); err != nil {
			return fmt.Errorf("failed to remove entry: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed: %s\n", entry.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)

	tagCmd.Flags().Bool("clear", false, "remove all tags")
	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("url", "", "new URL")
}
