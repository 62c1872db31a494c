// ABOUTME: Extract command fetching readable article content for entries
// ABOUTME: Enriches one entry by ID or a batch of entries without content

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/config"
)

var extractCmd = &cobra.Command{
	Use:   "extract [entry-id]",
	Short: "Extract article content",
	Long: `Fetch article pages and store their readable content, excerpt, author and site name.

With an entry ID, extracts that entry (again, if it was already extracted).
Without one, extracts up to --limit entries that have no content yet, newest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			entry, err := svc.FindEntry(ctx, args[0])
			if err != nil {
				return err
			}
			enriched, err := svc.EnrichEntry(ctx, entry.ID)
			if err != nil {
				return fmt.Errorf("failed to extract content: %w", err)
			}
			if !enriched.ContentExtracted {
				fmt.Fprintf(out, "No content found for %s\n", enriched.Title)
				return nil
			}
			fmt.Fprintf(out, "Extracted: %s\n", enriched.Title)
			return nil
		}

		if limit < 0 {
			return fmt.Errorf("limit must be non-negative, got %d", limit)
		}
		n, err := svc.EnrichPending(ctx, limit)
		fmt.Fprintf(out, "Extracted content for %d entries\n", n)
		if err != nil {
			color.New(color.FgYellow).Fprintf(out, "Some extractions failed:\n%v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().IntP("limit", "n", config.DefaultEnrichLimit, "max entries to extract when no ID is given")
}
