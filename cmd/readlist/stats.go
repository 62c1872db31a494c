// ABOUTME: Stats command summarising the local mirror
// ABOUTME: Shows totals, storage used, and the top domains and tags

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/storage"
	"github.com/harper/readlist/internal/timeutil"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reading list statistics",
	Long:  "Show entry totals, read progress, storage used, and the most common domains and tags.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		ctx := cmd.Context()

		stats, err := svc.GetDatabaseStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		domains, err := svc.GetDomainStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get domain stats: %w", err)
		}
		tags, err := svc.GetTagStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get tag stats: %w", err)
		}

		out := cmd.OutOrStdout()
		bold := color.New(color.Bold).SprintFunc()
		now := time.Now()

		fmt.Fprintln(out, bold("Reading list"))
		fmt.Fprintf(out, "  Entries:  %s (%s unread, %s read)\n",
			humanize.Comma(int64(stats.TotalEntries)),
			humanize.Comma(int64(stats.UnreadEntries)),
			humanize.Comma(int64(stats.ReadEntries)))
		if stats.TotalEntries > 0 {
			fmt.Fprintf(out, "  Progress: %.0f%% read\n", 100*float64(stats.ReadEntries)/float64(stats.TotalEntries))
			fmt.Fprintf(out, "  Newest:   %s\n", timeutil.Ago(stats.NewestEntryDate, now))
			fmt.Fprintf(out, "  Oldest:   %s\n", timeutil.Ago(stats.OldestEntryDate, now))
		}
		fmt.Fprintf(out, "  Storage:  %s\n", humanize.Bytes(uint64(max(stats.TotalStorageUsed, 0))))
		if stats.AverageContentLength > 0 {
			fmt.Fprintf(out, "  Average article: %s characters\n", humanize.Comma(int64(stats.AverageContentLength)))
		}

		printHistogram(out, bold("Top domains"), domains, top)
		printHistogram(out, bold("Top tags"), tags, top)
		return nil
	},
}

func printHistogram(out io.Writer, title string, counts []storage.KeyCount, top int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", title)
	if top > 0 && top < len(counts) {
		counts = counts[:top]
	}
	for _, kc := range counts {
		fmt.Fprintf(out, "  %5d  %s\n", kc.Count, kc.Key)
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("top", 10, "number of domains and tags to show (0 for all)")
}
