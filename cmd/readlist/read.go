// ABOUTME: Read command for viewing article content
// ABOUTME: Displays entry details with markdown rendering and marks the entry as read

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/config"
	"github.com/harper/readlist/internal/content"
	"github.com/harper/readlist/internal/timeutil"
)

var readCmd = &cobra.Command{
	Use:   "read <entry-id>",
	Short: "Read an article",
	Long: `Display an entry and its extracted content, then mark it as read.

Content is extracted on first read unless --no-extract is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noMark, _ := cmd.Flags().GetBool("no-mark")
		noExtract, _ := cmd.Flags().GetBool("no-extract")
		raw, _ := cmd.Flags().GetBool("raw")

		ctx := cmd.Context()
		entry, err := svc.FindEntry(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		if !entry.ContentExtracted && !noExtract {
			enriched, err := svc.EnrichEntry(ctx, entry.ID)
			if err != nil {
				fmt.Fprintf(out, "%s\n", faint(fmt.Sprintf("(extraction failed: %v)", err)))
			} else {
				entry = enriched
			}
		}

		separator := strings.Repeat("─", config.SeparatorWidth)
		fmt.Fprintln(out, separator)
		fmt.Fprintf(out, "%s\n\n", bold(entry.Title))

		if entry.SiteName != nil && *entry.SiteName != "" {
			fmt.Fprintf(out, "%s %s\n", faint("Site:"), *entry.SiteName)
		}
		if entry.Author != nil && *entry.Author != "" {
			fmt.Fprintf(out, "%s %s\n", faint("Author:"), *entry.Author)
		}
		if entry.PublishDate != nil && *entry.PublishDate != "" {
			fmt.Fprintf(out, "%s %s\n", faint("Published:"), *entry.PublishDate)
		}
		fmt.Fprintf(out, "%s %s (%s)\n", faint("Added:"), entry.AddTime.Local().Format(config.DateFormatLong), timeutil.Ago(entry.AddTime, time.Now()))
		if len(entry.Tags) > 0 {
			fmt.Fprintf(out, "%s %s\n", faint("Tags:"), strings.Join(entry.Tags, ", "))
		}
		fmt.Fprintf(out, "%s %s\n", faint("Link:"), cyan(entry.URL))
		fmt.Fprintln(out, separator)

		switch {
		case entry.HasContent():
			markdown := content.ToMarkdown(*entry.Content)
			if raw {
				fmt.Fprintf(out, "\n%s\n", markdown)
				break
			}
			rendered, err := glamour.Render(markdown, "dark")
			if err != nil {
				fmt.Fprintf(out, "%s\n", faint("(markdown rendering unavailable, showing plain text)"))
				fmt.Fprintf(out, "\n%s\n", markdown)
			} else {
				fmt.Fprint(out, rendered)
			}
		case entry.Excerpt != nil && *entry.Excerpt != "":
			fmt.Fprintf(out, "\n%s\n", *entry.Excerpt)
		default:
			fmt.Fprintln(out, "\n(No content available)")
		}
		fmt.Fprintln(out)

		if !noMark && !entry.IsRead {
			if _, err := svc.UpdateReadStatus(ctx, entry.ID, true); err != nil {
				return fmt.Errorf("failed to mark entry as read: %w", err)
			}
			fmt.Fprintf(out, "%s\n", faint("Marked as read"))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().Bool("no-mark", false, "don't mark the article as read")
	readCmd.Flags().Bool("no-extract", false, "don't fetch content when it is missing")
	readCmd.Flags().Bool("raw", false, "print markdown without terminal rendering")
}
