// ABOUTME: List command for viewing reading-list entries with filtering options
// ABOUTME: Displays entries with read status, title, domain and age using color formatting

package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/config"
	"github.com/harper/readlist/internal/storage"
	"github.com/harper/readlist/internal/timeutil"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List reading-list entries",
	Long: `List entries with optional filtering by read state, domain, tag, text and add time.

Unread entries are shown by default, newest added first.

Examples:
  readlist list
  readlist list --all --domain go.dev
  readlist list --tag golang --since 7d
  readlist list --search concurrency --sort title --asc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		readOnly, _ := cmd.Flags().GetBool("read")
		domain, _ := cmd.Flags().GetString("domain")
		tag, _ := cmd.Flags().GetString("tag")
		search, _ := cmd.Flags().GetString("search")
		since, _ := cmd.Flags().GetString("since")
		until, _ := cmd.Flags().GetString("until")
		today, _ := cmd.Flags().GetBool("today")
		yesterday, _ := cmd.Flags().GetBool("yesterday")
		week, _ := cmd.Flags().GetBool("week")
		sortField, _ := cmd.Flags().GetString("sort")
		asc, _ := cmd.Flags().GetBool("asc")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		if limit < 0 || offset < 0 {
			return fmt.Errorf("limit and offset must be non-negative")
		}

		now := time.Now()
		filter := storage.Filter{Domain: domain, Search: search}
		switch {
		case readOnly:
			filter.Read = storage.ReadOnly
		case !all:
			filter.Read = storage.UnreadOnly
		}
		if tag != "" {
			filter.Tags = []string{tag}
		}

		// Smart views map onto a period window.
		period := ""
		switch {
		case today:
			period = "today"
		case yesterday:
			period = "yesterday"
		case week:
			period = "week"
		}
		if period != "" {
			w, err := timeutil.ParsePeriod(period, now)
			if err != nil {
				return err
			}
			filter.AddedFrom, filter.AddedTo = w.From, w.To
		}
		if since != "" {
			from, err := timeutil.ParseCutoff(since, now)
			if err != nil {
				return fmt.Errorf("invalid --since: %w", err)
			}
			filter.AddedFrom = &from
		}
		if until != "" {
			to, err := timeutil.ParseCutoff(until, now)
			if err != nil {
				return fmt.Errorf("invalid --until: %w", err)
			}
			end := to.Add(-time.Millisecond)
			filter.AddedTo = &end
		}

		sort := storage.Sort{Field: storage.SortField(sortField), Descending: !asc}
		switch sort.Field {
		case storage.SortAddTime, storage.SortTitle, storage.SortLastUpdateTime,
			storage.SortLastReadTime, storage.SortPublishDate:
		default:
			return fmt.Errorf("unknown sort field %q", sortField)
		}

		entries, err := svc.GetFilteredEntries(cmd.Context(), filter, sort)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if offset >= len(entries) {
			entries = nil
		} else {
			entries = entries[offset:]
		}
		if limit > 0 && limit < len(entries) {
			entries = entries[:limit]
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No entries found")
			return nil
		}

		faint := color.New(color.Faint).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		for _, entry := range entries {
			fmt.Fprint(out, faint(shortID(entry.ID)), " ")

			if entry.IsRead {
				fmt.Fprint(out, "✓ ")
			} else {
				fmt.Fprint(out, "  ")
			}

			fmt.Fprint(out, entry.Title)
			if entry.Domain != "" {
				fmt.Fprint(out, " ", cyan(entry.Domain))
			}
			for _, t := range entry.Tags {
				fmt.Fprint(out, " ", faint("#"+t))
			}
			fmt.Fprint(out, " ", faint(timeutil.Ago(entry.AddTime, now)))
			fmt.Fprintln(out)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("all", "a", false, "show all entries including read")
	listCmd.Flags().Bool("read", false, "show only read entries")
	listCmd.Flags().StringP("domain", "d", "", "filter by domain")
	listCmd.Flags().StringP("tag", "t", "", "filter by tag")
	listCmd.Flags().StringP("search", "s", "", "search title, content, excerpt, author and site")
	listCmd.Flags().String("since", "", "added on or after: today, week, month, 7d, or YYYY-MM-DD")
	listCmd.Flags().String("until", "", "added before: today, week, month, 7d, or YYYY-MM-DD")
	listCmd.Flags().Bool("today", false, "show only today's entries")
	listCmd.Flags().Bool("yesterday", false, "show only yesterday's entries")
	listCmd.Flags().Bool("week", false, "show only this week's entries")
	listCmd.Flags().String("sort", string(storage.SortAddTime), "sort by addTime, title, lastUpdateTime, lastReadTime or publishDate")
	listCmd.Flags().Bool("asc", false, "sort ascending")
	listCmd.Flags().IntP("limit", "n", config.DefaultListLimit, "max entries to show (0 for all)")
	listCmd.Flags().IntP("offset", "o", 0, "number of entries to skip (for pagination)")

	listCmd.MarkFlagsMutuallyExclusive("today", "yesterday", "week", "since")
	listCmd.MarkFlagsMutuallyExclusive("all", "read")
}
