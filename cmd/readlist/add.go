// ABOUTME: Add command for saving a URL to the reading list
// ABOUTME: Writes through to the reading list first, then mirrors locally

package main

import (
	"fmt"
	"net/url"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Save a URL to the reading list",
	Long: `Save a URL to the reading list and mirror it locally.

The entry is created in the reading list first; nothing is stored locally
if that fails. Use --extract to fetch the article text right away.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		doExtract, _ := cmd.Flags().GetBool("extract")
		tags, _ := cmd.Flags().GetStringSlice("tag")

		parsedURL, err := url.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("URL must use http or https scheme, got: %q", parsedURL.Scheme)
		}

		ctx := cmd.Context()
		entry, err := svc.AddEntry(ctx, args[0], title)
		if err != nil {
			return fmt.Errorf("failed to add entry: %w", err)
		}

		if len(tags) > 0 {
			if _, err := svc.UpdateTags(ctx, entry.ID, tags); err != nil {
				return fmt.Errorf("failed to tag entry: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added %s %s\n", color.New(color.Faint).Sprint(shortID(entry.ID)), entry.Title)

		if doExtract {
			enriched, err := svc.EnrichEntry(ctx, entry.ID)
			if err != nil {
				color.New(color.FgYellow).Fprintf(out, "  extraction failed: %v\n", err)
				return nil
			}
			if enriched.ContentExtracted {
				fmt.Fprintf(out, "  extracted: %s\n", enriched.Title)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().String("title", "", "entry title (defaults to the URL)")
	addCmd.Flags().Bool("extract", false, "extract article content after adding")
	addCmd.Flags().StringSlice("tag", nil, "tag to apply (repeatable)")
}
