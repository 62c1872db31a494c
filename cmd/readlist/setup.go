// ABOUTME: Cobra command for interactive readlist configuration.
// ABOUTME: Launches a bubbletea TUI wizard to select backend, data directory and reading list.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harper/readlist/internal/fetch"
	"github.com/harper/readlist/internal/readinglist"
	"github.com/harper/readlist/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:         "setup",
	Short:       "Configure readlist storage and reading list",
	Long:        "Interactive wizard to configure the storage backend, data directory and reading list source.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipInit: "true"},
	RunE:        runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	current, err := loadConfig()
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewSetupModel(current), tea.WithContext(cmd.Context()))
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	out := cmd.OutOrStdout()
	if !final.ShouldSave() {
		fmt.Fprintln(out, "Setup canceled.")
		return nil
	}

	final.Apply(current)
	if current.Source.Kind == "feed" {
		feed, err := readinglist.DiscoverFeed(cmd.Context(), fetch.New(current.RequestTimeout), current.Source.URL)
		if err != nil {
			return fmt.Errorf("failed to find a feed at %s: %w", current.Source.URL, err)
		}
		if feed.URL != current.Source.URL {
			fmt.Fprintf(out, "Found feed: %s\n", feed.URL)
		}
		current.Source.URL = feed.URL
	}
	if err := current.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	path := configFile()
	if err := current.Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(out, "Config saved to %s\n", path)
	return nil
}
