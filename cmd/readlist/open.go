// ABOUTME: Open command for launching entry links in browser
// ABOUTME: Opens the entry's URL and marks the entry as read

package main

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

// browserOpener launches a URL; tests replace it.
var browserOpener = openBrowser

var openCmd = &cobra.Command{
	Use:   "open <entry-id>",
	Short: "Open entry link in browser and mark as read",
	Long:  "Open an entry's URL in your default browser and mark the entry as read. Accepts a full ID or a unique ID prefix.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		entry, err := svc.FindEntry(ctx, args[0])
		if err != nil {
			return err
		}

		// Validate URL format and scheme before handing it to the OS
		parsedURL, err := url.Parse(entry.URL)
		if err != nil {
			return fmt.Errorf("entry has malformed URL: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("entry URL must be http or https, got: %q", parsedURL.Scheme)
		}

		if err := browserOpener(parsedURL.String()); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}

		if !entry.IsRead {
			if _, err := svc.UpdateReadStatus(ctx, entry.ID, true); err != nil {
				return fmt.Errorf("failed to mark entry as read: %w", err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Opened and marked as read: %s\n", entry.Title)
		return nil
	},
}

// openBrowser opens a URL in the default browser for the current platform
func openBrowser(urlStr string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", urlStr)
	case "linux":
		cmd = exec.Command("xdg-open", urlStr)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", urlStr)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	// Reap the process asynchronously to prevent zombie processes
	go cmd.Wait() //nolint:errcheck

	return nil
}

func init() {
	rootCmd.AddCommand(openCmd)
}
