// ABOUTME: Install Claude Code skill for readlist
// ABOUTME: Embeds and installs the skill definition to ~/.claude/skills/

package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed skill/SKILL.md
var skillFS embed.FS

var installSkillCmd = &cobra.Command{
	Use:   "install-skill",
	Short: "Install Claude Code skill",
	Long: `Install the readlist skill for Claude Code.

This copies the skill definition to ~/.claude/skills/readlist/
so Claude Code can use readlist commands contextually.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipInit: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		skillPath := filepath.Join(home, ".claude", "skills", "readlist", "SKILL.md")

		out := cmd.OutOrStdout()
		if _, err := os.Stat(skillPath); err == nil && !yes {
			fmt.Fprintf(out, "%s already exists. Overwrite? [y/N] ", skillPath)
			if answer := readLine(cmd); answer != "y" && answer != "Y" {
				fmt.Fprintln(out, "Canceled.")
				return nil
			}
		}

		if err := installSkillTo(skillPath); err != nil {
			return err
		}

		fmt.Fprintf(out, "Installed readlist skill to %s\n", skillPath)
		fmt.Fprintln(out, "Claude Code will now recognize /readlist commands.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installSkillCmd)
	installSkillCmd.Flags().BoolP("yes", "y", false, "overwrite an existing skill without asking")
}

// installSkillTo writes the embedded skill file to skillPath, creating parent directories.
func installSkillTo(skillPath string) error {
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		return fmt.Errorf("failed to read embedded skill: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(skillPath), 0755); err != nil {
		return fmt.Errorf("failed to create skill directory: %w", err)
	}

	if err := os.WriteFile(skillPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write skill file: %w", err)
	}
	return nil
}
