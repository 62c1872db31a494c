// ABOUTME: Tests for CLI commands
// ABOUTME: Tests command structure, flags, and subcommands

package main

import (
	"testing"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "readlist" {
		t.Errorf("expected Use to be 'readlist', got %q", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected root command to have a short description")
	}
}

func TestRootPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "verbose"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestListCommand(t *testing.T) {
	if listCmd.Use != "list" {
		t.Errorf("expected Use to be 'list', got %q", listCmd.Use)
	}
	if len(listCmd.Aliases) == 0 {
		t.Error("expected list command to have aliases")
	}

	flags := []string{
		"all", "read", "domain", "tag", "search", "since", "until",
		"today", "yesterday", "week", "sort", "asc", "limit", "offset",
	}
	for _, name := range flags {
		if listCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestReadCommand(t *testing.T) {
	if readCmd.Use != "read <entry-id>" {
		t.Errorf("expected Use to be 'read <entry-id>', got %q", readCmd.Use)
	}
	if readCmd.Flags().Lookup("no-mark") == nil {
		t.Error("expected --no-mark flag to exist")
	}
	if readCmd.Flags().Lookup("no-extract") == nil {
		t.Error("expected --no-extract flag to exist")
	}
}

func TestMarkReadCommand(t *testing.T) {
	if markReadCmd.Use != "mark-read [entry-id]" {
		t.Errorf("expected Use to be 'mark-read [entry-id]', got %q", markReadCmd.Use)
	}
	if markReadCmd.Flags().Lookup("before") == nil {
		t.Error("expected --before flag to exist")
	}
}

func TestMarkUnreadCommand(t *testing.T) {
	if markUnreadCmd.Use != "mark-unread <entry-id>" {
		t.Errorf("expected Use to be 'mark-unread <entry-id>', got %q", markUnreadCmd.Use)
	}
}

func TestAddCommand(t *testing.T) {
	if addCmd.Use != "add <url>" {
		t.Errorf("expected Use to be 'add <url>', got %q", addCmd.Use)
	}
	for _, name := range []string{"title", "extract", "tag"} {
		if addCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestRemoveCommand(t *testing.T) {
	if rmCmd.Use != "rm <entry-id>" {
		t.Errorf("expected Use to be 'rm <entry-id>', got %q", rmCmd.Use)
	}
	if len(rmCmd.Aliases) == 0 {
		t.Error("expected rm command to have aliases")
	}
}

func TestSyncCommand(t *testing.T) {
	for _, name := range []string{"watch", "interval", "metrics-addr", "extract"} {
		if syncCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestMigrateCommand(t *testing.T) {
	if migrateCmd.Flags().Lookup("to") == nil {
		t.Error("expected --to flag to exist")
	}
	if migrateCmd.Flags().Lookup("force") == nil {
		t.Error("expected --force flag to exist")
	}
}

func TestInstallSkillCommand(t *testing.T) {
	if installSkillCmd.Use != "install-skill" {
		t.Errorf("expected Use to be 'install-skill', got %q", installSkillCmd.Use)
	}
	if installSkillCmd.Flags().Lookup("yes") == nil {
		t.Error("expected --yes flag to exist")
	}
}

func TestSkipInitCommands(t *testing.T) {
	for _, cmd := range []string{"version", "setup", "install-skill"} {
		found, _, err := rootCmd.Find([]string{cmd})
		if err != nil {
			t.Fatalf("find %s: %v", cmd, err)
		}
		if found.Annotations[skipInit] != "true" {
			t.Errorf("expected %s to skip storage init", cmd)
		}
	}
}

func TestCommandRegistration(t *testing.T) {
	commandNames := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		commandNames[cmd.Name()] = true
	}

	expectedCommands := []string{
		"list",
		"read",
		"open",
		"add",
		"edit",
		"tag",
		"rm",
		"mark-read",
		"mark-unread",
		"sync",
		"extract",
		"stats",
		"export",
		"import-sample",
		"migrate",
		"cloud",
		"setup",
		"mcp",
		"version",
		"install-skill",
	}

	for _, expected := range expectedCommands {
		if !commandNames[expected] {
			t.Errorf("expected command %q to be registered", expected)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("aaaa1111-0000-4000-8000-000000000001"); got != "aaaa1111" {
		t.Errorf("shortID = %q, want aaaa1111", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID = %q, want abc", got)
	}
}
