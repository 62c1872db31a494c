// ABOUTME: Tests for the install-skill command
// ABOUTME: Covers directory creation, file writing, and overwrite scenarios

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSkillCreatesNestedDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	skillPath := filepath.Join(tmpDir, ".claude", "skills", "readlist", "SKILL.md")

	if err := installSkillTo(skillPath); err != nil {
		t.Fatalf("installSkillTo failed: %v", err)
	}

	for _, dir := range []string{
		filepath.Join(tmpDir, ".claude"),
		filepath.Join(tmpDir, ".claude", "skills"),
		filepath.Join(tmpDir, ".claude", "skills", "readlist"),
	} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %q was not created: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%q should be a directory", dir)
		}
	}
}

func TestSkillFileContent(t *testing.T) {
	skillPath := filepath.Join(t.TempDir(), "SKILL.md")
	if err := installSkillTo(skillPath); err != nil {
		t.Fatalf("installSkillTo failed: %v", err)
	}

	content, err := os.ReadFile(skillPath)
	if err != nil {
		t.Fatalf("failed to read skill file: %v", err)
	}
	contentStr := string(content)

	if !strings.HasPrefix(contentStr, "---") {
		t.Error("skill file should start with YAML front matter (---)")
	}
	for _, section := range []string{
		"name: readlist",
		"# readlist",
		"## When to use readlist",
		"mcp__readlist__",
		"CLI commands",
	} {
		if !strings.Contains(contentStr, section) {
			t.Errorf("skill file missing expected section: %q", section)
		}
	}

	embedded, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatalf("failed to read embedded skill file: %v", err)
	}
	if contentStr != string(embedded) {
		t.Error("installed content does not match embedded content")
	}
}

func TestSkillOverwritesExisting(t *testing.T) {
	skillPath := filepath.Join(t.TempDir(), "readlist", "SKILL.md")
	if err := os.MkdirAll(filepath.Dir(skillPath), 0755); err != nil {
		t.Fatalf("failed to create skill directory: %v", err)
	}
	original := "# Old skill file content\nThis should be overwritten."
	if err := os.WriteFile(skillPath, []byte(original), 0644); err != nil {
		t.Fatalf("failed to write original file: %v", err)
	}

	if err := installSkillTo(skillPath); err != nil {
		t.Fatalf("installSkillTo failed: %v", err)
	}

	content, err := os.ReadFile(skillPath)
	if err != nil {
		t.Fatalf("failed to read skill file: %v", err)
	}
	if string(content) == original {
		t.Error("skill file should have been overwritten")
	}
}

func TestInstallSkillCommandUsesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	env := &cliEnv{configPath: filepath.Join(t.TempDir(), "config.json")}
	out := env.mustRun(t, "install-skill", "--yes")
	if !strings.Contains(out, "Installed readlist skill") {
		t.Errorf("unexpected output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".claude", "skills", "readlist", "SKILL.md")); err != nil {
		t.Errorf("skill not installed under HOME: %v", err)
	}
}
