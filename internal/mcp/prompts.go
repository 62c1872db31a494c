// ABOUTME: MCP prompt definitions and handlers
// ABOUTME: Provides workflow templates for triaging and reviewing a reading list

package mcp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.registerTriagePrompt()
	s.registerReadingSummaryPrompt()
	s.registerOrganizePrompt()
}

func promptResult(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}

func (s *Server) registerTriagePrompt() {
	s.mcpServer.AddPrompt(
		mcp.Prompt{
			Name:        "triage-reading-list",
			Description: "Work through the unread backlog: sync, decide what to read now, tag what to keep, and clear what is stale",
			Arguments: []mcp.PromptArgument{
				{
					Name:        "stale_after",
					Description: "Entries added before this period are candidates for bulk clearing (default: month)",
					Required:    false,
				},
			},
		},
		s.handleTriage,
	)
}

//nolint:funlen // Prompt handlers contain large template strings
func (s *Server) handleTriage(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	staleAfter := "month"
	if req.Params.Arguments != nil {
		if v, ok := req.Params.Arguments["stale_after"]; ok && v != "" {
			staleAfter = v
		}
	}

	template := fmt.Sprintf(`# Triage the Reading List

## Overview
Bring the unread backlog down to something you will actually read. Pull in the latest saves, pick a handful to read now, tag the keepers, and clear out what has gone stale.

## Workflow Steps

### Step 1: Sync
Call **sync_reading_list** so the local copy matches the reading list.
- outcome "completed" or "partial": continue
- outcome "source_empty" or "source_unavailable": nothing was changed locally; continue with what is stored

### Step 2: Size the Backlog
Read the **readlist://stats** resource.
- unread_entries tells you how big the backlog is
- the domains histogram shows where most saves come from

### Step 3: Scan Unread Entries
Read **readlist://entries/unread** or call **list_entries** with unread_only: true.
Group entries by domain and by topic from their titles.

### Step 4: Pick What to Read Now
Choose three to five entries worth reading today.
- call **extract_content** with their entry_id to fetch the article text
- call **get_entry** to read it
- call **mark_read** when done

### Step 5: Tag the Keepers
For entries worth keeping but not reading today, call **set_tags** with one or two topic tags.
Tags are local and never change the reading list itself.

### Step 6: Clear the Stale Tail
Call **list_entries** with unread_only: true and until: "%s" to see what has been sitting since before %s.
If nothing there is worth keeping, call **bulk_mark_read** with before: "%s".
Use **delete_entry** only for entries that should leave the reading list entirely.

## Report Back
Summarise:
- how many entries were synced, read, tagged and cleared
- the entries picked for today with one line each on why
`, staleAfter, staleAfter, staleAfter)

	return promptResult("Reading list triage workflow", template), nil
}

func (s *Server) registerReadingSummaryPrompt() {
	s.mcpServer.AddPrompt(
		mcp.Prompt{
			Name:        "reading-summary",
			Description: "Summarise what was saved and read over the last few days",
			Arguments: []mcp.PromptArgument{
				{
					Name:        "days",
					Description: "Number of days to cover (default: 7)",
					Required:    false,
				},
			},
		},
		s.handleReadingSummary,
	)
}

func (s *Server) handleReadingSummary(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	days := 7
	if req.Params.Arguments != nil {
		if d, ok := req.Params.Arguments["days"]; ok && d != "" {
			n, err := strconv.Atoi(d)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("days must be a positive integer, got %q", d)
			}
			days = n
		}
	}

	template := fmt.Sprintf(`# Reading Summary: Last %[1]d Days

## Steps
1. Call **list_entries** with since: "%[1]dd" to get everything saved in the period.
2. Split the results by is_read.
3. For read entries, call **get_entry** where content_extracted is true and note the main point of each article.
4. For unread entries, list them by domain and say which look most worth reading.
5. Read **readlist://stats** for overall totals to put the period in context.

## Output
- Saved this period, and how many of those were read
- Two or three themes across what was saved
- One-line takeaways for each read article
- A short "read next" list from the unread entries
`, days)

	return promptResult(fmt.Sprintf("Reading summary for the last %d days", days), template), nil
}

func (s *Server) registerOrganizePrompt() {
	s.mcpServer.AddPrompt(
		mcp.Prompt{
			Name:        "organize-tags",
			Description: "Review tag usage and retag entries into a small consistent set",
			Arguments:   []mcp.PromptArgument{},
		},
		s.handleOrganize,
	)
}

func (s *Server) handleOrganize(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	template := `# Organize Tags

## Steps
1. Read **readlist://stats** and look at the tags histogram.
2. Find near-duplicates (e.g. "go" and "golang") and tags used only once.
3. Propose a target set of at most ten tags and confirm it before changing anything.
4. For each entry carrying a tag being merged, call **list_entries** with that tag, then **set_tags** with the full new tag list. set_tags replaces tags, so include the tags you are keeping.
5. Read **readlist://stats** again and report the before and after histograms.
`

	return promptResult("Tag organization workflow", template), nil
}
