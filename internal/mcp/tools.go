// ABOUTME: MCP tool definitions and handlers for reading-list operations
// ABOUTME: Provides tools for adding, listing, tagging, reading and syncing entries

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/harper/readlist/internal/config"
	"github.com/harper/readlist/internal/models"
	"github.com/harper/readlist/internal/service"
	"github.com/harper/readlist/internal/storage"
	"github.com/harper/readlist/internal/timeutil"
	"github.com/mark3labs/mcp-go/mcp"
)

// Type definitions for input/output structures

type ListEntriesInput struct {
	UnreadOnly *bool   `json:"unread_only,omitempty"`
	ReadOnly   *bool   `json:"read_only,omitempty"`
	Domain     *string `json:"domain,omitempty"`
	Tag        *string `json:"tag,omitempty"`
	Search     *string `json:"search,omitempty"`
	Since      *string `json:"since,omitempty"`
	Until      *string `json:"until,omitempty"`
	Sort       *string `json:"sort,omitempty"`
	Ascending  *bool   `json:"ascending,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
	Offset     *int    `json:"offset,omitempty"`
}

type EntryOutput struct {
	ID               string     `json:"id"`
	URL              string     `json:"url"`
	Title            string     `json:"title"`
	Domain           string     `json:"domain,omitempty"`
	AddTime          time.Time  `json:"add_time"`
	LastUpdateTime   time.Time  `json:"last_update_time"`
	IsRead           bool       `json:"is_read"`
	LastReadTime     *time.Time `json:"last_read_time,omitempty"`
	Tags             []string   `json:"tags"`
	Excerpt          *string    `json:"excerpt,omitempty"`
	SiteName         *string    `json:"site_name,omitempty"`
	Author           *string    `json:"author,omitempty"`
	ContentExtracted bool       `json:"content_extracted"`
}

type ListEntriesOutput struct {
	Entries []EntryOutput  `json:"entries"`
	Count   int            `json:"count"`
	Total   int            `json:"total"`
	Filters map[string]any `json:"filters"`
}

type EntryIDInput struct {
	EntryID string `json:"entry_id"`
}

type GetEntryOutput struct {
	EntryOutput
	Content     *string `json:"content,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	PublishDate *string `json:"publish_date,omitempty"`
}

type AddEntryInput struct {
	URL   string  `json:"url"`
	Title *string `json:"title,omitempty"`
}

type UpdateEntryInput struct {
	EntryID string  `json:"entry_id"`
	Title   *string `json:"title,omitempty"`
	URL     *string `json:"url,omitempty"`
}

type UpdateEntryOutput struct {
	Entry   EntryOutput `json:"entry"`
	Warning string      `json:"warning,omitempty"`
}

type SetTagsInput struct {
	EntryID string   `json:"entry_id"`
	Tags    []string `json:"tags"`
}

type DeleteEntryOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type BulkMarkReadInput struct {
	Before string `json:"before"`
}

type BulkMarkReadOutput struct {
	Count   int       `json:"count"`
	Before  time.Time `json:"before"`
	Message string    `json:"message"`
}

type SyncOutput struct {
	Outcome    string   `json:"outcome"`
	Fetched    int      `json:"fetched"`
	Added      int      `json:"added"`
	Updated    int      `json:"updated"`
	Deleted    int      `json:"deleted"`
	Errors     []string `json:"errors,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

type ExtractInput struct {
	EntryID *string `json:"entry_id,omitempty"`
	Limit   *int    `json:"limit,omitempty"`
}

type ExtractOutput struct {
	Enriched int    `json:"enriched"`
	Message  string `json:"message"`
}

// Tool registration

func (s *Server) registerTools() {
	s.registerListEntriesTool()
	s.registerGetEntryTool()
	s.registerAddEntryTool()
	s.registerUpdateEntryTool()
	s.registerMarkReadTool()
	s.registerMarkUnreadTool()
	s.registerSetTagsTool()
	s.registerDeleteEntryTool()
	s.registerBulkMarkReadTool()
	s.registerSyncTool()
	s.registerExtractTool()
}

func entryIDSchema(action string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": fmt.Sprintf("The entry ID or a unique ID prefix to %s. Example: '3f2a9c1e'", action),
	}
}

func (s *Server) registerListEntriesTool() {
	tool := mcp.Tool{
		Name:        "list_entries",
		Description: "List reading-list entries with optional filtering. Combine unread_only, domain, tag, search and since/until to narrow results. 'since' accepts 'today', 'yesterday', 'week', 'month', a span like '7d', or an ISO date (YYYY-MM-DD). Results are newest-added first unless sort says otherwise. Use get_entry to read extracted content.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"unread_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, returns only unread entries. Example: true",
				},
				"read_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, returns only entries already read. Ignored when unread_only is true.",
				},
				"domain": map[string]interface{}{
					"type":        "string",
					"description": "Only entries whose URL host matches exactly. Example: 'go.dev'",
				},
				"tag": map[string]interface{}{
					"type":        "string",
					"description": "Only entries carrying this tag. Example: 'golang'",
				},
				"search": map[string]interface{}{
					"type":        "string",
					"description": "Case-insensitive text matched against title, content, excerpt, author and site name.",
				},
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Only entries added on or after this point. Accepts 'today', 'yesterday', 'week', 'month', '7d', '36h' or YYYY-MM-DD.",
				},
				"until": map[string]interface{}{
					"type":        "string",
					"description": "Only entries added before this point. Same formats as since.",
				},
				"sort": map[string]interface{}{
					"type":        "string",
					"description": "Sort field: addTime (default), title, lastUpdateTime, lastReadTime or publishDate.",
				},
				"ascending": map[string]interface{}{
					"type":        "boolean",
					"description": "Sort ascending instead of descending. Default: false",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries to return. Example: 50",
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of entries to skip for pagination. Example: 20",
				},
			},
		},
	}
	s.mcpServer.AddTool(tool, s.handleListEntries)
}

func (s *Server) registerGetEntryTool() {
	tool := mcp.Tool{
		Name:        "get_entry",
		Description: "Get the full details of a single entry including any extracted article content as Markdown. Supports full entry IDs and unique ID prefixes.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"entry_id": entryIDSchema("read")},
			Required:   []string{"entry_id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleGetEntry)
}

func (s *Server) registerAddEntryTool() {
	tool := mcp.Tool{
		Name:        "add_entry",
		Description: "Save a URL to the reading list. The entry is created in the reading list first and then mirrored locally under the ID the reading list assigns. Nothing is saved locally if the reading list rejects it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "The page URL (http or https). Example: 'https://go.dev/blog/pipelines'",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Optional title. Defaults to the URL. Example: 'Go Concurrency Patterns'",
				},
			},
			Required: []string{"url"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleAddEntry)
}

func (s *Server) registerUpdateEntryTool() {
	tool := mcp.Tool{
		Name:        "update_entry",
		Description: "Change an entry's title and/or URL. The change is saved locally and then pushed to the reading list. If the reading list cannot be updated the local change is kept and a warning is returned; the next sync restores the reading list's values.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entry_id": entryIDSchema("update"),
				"title": map[string]interface{}{
					"type":        "string",
					"description": "New title.",
				},
				"url": map[string]interface{}{
					"type":        "string",
					"description": "New URL (http or https).",
				},
			},
			Required: []string{"entry_id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleUpdateEntry)
}

func (s *Server) registerMarkReadTool() {
	tool := mcp.Tool{
		Name:        "mark_read",
		Description: "Mark an entry as read. Records the read time on the first transition to read. Returns the updated entry.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"entry_id": entryIDSchema("mark as read")},
			Required:   []string{"entry_id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleMarkRead)
}

func (s *Server) registerMarkUnreadTool() {
	tool := mcp.Tool{
		Name:        "mark_unread",
		Description: "Mark an entry as unread and clear its read time. Returns the updated entry.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"entry_id": entryIDSchema("mark as unread")},
			Required:   []string{"entry_id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleMarkUnread)
}

func (s *Server) registerSetTagsTool() {
	tool := mcp.Tool{
		Name:        "set_tags",
		Description: "Replace an entry's tags. The list given becomes the full tag set; pass an empty list to clear tags. Tags are local and never sent to the reading list.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entry_id": entryIDSchema("tag"),
				"tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "The complete new tag set. Example: ['golang', 'concurrency']",
				},
			},
			Required: []string{"entry_id", "tags"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleSetTags)
}

func (s *Server) registerDeleteEntryTool() {
	tool := mcp.Tool{
		Name:        "delete_entry",
		Description: "Remove an entry from the reading list and then locally. If the reading list cannot be reached the local entry is kept and an error is returned. This action cannot be undone.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"entry_id": entryIDSchema("delete")},
			Required:   []string{"entry_id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleDeleteEntry)
}

func (s *Server) registerBulkMarkReadTool() {
	tool := mcp.Tool{
		Name:        "bulk_mark_read",
		Description: "Mark every unread entry added before a point in time as read. Accepts period names (yesterday, week, month), spans like '30d', or ISO dates (YYYY-MM-DD). Returns the count of entries marked.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"before": map[string]interface{}{
					"type":        "string",
					"description": "Mark entries added before this date/period as read. Example: 'month' or '2024-01-15'",
				},
			},
			Required: []string{"before"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleBulkMarkRead)
}

func (s *Server) registerSyncTool() {
	tool := mcp.Tool{
		Name:        "sync_reading_list",
		Description: "Reconcile the local copy with the reading list: add new entries, refresh changed titles and URLs, and drop entries removed upstream. An empty or unreachable reading list leaves the local copy untouched. Returns counts and the outcome.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
	s.mcpServer.AddTool(tool, s.handleSync)
}

func (s *Server) registerExtractTool() {
	tool := mcp.Tool{
		Name:        "extract_content",
		Description: "Fetch article pages and store their readable content, excerpt, author and site name. With entry_id, extracts that entry; otherwise extracts up to limit entries that have no content yet.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entry_id": entryIDSchema("extract"),
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Maximum entries to extract when entry_id is omitted. Default: %d", config.DefaultEnrichLimit),
				},
			},
		},
	}
	s.mcpServer.AddTool(tool, s.handleExtract)
}

// Handler implementations

func (s *Server) handleListEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ListEntriesInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if input.Offset != nil && *input.Offset < 0 {
		return nil, fmt.Errorf("offset must be non-negative, got %d", *input.Offset)
	}
	if input.Limit != nil && *input.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative, got %d", *input.Limit)
	}

	filter, filters, err := s.buildFilter(input)
	if err != nil {
		return nil, err
	}
	sort, err := parseSort(input.Sort, input.Ascending)
	if err != nil {
		return nil, err
	}

	entries, err := s.svc.GetFilteredEntries(ctx, filter, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	total := len(entries)
	entries = paginate(entries, input.Offset, input.Limit)

	outputs := make([]EntryOutput, 0, len(entries))
	for _, e := range entries {
		outputs = append(outputs, toEntryOutput(e))
	}

	return jsonResult(ListEntriesOutput{
		Entries: outputs,
		Count:   len(outputs),
		Total:   total,
		Filters: filters,
	})
}

func (s *Server) buildFilter(input ListEntriesInput) (storage.Filter, map[string]any, error) {
	var filter storage.Filter
	filters := map[string]any{}

	switch {
	case input.UnreadOnly != nil && *input.UnreadOnly:
		filter.Read = storage.UnreadOnly
		filters["unread_only"] = true
	case input.ReadOnly != nil && *input.ReadOnly:
		filter.Read = storage.ReadOnly
		filters["read_only"] = true
	}
	if input.Domain != nil && *input.Domain != "" {
		filter.Domain = *input.Domain
		filters["domain"] = *input.Domain
	}
	if input.Tag != nil && *input.Tag != "" {
		filter.Tags = []string{*input.Tag}
		filters["tag"] = *input.Tag
	}
	if input.Search != nil && *input.Search != "" {
		filter.Search = *input.Search
		filters["search"] = *input.Search
	}
	if input.Since != nil {
		since, err := timeutil.ParseCutoff(*input.Since, s.now())
		if err != nil {
			return filter, nil, fmt.Errorf("invalid since value: %w", err)
		}
		filter.AddedFrom = &since
		filters["since"] = since
	}
	if input.Until != nil {
		until, err := timeutil.ParseCutoff(*input.Until, s.now())
		if err != nil {
			return filter, nil, fmt.Errorf("invalid until value: %w", err)
		}
		// AddedTo is inclusive; until is not.
		end := until.Add(-time.Millisecond)
		filter.AddedTo = &end
		filters["until"] = until
	}
	return filter, filters, nil
}

func (s *Server) handleGetEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input EntryIDInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	entry, err := s.svc.FindEntry(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}
	return jsonResult(toGetEntryOutput(entry))
}

func (s *Server) handleAddEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input AddEntryInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if err := validateURL(input.URL); err != nil {
		return nil, err
	}

	title := ""
	if input.Title != nil {
		title = *input.Title
	}
	entry, err := s.svc.AddEntry(ctx, input.URL, title)
	if err != nil {
		return nil, fmt.Errorf("failed to add entry: %w", err)
	}
	return jsonResult(toEntryOutput(entry))
}

func (s *Server) handleUpdateEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input UpdateEntryInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if input.Title == nil && input.URL == nil {
		return nil, fmt.Errorf("nothing to update: provide title or url")
	}
	if input.URL != nil {
		if err := validateURL(*input.URL); err != nil {
			return nil, err
		}
	}

	entry, err := s.svc.FindEntry(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}

	updated, err := s.svc.UpdateEntry(ctx, entry.ID, models.Patch{Title: input.Title, URL: input.URL})
	output := UpdateEntryOutput{}
	var divergence *service.DivergenceError
	switch {
	case errors.As(err, &divergence):
		output.Warning = divergence.Error()
	case err != nil:
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("entry not found: %s", input.EntryID)
	}
	output.Entry = toEntryOutput(updated)
	return jsonResult(output)
}

func (s *Server) handleMarkRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.setReadStatus(ctx, req, true)
}

func (s *Server) handleMarkUnread(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.setReadStatus(ctx, req, false)
}

func (s *Server) setReadStatus(ctx context.Context, req mcp.CallToolRequest, isRead bool) (*mcp.CallToolResult, error) {
	var input EntryIDInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	entry, err := s.svc.FindEntry(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}
	updated, err := s.svc.UpdateReadStatus(ctx, entry.ID, isRead)
	if err != nil {
		return nil, fmt.Errorf("failed to update read status: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("entry not found: %s", input.EntryID)
	}
	return jsonResult(toEntryOutput(updated))
}

func (s *Server) handleSetTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SetTagsInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	entry, err := s.svc.FindEntry(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}
	updated, err := s.svc.UpdateTags(ctx, entry.ID, input.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to set tags: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("entry not found: %s", input.EntryID)
	}
	return jsonResult(toEntryOutput(updated))
}

func (s *Server) handleDeleteEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input EntryIDInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	entry, err := s.svc.FindEntry(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeleteEntry(ctx, entry.ID); err != nil {
		return nil, fmt.Errorf("failed to delete entry: %w", err)
	}

	return jsonResult(DeleteEntryOutput{
		Success: true,
		Message: fmt.Sprintf("Entry '%s' removed from the reading list", entry.Title),
		ID:      entry.ID,
	})
}

func (s *Server) handleBulkMarkRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input BulkMarkReadInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	cutoff, err := timeutil.ParseCutoff(input.Before, s.now())
	if err != nil {
		return nil, fmt.Errorf("invalid before value: %w", err)
	}

	end := cutoff.Add(-time.Millisecond)
	entries, err := s.svc.GetFilteredEntries(ctx,
		storage.Filter{Read: storage.UnreadOnly, AddedTo: &end}, storage.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	count := 0
	for _, e := range entries {
		if _, err := s.svc.UpdateReadStatus(ctx, e.ID, true); err != nil {
			return nil, fmt.Errorf("failed to mark %s as read after %d entries: %w", e.ID, count, err)
		}
		count++
	}

	output := BulkMarkReadOutput{Count: count, Before: cutoff}
	if count == 0 {
		output.Message = "No entries to mark as read"
	} else {
		output.Message = fmt.Sprintf("Marked %d entries as read", count)
	}
	return jsonResult(output)
}

func (s *Server) handleSync(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.syncer == nil {
		return nil, fmt.Errorf("sync is not configured for this server")
	}

	summary, err := s.syncer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}

	output := SyncOutput{
		Outcome:    string(summary.Outcome),
		Fetched:    summary.Fetched,
		Added:      summary.Added,
		Updated:    summary.Updated,
		Deleted:    summary.Deleted,
		DurationMS: summary.Duration.Milliseconds(),
	}
	for _, e := range summary.Errors {
		output.Errors = append(output.Errors, e.Error())
	}
	return jsonResult(output)
}

func (s *Server) handleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ExtractInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if input.EntryID != nil && *input.EntryID != "" {
		entry, err := s.svc.FindEntry(ctx, *input.EntryID)
		if err != nil {
			return nil, err
		}
		enriched, err := s.svc.EnrichEntry(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to extract content: %w", err)
		}
		return jsonResult(toGetEntryOutput(enriched))
	}

	limit := config.DefaultEnrichLimit
	if input.Limit != nil {
		if *input.Limit < 0 {
			return nil, fmt.Errorf("limit must be non-negative, got %d", *input.Limit)
		}
		limit = *input.Limit
	}
	n, err := s.svc.EnrichPending(ctx, limit)
	output := ExtractOutput{Enriched: n, Message: fmt.Sprintf("Extracted content for %d entries", n)}
	if err != nil {
		output.Message = fmt.Sprintf("%s; some extractions failed: %v", output.Message, err)
	}
	return jsonResult(output)
}

// Helpers

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func toEntryOutput(e *models.Entry) EntryOutput {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return EntryOutput{
		ID:               e.ID,
		URL:              e.URL,
		Title:            e.Title,
		Domain:           e.Domain,
		AddTime:          e.AddTime,
		LastUpdateTime:   e.LastUpdateTime,
		IsRead:           e.IsRead,
		LastReadTime:     e.LastReadTime,
		Tags:             tags,
		Excerpt:          e.Excerpt,
		SiteName:         e.SiteName,
		Author:           e.Author,
		ContentExtracted: e.ContentExtracted,
	}
}

func toGetEntryOutput(e *models.Entry) GetEntryOutput {
	return GetEntryOutput{
		EntryOutput: toEntryOutput(e),
		Content:     e.Content,
		ImageURL:    e.ImageURL,
		PublishDate: e.PublishDate,
	}
}

func paginate(entries []*models.Entry, offset, limit *int) []*models.Entry {
	if offset != nil {
		if *offset >= len(entries) {
			return nil
		}
		entries = entries[*offset:]
	}
	if limit != nil && *limit > 0 && *limit < len(entries) {
		entries = entries[:*limit]
	}
	return entries
}

func parseSort(field *string, ascending *bool) (storage.Sort, error) {
	sort := storage.DefaultSort
	if field != nil && *field != "" {
		switch f := storage.SortField(*field); f {
		case storage.SortAddTime, storage.SortTitle, storage.SortLastUpdateTime,
			storage.SortLastReadTime, storage.SortPublishDate:
			sort.Field = f
		default:
			return sort, fmt.Errorf("unknown sort field %q", *field)
		}
	}
	if ascending != nil {
		sort.Descending = !*ascending
	}
	return sort, nil
}

func validateURL(raw string) error {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
