// ABOUTME: MCP resource providers for readlist
// ABOUTME: Exposes read-only views of unread entries, today's entries, and statistics

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/readlist/internal/storage"
	"github.com/harper/readlist/internal/timeutil"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	uriUnread = "readlist://entries/unread"
	uriToday  = "readlist://entries/today"
	uriStats  = "readlist://stats"
)

// ResourceData is the standard response format for all resources.
type ResourceData struct {
	Metadata ResourceMetadata  `json:"metadata"`
	Data     interface{}       `json:"data"`
	Links    map[string]string `json:"links"`
}

// ResourceMetadata contains metadata about the resource response.
type ResourceMetadata struct {
	Timestamp   time.Time      `json:"timestamp"`
	Count       int            `json:"count"`
	ResourceURI string         `json:"resource_uri"`
	Filters     map[string]any `json:"filters,omitempty"`
}

// StatsData is the payload of the stats resource.
type StatsData struct {
	Stats   *storage.Stats     `json:"stats"`
	Domains []storage.KeyCount `json:"domains"`
	Tags    []storage.KeyCount `json:"tags"`
}

func (s *Server) registerResources() {
	s.registerEntriesUnreadResource()
	s.registerEntriesTodayResource()
	s.registerStatsResource()
}

// linksExcept returns the links to every resource other than uri.
func linksExcept(uri string) map[string]string {
	all := map[string]string{
		"unread_entries": uriUnread,
		"today_entries":  uriToday,
		"stats":          uriStats,
	}
	for k, v := range all {
		if v == uri {
			delete(all, k)
		}
	}
	return all
}

func resourceResult(request mcp.ReadResourceRequest, data ResourceData) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) entriesResource(ctx context.Context, request mcp.ReadResourceRequest, uri string, filter storage.Filter, filters map[string]any) ([]mcp.ResourceContents, error) {
	entries, err := s.svc.GetFilteredEntries(ctx, filter, storage.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	outputs := make([]EntryOutput, 0, len(entries))
	for _, e := range entries {
		outputs = append(outputs, toEntryOutput(e))
	}

	return resourceResult(request, ResourceData{
		Metadata: ResourceMetadata{
			Timestamp:   s.now(),
			Count:       len(outputs),
			ResourceURI: uri,
			Filters:     filters,
		},
		Data:  outputs,
		Links: linksExcept(uri),
	})
}

func (s *Server) registerEntriesUnreadResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         uriUnread,
			Name:        "Unread Entries",
			Description: "List all unread reading-list entries, newest added first",
			MIMEType:    "application/json",
		},
		s.handleUnreadResource,
	)
}

func (s *Server) handleUnreadResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return s.entriesResource(ctx, request, uriUnread,
		storage.Filter{Read: storage.UnreadOnly},
		map[string]any{"read": false})
}

func (s *Server) registerEntriesTodayResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         uriToday,
			Name:        "Today's Entries",
			Description: "List all entries added to the reading list today (since midnight local time), regardless of read status",
			MIMEType:    "application/json",
		},
		s.handleTodayResource,
	)
}

func (s *Server) handleTodayResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	startOfDay := timeutil.StartOfDay(s.now())
	return s.entriesResource(ctx, request, uriToday,
		storage.Filter{AddedFrom: &startOfDay},
		map[string]any{"since": startOfDay})
}

func (s *Server) registerStatsResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         uriStats,
			Name:        "Reading List Statistics",
			Description: "Totals, read and unread counts, storage used, and per-domain and per-tag histograms",
			MIMEType:    "application/json",
		},
		s.handleStatsResource,
	)
}

func (s *Server) handleStatsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := s.svc.GetDatabaseStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	domains, err := s.svc.GetDomainStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get domain stats: %w", err)
	}
	tags, err := s.svc.GetTagStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag stats: %w", err)
	}

	return resourceResult(request, ResourceData{
		Metadata: ResourceMetadata{
			Timestamp:   s.now(),
			Count:       stats.TotalEntries,
			ResourceURI: uriStats,
		},
		Data:  StatsData{Stats: stats, Domains: domains, Tags: tags},
		Links: linksExcept(uriStats),
	})
}
