// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/patchlog/domain/diffstat"
	"github.com/helixml/patchlog/domain/record"
	"github.com/helixml/patchlog/domain/summary"
	"github.com/helixml/patchlog/internal/log"
)

// DefaultUser owns records when the caller is not authenticated, such as
// over stdio.
const DefaultUser = "local"

// RecordReader provides record lookups for MCP tools.
type RecordReader interface {
	List(ctx context.Context, user string, filter record.Filter) ([]record.Record, error)
	Get(ctx context.Context, user, id string) (record.Record, error)
}

// DiffSummarizer generates summaries for MCP tools.
type DiffSummarizer interface {
	Generate(ctx context.Context, diff, extra string) (summary.Result, error)
}

// Server wraps the MCP server with patchlog tools.
type Server struct {
	mcpServer   *server.MCPServer
	records     RecordReader
	summarizer  DiffSummarizer
	defaultUser string
	logger      *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(records RecordReader, summarizer DiffSummarizer, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		records:     records,
		summarizer:  summarizer,
		defaultUser: DefaultUser,
		logger:      logger,
	}

	mcpServer := server.NewMCPServer(
		"patchlog",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// WithDefaultUser sets the user assumed when the request context carries
// none.
func (s *Server) WithDefaultUser(user string) *Server {
	if user != "" {
		s.defaultUser = user
	}
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	listTool := mcp.NewTool("list_records",
		mcp.WithDescription("List logged code changes, newest first"),
		mcp.WithString("environment",
			mcp.Description("Filter by environment: DEV, UAT or LIVE"),
		),
		mcp.WithString("branch",
			mcp.Description("Filter by branch substring"),
		),
		mcp.WithString("author",
			mcp.Description("Filter by author substring"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of records (default: server limit)"),
		),
	)
	mcpServer.AddTool(listTool, s.handleListRecords)

	getTool := mcp.NewTool("get_record",
		mcp.WithDescription("Get a logged code change including its diff"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The record ID"),
		),
	)
	mcpServer.AddTool(getTool, s.handleGetRecord)

	statsTool := mcp.NewTool("diff_stats",
		mcp.WithDescription("Count added lines, removed lines and changed files in a unified diff"),
		mcp.WithString("diff",
			mcp.Required(),
			mcp.Description("Unified diff text"),
		),
	)
	mcpServer.AddTool(statsTool, s.handleDiffStats)

	summarizeTool := mcp.NewTool("summarize_diff",
		mcp.WithDescription("Generate a summary, tags and risk analysis for a unified diff"),
		mcp.WithString("diff",
			mcp.Required(),
			mcp.Description("Unified diff text"),
		),
		mcp.WithString("context",
			mcp.Description("Optional surrounding context such as the task description"),
		),
	)
	mcpServer.AddTool(summarizeTool, s.handleSummarizeDiff)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	template := mcp.NewResourceTemplate(
		RecordURITemplate,
		"record",
		mcp.WithTemplateDescription("A logged code change"),
		mcp.WithTemplateMIMEType("application/json"),
	)
	mcpServer.AddResourceTemplate(template, s.handleReadRecord)
}

type recordResult struct {
	ID           string    `json:"id"`
	URI          string    `json:"uri"`
	Environment  string    `json:"environment"`
	Branch       string    `json:"branch"`
	TaskID       string    `json:"taskId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Diff         string    `json:"diff,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Tags         []string  `json:"tags"`
	Author       string    `json:"author,omitempty"`
	FilesChanged int       `json:"filesChanged"`
	LinesAdded   int       `json:"linesAdded"`
	LinesRemoved int       `json:"linesRemoved"`
	FileNames    []string  `json:"fileNames"`
	CreatedAt    time.Time `json:"createdAt"`
}

// toResult converts r; the diff is only included when withDiff is set.
func toResult(r record.Record, withDiff bool) recordResult {
	stats := r.Stats()
	res := recordResult{
		ID:           r.ID(),
		URI:          NewRecordURI(r.ID()).String(),
		Environment:  r.Environment().String(),
		Branch:       r.Branch(),
		TaskID:       r.TaskID(),
		Title:        r.Title(),
		Description:  r.Description(),
		Summary:      r.Summary(),
		Tags:         r.Tags(),
		Author:       r.Author(),
		FilesChanged: stats.FilesChanged,
		LinesAdded:   stats.LinesAdded,
		LinesRemoved: stats.LinesRemoved,
		FileNames:    r.FileNames(),
		CreatedAt:    r.CreatedAt(),
	}
	if withDiff {
		res.Diff = r.Diff()
	}
	return res
}

func (s *Server) user(ctx context.Context) string {
	if u := log.User(ctx); u != "" {
		return u
	}
	return s.defaultUser
}

func (s *Server) handleListRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := record.NewFilter().
		WithEnvironment(request.GetString("environment", "")).
		WithBranch(request.GetString("branch", "")).
		WithAuthor(request.GetString("author", "")).
		WithLimit(request.GetInt("limit", 0))

	records, err := s.records.List(ctx, s.user(ctx), filter)
	if err != nil {
		s.logger.Error("list records failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("list records failed: %v", err)), nil
	}

	results := make([]recordResult, len(records))
	for i, r := range records {
		results[i] = toResult(r, false)
	}
	return jsonResult(results)
}

func (s *Server) handleGetRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	r, err := s.records.Get(ctx, s.user(ctx), id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("record %s not found", id)), nil
		}
		s.logger.Error("failed to get record", slog.String("id", id), slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get record: %v", err)), nil
	}

	return jsonResult(toResult(r, true))
}

func (s *Server) handleDiffStats(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diff, err := request.RequireString("diff")
	if err != nil {
		return mcp.NewToolResultError("diff is required"), nil
	}

	type statsResult struct {
		diffstat.Stats
		FileNames []string `json:"fileNames"`
	}
	return jsonResult(statsResult{
		Stats:     diffstat.Parse(diff),
		FileNames: diffstat.FileNames(diff),
	})
}

func (s *Server) handleSummarizeDiff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diff, err := request.RequireString("diff")
	if err != nil || diff == "" {
		return mcp.NewToolResultError("diff is required"), nil
	}

	result, err := s.summarizer.Generate(ctx, diff, request.GetString("context", ""))
	if err != nil {
		s.logger.Error("summarize diff failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("summary generation failed: %v", err)), nil
	}

	return jsonResult(result)
}

func (s *Server) handleReadRecord(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri, err := ParseRecordURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	r, err := s.records.Get(ctx, s.user(ctx), uri.ID())
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(toResult(r, true))
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri.String(),
			MIMEType: "application/json",
			Text:     string(raw),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MCPServer returns the underlying MCP server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
