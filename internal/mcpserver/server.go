// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the notes backend as tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/brainboard/internal/apperr"
	"github.com/starford/brainboard/internal/backend"
	"github.com/starford/brainboard/internal/citation"
	"github.com/starford/brainboard/internal/ingest"
	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/parser"
)

const formatURI = "brainboard://note-format"

// Server wraps the MCP server with the backend tools.
type Server struct {
	mcp      *server.MCPServer
	api      backend.API
	pipeline *ingest.Pipeline
	logger   *slog.Logger
}

// New creates a new MCP server with all tools registered.
func New(api backend.API, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		api:      api,
		pipeline: ingest.New(api, ingest.WithLogger(logger)),
		logger:   logger,
	}

	s.mcp = server.NewMCPServer(
		"Brainboard",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Ask a question over all notes. The answer cites notes as [note_id:<id>]."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Question or search query")),
		mcp.WithNumber("k", mcp.Description("Number of note chunks to retrieve (optional)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, most recently updated first."),
		mcp.WithNumber("skip", mcp.Description("Number of notes to skip")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 20)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read a note with its tasks and related notes."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Note id")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note from Markdown content, embed it for search and extract its tasks. "+
			"Read the format guide via the "+formatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content, optionally with YAML frontmatter")),
		mcp.WithString("title", mcp.Description("Title; overrides the one found in content")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("extract_tasks",
		mcp.WithDescription("Extract action items from free text and store them as tasks."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to scan")),
		mcp.WithString("source_note_id", mcp.Description("Note the tasks belong to (optional)")),
	), s.extractTasks)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, optionally only open or only completed ones."),
		mcp.WithString("status", mcp.Description("open, completed or all (default all)")),
		mcp.WithNumber("offset", mcp.Description("Number of tasks to skip")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task completed, or open again."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task id")),
		mcp.WithBoolean("completed", mcp.Description("New state (default true)")),
	), s.completeTask)

	s.mcp.AddTool(mcp.NewTool("summarize",
		mcp.WithDescription("Summarize text into highlights, decisions and action items."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to summarize")),
	), s.summarize)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Note Format",
			mcp.WithResourceDescription("How note content passed to create_note is interpreted."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// searchResult adds the citation check to a search answer.
type searchResult struct {
	models.SearchResult
	// Uncited lists note ids referenced in the answer without a citation.
	Uncited []string `json:"uncited,omitempty"`
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sreq := models.SearchRequest{Query: query}
	if k := req.GetInt("k", 0); k != 0 {
		sreq.K = &k
	}
	res, err := s.api.Search(ctx, sreq)
	if err != nil {
		return s.toolError("search_notes", err), nil
	}
	return jsonResult(searchResult{SearchResult: res, Uncited: citation.Check(res).Unmatched})
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.api.ListNotes(ctx, models.ListNotesParams{
		Skip:  req.GetInt("skip", 0),
		Limit: req.GetInt("limit", 0),
	})
	if err != nil {
		return s.toolError("list_notes", err), nil
	}
	return jsonResult(notes)
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.api.GetNote(ctx, id)
	if err != nil {
		return s.toolError("get_note", err), nil
	}
	return jsonResult(note)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc := parser.ParseMarkdown([]byte(content))
	if title := req.GetString("title", ""); title != "" {
		doc.Title = title
	}
	out, err := s.pipeline.Ingest(ctx, doc, "mcp")
	if err != nil {
		return s.toolError("create_note", err), nil
	}
	return jsonResult(out)
}

func (s *Server) extractTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ereq := models.ExtractTasksRequest{Text: text}
	if id := req.GetString("source_note_id", ""); id != "" {
		ereq.SourceNoteID = &id
	}
	res, err := s.api.ExtractTasks(ctx, ereq)
	if err != nil {
		return s.toolError("extract_tasks", err), nil
	}
	return jsonResult(res)
}

func (s *Server) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := models.ListTasksParams{
		Offset: req.GetInt("offset", 0),
		Limit:  req.GetInt("limit", 0),
	}
	switch status := req.GetString("status", "all"); status {
	case "all", "":
	case "open":
		p.Completed = new(bool)
	case "completed":
		done := true
		p.Completed = &done
	default:
		return mcp.NewToolResultError("status must be open, completed or all, got " + status), nil
	}
	tasks, err := s.api.ListTasks(ctx, p)
	if err != nil {
		return s.toolError("list_tasks", err), nil
	}
	return jsonResult(tasks)
}

func (s *Server) completeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	completed := req.GetBool("completed", true)
	task, err := s.api.UpdateTask(ctx, id, models.UpdateTaskRequest{Completed: &completed})
	if err != nil {
		return s.toolError("complete_task", err), nil
	}
	return jsonResult(task)
}

func (s *Server) summarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.api.Summarize(ctx, models.SummarizeRequest{Text: text})
	if err != nil {
		return s.toolError("summarize", err), nil
	}
	return jsonResult(res)
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatGuide,
		},
	}, nil
}

// toolError logs the full error and returns the user-facing message as a
// tool error.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("mcp: tool failed", slog.String("tool", tool), slog.String("error", err.Error()))
	return mcp.NewToolResultError(apperr.UserMessage(err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
