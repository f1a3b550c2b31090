// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes waveform editing tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dotmjsc/pwl-editor/internal/editor"
	"github.com/dotmjsc/pwl-editor/internal/generate"
	"github.com/dotmjsc/pwl-editor/internal/index"
	"github.com/dotmjsc/pwl-editor/internal/repair"
	"github.com/dotmjsc/pwl-editor/internal/storage"
	"github.com/dotmjsc/pwl-editor/internal/waveformservice"
)

// Server wraps the MCP server with waveform tools. It holds one editor
// session: open_waveform loads a file into it and the editing tools operate
// on that document until save_waveform writes it back.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    *index.DB
	svc   *waveformservice.Service

	mu sync.Mutex
	ed *editor.Service
}

// New creates a new MCP server with all waveform tools registered.
// maxHistory and precision configure the editor session; zero picks the
// editor package defaults.
func New(store storage.Provider, db *index.DB, maxHistory, precision int) *Server {
	s := &Server{
		store: store,
		db:    db,
		svc:   waveformservice.NewService(store, db),
		ed:    editor.New(maxHistory, precision),
	}

	s.mcp = server.NewMCPServer(
		"pwled",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_waveforms",
		mcp.WithDescription("List all waveform files or files in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listWaveforms)

	s.mcp.AddTool(mcp.NewTool("search_waveforms",
		mcp.WithDescription("Full-text search through waveform file contents and paths."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchWaveforms)

	s.mcp.AddTool(mcp.NewTool("open_waveform",
		mcp.WithDescription("Load a waveform file into the editor session. "+
			"Subsequent editing tools operate on this document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file (e.g. clocks/div2.pwl)")),
	), s.openWaveform)

	s.mcp.AddTool(mcp.NewTool("show_waveform",
		mcp.WithDescription("Show the editor session's current document with point indices."),
	), s.showWaveform)

	s.mcp.AddTool(mcp.NewTool("save_waveform",
		mcp.WithDescription("Write the editor session's document to a workspace file. "+
			"Content MUST follow the PWL format; read the contract first via the "+
			"get_format_contract tool or the pwled://file-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to save to (must end with .pwl or .txt)")),
	), s.saveWaveform)

	s.mcp.AddTool(mcp.NewTool("set_text",
		mcp.WithDescription("Replace the editor session's document with the given PWL text. "+
			"The whole text must parse; a single bad line rejects the edit."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Full document text in PWL format")),
	), s.setText)

	s.mcp.AddTool(mcp.NewTool("add_point",
		mcp.WithDescription("Insert a new point above or below an existing index with a suggested time."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based point index")),
		mcp.WithString("position", mcp.Required(), mcp.Description("'above' or 'below'")),
	), s.addPoint)

	s.mcp.AddTool(mcp.NewTool("update_point",
		mcp.WithDescription("Change the time and value tokens of one point."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based point index")),
		mcp.WithString("time", mcp.Required(), mcp.Description("New time token (prefix '+' for relative)")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value token")),
	), s.updatePoint)

	s.mcp.AddTool(mcp.NewTool("remove_point",
		mcp.WithDescription("Remove the point at the given index."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based point index")),
	), s.removePoint)

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last edit in the session."),
	), s.undo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone edit in the session."),
	), s.redo)

	s.mcp.AddTool(mcp.NewTool("analyze_waveform",
		mcp.WithDescription("Scan the session document for duplicate timestamps and time reversals."),
	), s.analyzeWaveform)

	s.mcp.AddTool(mcp.NewTool("repair_waveform",
		mcp.WithDescription("Fix duplicate timestamps and time reversals in the session document."),
		mcp.WithString("duplicate_strategy", mcp.Description("center, shift_right, shift_left, remove, or none (default center)")),
		mcp.WithString("reversal_strategy", mcp.Description("sort, remove, or none (default sort)")),
	), s.repairWaveform)

	s.mcp.AddTool(mcp.NewTool("generate_waveform",
		mcp.WithDescription("Synthesize a square, triangle, or saw wave into the session. "+
			"Config is a JSON object; square takes low_level, high_level, period, duty_cycle, "+
			"cycles; triangle takes symmetry instead of duty_cycle; saw takes ramp_fraction."),
		mcp.WithString("shape", mcp.Required(), mcp.Description("square, triangle, or saw")),
		mcp.WithString("config", mcp.Required(), mcp.Description("Generator parameters as a JSON object")),
		mcp.WithString("mode", mcp.Description("'replace' (default) or 'append'")),
	), s.generateWaveform)

	s.mcp.AddTool(mcp.NewTool("import_waveform",
		mcp.WithDescription("Import a PWL file from an http(s) URL or a data: URI into the workspace. "+
			"The content must parse as PWL before it is saved."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Source URL (http, https, or base64 data URI)")),
		mcp.WithString("filename", mcp.Description("Optional target filename (must end with .pwl or .txt)")),
	), s.importWaveform)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the canonical PWL file format contract. "+
			"Call this before creating or editing waveform files."),
	), s.getFormatContract)

	// Resource: PWL file format contract.
	s.mcp.AddResource(
		mcp.NewResource("pwled://file-format", "PWL File Format Contract",
			mcp.WithResourceDescription("Canonical PWL text format that all waveform files must follow."),
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

func (s *Server) listWaveforms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) searchWaveforms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) openWaveform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ed.LoadText(string(data)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot parse %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("opened %s (%d points)\n%s", path, s.ed.Document().Len(), s.ed.Render())), nil
}

// renderNumbered lists the session document one point per line with its
// index, for unambiguous references in follow-up edits.
func (s *Server) renderNumbered() string {
	doc := s.ed.Document()
	if doc.Len() == 0 {
		return "(empty document)"
	}
	var b strings.Builder
	for i, line := range strings.Split(s.ed.Render(), "\n") {
		fmt.Fprintf(&b, "[%d] %s\n", i, line)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Server) showWaveform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mcp.NewToolResultText(s.renderNumbered()), nil
}

func (s *Server) saveWaveform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !storage.IsWaveformPath(path) {
		return mcp.NewToolResultError(fmt.Sprintf("path must end with .pwl or .txt: %s", path)), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ed.Document().Len() == 0 {
		return mcp.NewToolResultError("nothing to save: the session document is empty"), nil
	}
	text := s.ed.Render() + "\n"
	if err := s.store.Write(path, []byte(text)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.IndexFile(path, []byte(text)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", path)), nil
}

func (s *Server) setText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ed.SetText(text, "Set text"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.renderNumbered()), nil
}

func (s *Server) addPoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	position, err := req.RequireString("position")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var newIndex int
	switch position {
	case "above":
		newIndex, err = s.ed.AddPointAbove(index)
	case "below":
		newIndex, err = s.ed.AddPointBelow(index)
	default:
		return mcp.NewToolResultError("position must be 'above' or 'below'"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added point at index %d\n%s", newIndex, s.renderNumbered())), nil
}

func (s *Server) updatePoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeText, err := req.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	valueText, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ed.UpdatePoint(index, timeText, valueText); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.renderNumbered()), nil
}

func (s *Server) removePoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ed.RemovePoints([]int{index}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.renderNumbered()), nil
}

func (s *Server) undo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	description, ok := s.ed.Undo()
	if !ok {
		return mcp.NewToolResultError("nothing to undo"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("undid: %s\n%s", description, s.renderNumbered())), nil
}

func (s *Server) redo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	description, ok := s.ed.Redo()
	if !ok {
		return mcp.NewToolResultError("nothing to redo"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("redid: %s\n%s", description, s.renderNumbered())), nil
}

func (s *Server) analyzeWaveform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issues := s.ed.Analyze(repair.DefaultTimeEpsilon)
	if issues.Empty() {
		return mcp.NewToolResultText("no issues found"), nil
	}
	out, _ := json.MarshalIndent(issues, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) repairWaveform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := editor.DefaultRepairParams()
	if v, err := req.RequireString("duplicate_strategy"); err == nil && v != "" {
		params.DuplicateStrategy = v
	}
	if v, err := req.RequireString("reversal_strategy"); err == nil && v != "" {
		params.ReversalStrategy = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ed.Repair(params); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.renderNumbered()), nil
}

func (s *Server) generateWaveform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	shape, err := req.RequireString("shape")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawConfig, err := req.RequireString("config")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode := editor.ApplyReplace
	if m, mErr := req.RequireString("mode"); mErr == nil && m != "" {
		mode = editor.ApplyMode(m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var warnings []string
	switch editor.Shape(shape) {
	case editor.ShapeSquare:
		var cfg generate.SquareConfig
		if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid config JSON: %v", err)), nil
		}
		warnings, err = s.ed.GenerateSquare(cfg, mode)
	case editor.ShapeTriangle:
		var cfg generate.TriangleConfig
		if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid config JSON: %v", err)), nil
		}
		warnings, err = s.ed.GenerateTriangle(cfg, mode)
	case editor.ShapeSaw:
		var cfg generate.SawConfig
		if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid config JSON: %v", err)), nil
		}
		warnings, err = s.ed.GenerateSaw(cfg, mode)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown shape: %s", shape)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := s.renderNumbered()
	if len(warnings) > 0 {
		text = "warnings: " + strings.Join(warnings, "; ") + "\n" + text
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) getFormatContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PWLFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "pwled://file-format",
			MIMEType: "text/markdown",
			Text:     PWLFormatContract,
		},
	}, nil
}
