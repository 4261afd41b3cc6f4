package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vitae/pkg/diff"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/identity"
	"github.com/aretw0/vitae/pkg/sanitize"
	"github.com/aretw0/vitae/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionArgs addresses a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// StartArgs opens a session on the document of a locale.
type StartArgs struct {
	Locale string `json:"locale"`
}

// PathArgs addresses one node of a session's current document.
// Value is written as a plain string; ValueJSON, when set, wins and may hold
// any JSON value (an object for a whole bullet point, for instance).
type PathArgs struct {
	SessionID string `json:"session_id"`
	Path      []any  `json:"path"`
	Value     string `json:"value,omitempty"`
	ValueJSON string `json:"value_json,omitempty"`
}

// RestoreSectionArgs identifies a deleted section by its change key.
type RestoreSectionArgs struct {
	SessionID string `json:"session_id"`
	Column    string `json:"column"`
	Key       string `json:"key"`
}

// RewriteArgs covers both ends of an AI rewrite.
type RewriteArgs struct {
	SessionID   string `json:"session_id"`
	Instruction string `json:"instruction,omitempty"`
	Token       string `json:"token,omitempty"`
	Document    string `json:"document,omitempty"`
}

// SessionResponse is the unified mutation result across tools.
type SessionResponse struct {
	Session *domain.Session `json:"session" jsonschema_description:"The session after the operation"`
	Applied bool            `json:"applied" jsonschema_description:"False when the operation was a no-op"`
}

// TextChangesResponse wraps the field-level changes.
type TextChangesResponse struct {
	Changes []diff.TextChange `json:"changes" jsonschema_description:"Atomic text changes against the original"`
}

// RewriteResponse carries the snapshot to rewrite, or the rewrite outcome.
type RewriteResponse struct {
	Token    string           `json:"token,omitempty" jsonschema_description:"Ticket to present when completing the rewrite"`
	Snapshot *domain.Document `json:"snapshot,omitempty" jsonschema_description:"Document to rewrite, IDs included"`
	Session  *domain.Session  `json:"session,omitempty"`
	Warnings []string         `json:"warnings,omitempty" jsonschema_description:"ID anomalies detected in the rewritten document"`
}

// Server exposes a session.Manager as an MCP server.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("vitae-mcp", strings.TrimSpace(version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to operate on"))
	path := mcp.WithArray("path", mcp.Required(), mcp.Description(`Path to the node, e.g. ["mainColumn", 0, "paragraphs", 1, "text"]`))

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Open an editing session on the CV of a locale."),
		mcp.WithString("locale", mcp.Required(), mcp.Description("Locale of the document (e.g. en, pt)")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("analyze_changes",
		mcp.WithDescription("Classify removed, modified and added sections and sub-sections against the original."),
		sessionID,
	), mcp.NewStructuredToolHandler(s.handleAnalyze))

	s.mcpServer.AddTool(mcp.NewTool("text_changes",
		mcp.WithDescription("List field-level text changes against the original."),
		sessionID,
	), mcp.NewStructuredToolHandler(s.handleTextChanges))

	s.mcpServer.AddTool(mcp.NewTool("merged_view",
		mcp.WithDescription("Render both columns with deleted sections re-inserted and flagged."),
		sessionID,
	), mcp.NewStructuredToolHandler(s.handleView))

	s.mcpServer.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Write a value at a path of the current document."),
		sessionID, path,
		mcp.WithString("value", mcp.Description("Plain text value")),
		mcp.WithString("value_json", mcp.Description("JSON value, used instead of value when set")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetField))

	s.mcpServer.AddTool(mcp.NewTool("remove_element",
		mcp.WithDescription("Remove an array element. Stale paths are ignored."),
		sessionID, path,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleRemove))

	s.mcpServer.AddTool(mcp.NewTool("restore_field",
		mcp.WithDescription("Copy the original value at a path back into the current document."),
		sessionID, path,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleRestoreField))

	s.mcpServer.AddTool(mcp.NewTool("delete_field",
		mcp.WithDescription("Delete an optional field or array element of the current document."),
		sessionID, path,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleDeleteField))

	s.mcpServer.AddTool(mcp.NewTool("restore_section",
		mcp.WithDescription("Bring back a deleted section by its change key."),
		sessionID,
		mcp.WithString("column", mcp.Required(), mcp.Enum(string(domain.MainColumn), string(domain.SideColumn))),
		mcp.WithString("key", mcp.Required(), mcp.Description("Section key as reported by analyze_changes")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleRestoreSection))

	s.mcpServer.AddTool(mcp.NewTool("reset_document",
		mcp.WithDescription("Discard every change and return to the original."),
		sessionID,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("begin_rewrite",
		mcp.WithDescription("Reserve the session for a rewrite and get the document snapshot to rewrite."),
		sessionID,
		mcp.WithString("instruction", mcp.Description("What the rewrite should achieve")),
		mcp.WithOutputSchema[RewriteResponse](),
	), mcp.NewStructuredToolHandler(s.handleBeginRewrite))

	s.mcpServer.AddTool(mcp.NewTool("complete_rewrite",
		mcp.WithDescription("Submit the rewritten document. IDs are carried over from the snapshot."),
		sessionID,
		mcp.WithString("token", mcp.Required(), mcp.Description("Token returned by begin_rewrite")),
		mcp.WithString("document", mcp.Required(), mcp.Description("Rewritten document as JSON")),
		mcp.WithOutputSchema[RewriteResponse](),
	), mcp.NewStructuredToolHandler(s.handleCompleteRewrite))

	s.mcpServer.AddTool(mcp.NewTool("abandon_rewrite",
		mcp.WithDescription("Give up a rewrite started with begin_rewrite. The document is left as it was."),
		sessionID,
		mcp.WithString("token", mcp.Required(), mcp.Description("Token returned by begin_rewrite")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleAbandonRewrite))
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (SessionResponse, error) {
	sess, err := s.sessions.Start(ctx, args.Locale)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return SessionResponse{Session: sess, Applied: true}, nil
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (diff.ChangeSet, error) {
	cs, err := s.sessions.Analyze(ctx, args.SessionID)
	if err != nil {
		return diff.ChangeSet{}, fmt.Errorf("analyze failed: %w", err)
	}
	return cs, nil
}

func (s *Server) handleTextChanges(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (TextChangesResponse, error) {
	changes, err := s.sessions.TextChanges(ctx, args.SessionID)
	if err != nil {
		return TextChangesResponse{}, fmt.Errorf("text changes failed: %w", err)
	}
	if changes == nil {
		changes = []diff.TextChange{}
	}
	return TextChangesResponse{Changes: changes}, nil
}

func (s *Server) handleView(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (diff.View, error) {
	view, err := s.sessions.View(ctx, args.SessionID)
	if err != nil {
		return diff.View{}, fmt.Errorf("view failed: %w", err)
	}
	return view, nil
}

func (s *Server) handleSetField(ctx context.Context, request mcp.CallToolRequest, args PathArgs) (SessionResponse, error) {
	path, err := domain.ParsePath(args.Path)
	if err != nil {
		return SessionResponse{}, err
	}

	var value any = args.Value
	if args.ValueJSON != "" {
		if err := json.Unmarshal([]byte(args.ValueJSON), &value); err != nil {
			return SessionResponse{}, fmt.Errorf("%w: value_json: %v", domain.ErrInvalidValue, err)
		}
	}

	value, err = sanitize.Value(value)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("%w: %v", domain.ErrInvalidValue, err)
	}

	sess, err := s.sessions.SetValue(ctx, args.SessionID, path, value)
	if err != nil {
		s.logger.Warn("MCP set_field rejected", "session_id", args.SessionID, "path", path.String(), "error", err)
		return SessionResponse{}, fmt.Errorf("set failed: %w", err)
	}
	return SessionResponse{Session: sess, Applied: true}, nil
}

func (s *Server) handleRemove(ctx context.Context, request mcp.CallToolRequest, args PathArgs) (SessionResponse, error) {
	path, err := domain.ParsePath(args.Path)
	if err != nil {
		return SessionResponse{}, err
	}
	sess, applied, err := s.sessions.RemoveElement(ctx, args.SessionID, path)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("remove failed: %w", err)
	}
	return SessionResponse{Session: sess, Applied: applied}, nil
}

func (s *Server) handleRestoreField(ctx context.Context, request mcp.CallToolRequest, args PathArgs) (SessionResponse, error) {
	path, err := domain.ParsePath(args.Path)
	if err != nil {
		return SessionResponse{}, err
	}
	sess, err := s.sessions.RestoreField(ctx, args.SessionID, path)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("restore failed: %w", err)
	}
	return SessionResponse{Session: sess, Applied: true}, nil
}

func (s *Server) handleDeleteField(ctx context.Context, request mcp.CallToolRequest, args PathArgs) (SessionResponse, error) {
	path, err := domain.ParsePath(args.Path)
	if err != nil {
		return SessionResponse{}, err
	}
	sess, applied, err := s.sessions.DeleteField(ctx, args.SessionID, path)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("delete failed: %w", err)
	}
	return SessionResponse{Session: sess, Applied: applied}, nil
}

func (s *Server) handleRestoreSection(ctx context.Context, request mcp.CallToolRequest, args RestoreSectionArgs) (SessionResponse, error) {
	column := domain.Column(args.Column)
	if column != domain.MainColumn && column != domain.SideColumn {
		return SessionResponse{}, fmt.Errorf("%w: unknown column %q", domain.ErrInvalidPath, args.Column)
	}
	sess, applied, err := s.sessions.RestoreSection(ctx, args.SessionID, column, args.Key)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("restore section failed: %w", err)
	}
	return SessionResponse{Session: sess, Applied: applied}, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResponse, error) {
	sess, err := s.sessions.Reset(ctx, args.SessionID)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("reset failed: %w", err)
	}
	return SessionResponse{Session: sess, Applied: true}, nil
}

func (s *Server) handleBeginRewrite(ctx context.Context, request mcp.CallToolRequest, args RewriteArgs) (RewriteResponse, error) {
	token, snapshot, err := s.sessions.BeginRewrite(ctx, args.SessionID, args.Instruction)
	if err != nil {
		return RewriteResponse{}, fmt.Errorf("begin rewrite failed: %w", err)
	}
	return RewriteResponse{Token: token, Snapshot: snapshot}, nil
}

func (s *Server) handleCompleteRewrite(ctx context.Context, request mcp.CallToolRequest, args RewriteArgs) (RewriteResponse, error) {
	var raw any
	if err := json.Unmarshal([]byte(args.Document), &raw); err != nil {
		return RewriteResponse{}, fmt.Errorf("%w: document: %v", domain.ErrInvalidValue, err)
	}
	doc, err := domain.DecodeDocument(raw)
	if err != nil {
		return RewriteResponse{}, fmt.Errorf("%w: document: %v", domain.ErrInvalidValue, err)
	}

	sess, warnings, err := s.sessions.CompleteRewrite(ctx, args.SessionID, args.Token, doc)
	if err != nil {
		return RewriteResponse{}, fmt.Errorf("complete rewrite failed: %w", err)
	}
	return RewriteResponse{Session: sess, Warnings: warningStrings(warnings)}, nil
}

func (s *Server) handleAbandonRewrite(ctx context.Context, request mcp.CallToolRequest, args RewriteArgs) (SessionResponse, error) {
	if err := s.sessions.AbandonRewrite(ctx, args.SessionID, args.Token); err != nil {
		return SessionResponse{}, fmt.Errorf("abandon rewrite failed: %w", err)
	}
	sess, err := s.sessions.Load(ctx, args.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{Session: sess, Applied: true}, nil
}

func warningStrings(warnings []identity.Warning) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("vitae://sessions", "Open Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "vitae://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
