package mcpServer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/rag/ingest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type IngestInput struct {
	Path string `json:"path" jsonschema:"absolute path of a PDF, DOCX, ODT, RTF or text file"`
	Name string `json:"name,omitempty" jsonschema:"display name, defaults to the file name"`
}

type IngestOutput struct {
	SessionID  string `json:"session_id"`
	Mode       string `json:"mode"`
	Pages      int    `json:"pages,omitempty"`
	Chars      int    `json:"chars"`
	ChunkCount int    `json:"chunk_count"`
}

type AskInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by ingest_document"`
	Question  string `json:"question" jsonschema:"the question to answer from the document"`
	Model     string `json:"model,omitempty" jsonschema:"override the configured model"`
}

type AskOutput struct {
	Answer  string   `json:"answer"`
	Mode    string   `json:"mode"`
	Sources []string `json:"sources,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

type CloseInput struct {
	SessionID string `json:"session_id" jsonschema:"session id returned by ingest_document"`
}

type CloseOutput struct {
	SessionID string `json:"session_id"`
	Closed    bool   `json:"closed"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Load a document and return the session id to ask questions with",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question about a previously ingested document",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "close_session",
		Description: "Discard an ingested document together with its index and history",
	}, s.handleClose)
}

func (s *Server) handleIngest(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, IngestOutput{}, docErrors.NewConfigError("path", "must not be empty")
	}
	name := input.Name
	if name == "" {
		name = filepath.Base(path)
	}

	sess, err := s.rag.Ingest(ctx, ingest.Request{Name: name, Path: path})
	if err != nil {
		logger.FromContext(ctx).Warn("ingest_document failed", "path", path, "error", err)
		return nil, IngestOutput{}, err
	}

	doc := sess.Document
	return nil, IngestOutput{
		SessionID:  sess.Id,
		Mode:       string(doc.Mode),
		Pages:      doc.Measure.Pages,
		Chars:      doc.Measure.Chars,
		ChunkCount: doc.ChunkCount,
	}, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if input.SessionID == "" {
		return nil, AskOutput{}, docErrors.NewConfigError("session_id", "must not be empty")
	}

	ans, err := s.rag.Ask(ctx, input.SessionID, input.Question, input.Model)
	if err != nil {
		logger.FromContext(ctx).Warn("ask_question failed", "sessionId", input.SessionID, "error", err)
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Answer:  ans.Text,
		Mode:    string(ans.Mode),
		Sources: ans.Sources,
		Warning: ans.Warning,
	}, nil
}

func (s *Server) handleClose(ctx context.Context, _ *mcp.CallToolRequest, input CloseInput) (*mcp.CallToolResult, CloseOutput, error) {
	if input.SessionID == "" {
		return nil, CloseOutput{}, docErrors.NewConfigError("session_id", "must not be empty")
	}
	if err := s.rag.CloseSession(ctx, input.SessionID); err != nil {
		logger.FromContext(ctx).Warn("close_session failed", "sessionId", input.SessionID, "error", err)
		return nil, CloseOutput{}, err
	}
	return nil, CloseOutput{SessionID: input.SessionID, Closed: true}, nil
}
