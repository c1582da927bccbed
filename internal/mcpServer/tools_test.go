package mcpServer

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil service returns error", func(t *testing.T) {
		server, err := NewServer(nil)
		assert.ErrorIs(t, err, ErrMissingService)
		assert.Nil(t, server)
	})

	t.Run("valid service creates server", func(t *testing.T) {
		server, err := NewServer(&mockRagService{})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns session and mode", func(t *testing.T) {
		svc := &mockRagService{session: &session.Session{
			Id: "s-1",
			Document: commonModels.Document{
				Mode:       commonModels.ModeRag,
				Measure:    commonModels.LengthMeasure{Pages: 120, HasPages: true, Chars: 300000},
				ChunkCount: 375,
			},
		}}
		server, err := NewServer(svc)
		require.NoError(t, err)

		_, out, err := server.handleIngest(ctx, nil, IngestInput{Path: "/docs/report.pdf"})

		require.NoError(t, err)
		assert.Equal(t, "s-1", out.SessionID)
		assert.Equal(t, "rag", out.Mode)
		assert.Equal(t, 120, out.Pages)
		assert.Equal(t, 375, out.ChunkCount)
		require.Len(t, svc.ingested, 1)
		assert.Equal(t, "report.pdf", svc.ingested[0].Name)
	})

	t.Run("empty path is rejected before ingestion", func(t *testing.T) {
		svc := &mockRagService{}
		server, _ := NewServer(svc)

		_, _, err := server.handleIngest(ctx, nil, IngestInput{Path: "  "})

		assert.True(t, docErrors.IsConfig(err))
		assert.Empty(t, svc.ingested)
	})

	t.Run("ingestion errors propagate", func(t *testing.T) {
		svc := &mockRagService{err: &docErrors.ExtractionError{Format: "IMAGE", Cause: docErrors.ErrUnsupportedFormat}}
		server, _ := NewServer(svc)

		_, _, err := server.handleIngest(ctx, nil, IngestInput{Path: "/tmp/photo.png"})

		assert.ErrorIs(t, err, docErrors.ErrUnsupportedFormat)
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the answer", func(t *testing.T) {
		svc := &mockRagService{answer: commonModels.Answer{
			Text:    "42",
			Mode:    commonModels.ModeRag,
			Sources: []string{"report.pdf#chunk-3 (0.912)"},
		}}
		server, _ := NewServer(svc)

		_, out, err := server.handleAsk(ctx, nil, AskInput{SessionID: "s-1", Question: "answer?", Model: "gpt-4o"})

		require.NoError(t, err)
		assert.Equal(t, "42", out.Answer)
		assert.Equal(t, "rag", out.Mode)
		assert.Equal(t, []string{"report.pdf#chunk-3 (0.912)"}, out.Sources)
		assert.Equal(t, []string{"s-1|answer?|gpt-4o"}, svc.asked)
	})

	t.Run("missing session id", func(t *testing.T) {
		svc := &mockRagService{}
		server, _ := NewServer(svc)

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.True(t, docErrors.IsConfig(err))
		assert.Empty(t, svc.asked)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc := &mockRagService{err: docErrors.ErrSessionNotFound}
		server, _ := NewServer(svc)

		_, _, err := server.handleAsk(ctx, nil, AskInput{SessionID: "nope", Question: "q"})

		assert.True(t, errors.Is(err, docErrors.ErrSessionNotFound))
	})
}

func TestServer_handleClose(t *testing.T) {
	ctx := context.Background()

	t.Run("closes the session", func(t *testing.T) {
		svc := &mockRagService{}
		server, _ := NewServer(svc)

		_, out, err := server.handleClose(ctx, nil, CloseInput{SessionID: "s-1"})

		require.NoError(t, err)
		assert.True(t, out.Closed)
		assert.Equal(t, []string{"s-1"}, svc.closed)
	})

	t.Run("missing session id", func(t *testing.T) {
		svc := &mockRagService{}
		server, _ := NewServer(svc)

		_, _, err := server.handleClose(ctx, nil, CloseInput{})

		assert.True(t, docErrors.IsConfig(err))
		assert.Empty(t, svc.closed)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc := &mockRagService{err: docErrors.ErrSessionNotFound}
		server, _ := NewServer(svc)

		_, out, err := server.handleClose(ctx, nil, CloseInput{SessionID: "nope"})

		assert.ErrorIs(t, err, docErrors.ErrSessionNotFound)
		assert.False(t, out.Closed)
	})
}
