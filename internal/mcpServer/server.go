package mcpServer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/GoDocQA/internal/rag"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "0.1.0"

var (
	ErrMissingService = errors.New("mcp: rag service is required")
	logger            = logger_i.NewLogger("MCP Server")
)

type Server struct {
	rag    rag.Service
	server *mcp.Server
}

func NewServer(svc rag.Service) (*Server, error) {
	if svc == nil {
		return nil, ErrMissingService
	}

	s := &Server{
		rag:    svc,
		server: mcp.NewServer(&mcp.Implementation{Name: "docqa", Version: Version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			logger.Error("could not shut down MCP http server", "error", err)
		}
	}()

	logger.Info("serving MCP over http", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
