// Package mcp exposes the game service to a narrating model as MCP tools.
// Every tool that touches a session takes its session_id; gameplay misses
// such as a locked door come back as ordinary results with success false.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/dungeon-engine/internal/game"
	"github.com/jwebster45206/dungeon-engine/pkg/dice"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName = "dungeon-engine"
	tracerName = "github.com/jwebster45206/dungeon-engine/internal/mcp"
)

// ToolRecorder receives one call per tool invocation. status is "ok" or
// "error".
type ToolRecorder interface {
	RecordToolCall(ctx context.Context, tool, status string, elapsed time.Duration)
}

type nopToolRecorder struct{}

func (nopToolRecorder) RecordToolCall(context.Context, string, string, time.Duration) {}

type Server struct {
	service *game.Service
	logger  *slog.Logger
	metrics ToolRecorder
	roller  *dice.Roller
	server  *sdk.Server
}

// Option configures a Server.
type Option func(*Server)

// WithToolRecorder reports tool calls to r.
func WithToolRecorder(r ToolRecorder) Option {
	return func(s *Server) { s.metrics = r }
}

// WithRoller sets the dice used by roll_dice.
func WithRoller(r *dice.Roller) Option {
	return func(s *Server) { s.roller = r }
}

// NewServer registers the tools and resources on a new MCP server.
func NewServer(service *game.Service, logger *slog.Logger, version string, opts ...Option) *Server {
	s := &Server{
		service: service,
		logger:  logger,
		metrics: nopToolRecorder{},
		roller:  dice.Default,
		server: sdk.NewServer(&sdk.Implementation{Name: serverName, Version: version}, &sdk.ServerOptions{
			Instructions: "Game mechanics for a text dungeon crawl. Start or resume a session, " +
				"then call the room, movement, search and treasure tools with its session_id " +
				"instead of inventing outcomes.",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerResources()
	return s
}

// Run serves a single client over t until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context, t sdk.Transport) error {
	return s.server.Run(ctx, t)
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.server
	}, nil)
}

// sessionArgs is implemented by every tool input that names a session.
type sessionArgs interface {
	session() string
}

// addTool wraps a handler with a span, logging and metrics.
func addTool[In, Out any](s *Server, tool *sdk.Tool, run func(context.Context, In) (Out, error)) {
	sdk.AddTool(s.server, tool, func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, Out, error) {
		start := time.Now()
		ctx, span := otel.Tracer(tracerName).Start(ctx, "mcp."+tool.Name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", tool.Name)),
		)
		defer span.End()

		out, err := run(ctx, in)

		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.logger.Warn("Tool call failed", "tool", tool.Name, "error", err)
		} else {
			s.logger.Debug("Tool call", "tool", tool.Name, "elapsed", time.Since(start))
		}
		s.metrics.RecordToolCall(ctx, tool.Name, status, time.Since(start))
		return nil, out, toolError(err)
	})
}

// addSessionTool is addTool for inputs carrying a session_id.
func addSessionTool[In sessionArgs, Out any](s *Server, tool *sdk.Tool, run func(context.Context, uuid.UUID, In) (Out, error)) {
	addTool(s, tool, func(ctx context.Context, in In) (Out, error) {
		id, err := uuid.Parse(strings.TrimSpace(in.session()))
		if err != nil {
			var zero Out
			return zero, fmt.Errorf("session_id %q is not a valid session id: %w", in.session(), game.ErrInvalidInput)
		}
		return run(ctx, id, in)
	})
}

// toolError rewrites service errors into messages a model can act on.
func toolError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrSessionNotFound):
		return errors.New("no such game session; call start_game first or check the session_id")
	default:
		return err
	}
}
