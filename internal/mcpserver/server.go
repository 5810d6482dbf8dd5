// Package mcpserver exposes the MCP Shark controller as MCP tools so an agent
// can check, start and stop the inspector and ask for traffic analysis.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/lifecycle"
	"github.com/mcp-shark/sharkctl/internal/llm"
	"github.com/mcp-shark/sharkctl/internal/monitor"
	"github.com/mcp-shark/sharkctl/internal/panel"
)

const (
	serverName = "sharkctl"

	defaultOutputLines = 50
	maxOutputLines     = 500
)

// Controller is the lifecycle API the tools call
type Controller interface {
	IsRunning(ctx context.Context) bool
	IsSetupComplete(ctx context.Context) bool
	EnsureRunning(ctx context.Context, confirm lifecycle.ConfirmFunc, sink monitor.Observer) bool
	StopServer(ctx context.Context, confirm lifecycle.ConfirmFunc) lifecycle.StopOutcome
	RefreshSettings(ctx context.Context) (any, error)
	StartTimeoutMessage() string
}

// Analyzer runs LLM analysis requests
type Analyzer interface {
	Analyze(ctx context.Context, prompt, contextText string) llm.Outcome
}

// OutputReader returns the last lines of captured server output
type OutputReader func(lines int) ([]string, error)

// StatusResult is the body of the shark_status tool
type StatusResult struct {
	URL           string `json:"url"`
	Running       bool   `json:"running"`
	SetupComplete bool   `json:"setup_complete"`
	Route         string `json:"route"`
}

// Server serves the sharkctl tools over MCP
type Server struct {
	server     *mcpserver.MCPServer
	controller Controller
	analyzer   Analyzer
	output     OutputReader
	baseURL    string
	logger     *zap.SugaredLogger
	tools      []string
}

// Option configures a Server
type Option func(*Server)

// WithAnalyzer enables the shark_analyze tool
func WithAnalyzer(a Analyzer) Option {
	return func(s *Server) { s.analyzer = a }
}

// WithOutputReader enables the shark_output tool
func WithOutputReader(r OutputReader) Option {
	return func(s *Server) { s.output = r }
}

// New creates the MCP server and registers its tools
func New(ctrl Controller, baseURL, version string, logger *zap.SugaredLogger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		server: mcpserver.NewMCPServer(serverName, version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithRecovery(),
		),
		controller: ctrl,
		baseURL:    baseURL,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying server, e.g. for ServeStdio
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.server
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects
func (s *Server) ServeStdio() error {
	s.logger.Infow("Serving MCP over stdio", "tools", s.tools)
	return mcpserver.ServeStdio(s.server)
}

// Tools returns the names of the registered tools
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

func (s *Server) addTool(tool mcp.Tool, handler mcpserver.ToolHandlerFunc) {
	s.tools = append(s.tools, tool.Name)
	s.server.AddTool(tool, handler)
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("shark_status",
		mcp.WithDescription("Report whether the local MCP Shark server is running, whether its setup is complete, and which view is usable (not-started, setup or traffic)."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleStatus)

	s.addTool(mcp.NewTool("shark_start",
		mcp.WithDescription("Start the local MCP Shark server if it is not running and wait until it answers."),
	), s.handleStart)

	s.addTool(mcp.NewTool("shark_stop",
		mcp.WithDescription("Stop the local MCP Shark server by terminating whatever listens on its port."),
		mcp.WithDestructiveHintAnnotation(true),
	), s.handleStop)

	s.addTool(mcp.NewTool("shark_settings",
		mcp.WithDescription("Fetch the settings document of the running MCP Shark server."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleSettings)

	if s.output != nil {
		s.addTool(mcp.NewTool("shark_output",
			mcp.WithDescription("Return the last lines of MCP Shark server output captured by sharkctl."),
			mcp.WithNumber("lines",
				mcp.Description(fmt.Sprintf("Number of lines to return (default: %d, max: %d)", defaultOutputLines, maxOutputLines)),
			),
			mcp.WithReadOnlyHintAnnotation(true),
		), s.handleOutput)
	}

	if s.analyzer != nil {
		s.addTool(mcp.NewTool("shark_analyze",
			mcp.WithDescription("Ask the configured language model a question about captured MCP traffic."),
			mcp.WithString("prompt",
				mcp.Required(),
				mcp.Description("Question to ask about the traffic"),
			),
			mcp.WithString("context",
				mcp.Description("Traffic excerpt or other text to analyze"),
			),
		), s.handleAnalyze)
	}
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	running := s.controller.IsRunning(ctx)
	setup := running && s.controller.IsSetupComplete(ctx)
	return jsonResult(StatusResult{
		URL:           s.baseURL,
		Running:       running,
		SetupComplete: setup,
		Route:         string(panel.Decide(running, setup)),
	})
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.controller.IsRunning(ctx) {
		return mcp.NewToolResultText("MCP Shark server is already running at " + s.baseURL), nil
	}
	// The tool call itself is the confirmation
	if !s.controller.EnsureRunning(ctx, nil, nil) {
		return mcp.NewToolResultError(s.controller.StartTimeoutMessage()), nil
	}
	return mcp.NewToolResultText("MCP Shark server is running at " + s.baseURL), nil
}

func (s *Server) handleStop(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outcome := s.controller.StopServer(ctx, nil)
	if !outcome.OK() {
		return mcp.NewToolResultError(outcome.Message()), nil
	}
	return mcp.NewToolResultText(outcome.Message()), nil
}

func (s *Server) handleSettings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.controller.IsRunning(ctx) {
		return mcp.NewToolResultError(lifecycle.MsgAlreadyStopped), nil
	}
	settings, err := s.controller.RefreshSettings(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch settings: %v", err)), nil
	}
	return jsonResult(settings)
}

func (s *Server) handleOutput(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lines := int(request.GetFloat("lines", defaultOutputLines))
	if lines <= 0 || lines > maxOutputLines {
		return mcp.NewToolResultError(fmt.Sprintf("lines must be between 1 and %d", maxOutputLines)), nil
	}
	tail, err := s.output(lines)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read server output: %v", err)), nil
	}
	if len(tail) == 0 {
		return mcp.NewToolResultText("No server output has been captured yet."), nil
	}
	return mcp.NewToolResultText(strings.Join(tail, "\n")), nil
}

func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil || strings.TrimSpace(prompt) == "" {
		return mcp.NewToolResultError("Missing required parameter 'prompt'"), nil
	}
	outcome := s.analyzer.Analyze(ctx, prompt, request.GetString("context", ""))
	if outcome.Error != "" {
		return mcp.NewToolResultError(outcome.Error), nil
	}
	return mcp.NewToolResultText(outcome.Result), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
