package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/focusboard/internal/domain/focus"
	"github.com/rpggio/focusboard/internal/domain/project"
)

// BoardService defines the focus board operations needed by MCP.
type BoardService interface {
	Projects() []project.Project
	ActiveProjects() []project.Project
	InactiveProjects() []project.Project
	TaskBoard() focus.Board
	ProjectsWithNoActiveTasks() []project.Project
	IsUnderActiveMinimum() bool
	PendingReplacement() *focus.ReplacementPrompt
	Slots() []focus.ProjectSlot
	ColorIndex(projectID string) int
	SyncState() focus.Status

	ActivateProject(ctx context.Context, projectID string) error
	DeactivateProject(ctx context.Context, projectID string) error
	MarkWorkedOn(ctx context.Context, projectID string) error
	AddTask(ctx context.Context, projectID, text string) (focus.FocusTask, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status focus.TaskStatus) (focus.FocusTask, error)
	UpdateTaskText(ctx context.Context, taskID, text string) (focus.FocusTask, error)
	ForceSync(ctx context.Context) error
	ReplaceProject(ctx context.Context, oldID, newID string) error
	KeepProject(projectID string) error
	SyncWithProjects(ctx context.Context, discovered []project.Project) error
}

// ProjectScanner rediscovers projects from the filesystem.
type ProjectScanner interface {
	Scan() ([]project.Project, error)
}

// Config contains server configuration.
type Config struct {
	Board         BoardService
	Scanner       ProjectScanner
	AuthToken     string
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "focusboard",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio mode is local-only, so auth is always off there.
	if cfg.TransportMode == "http" && cfg.AuthToken != "" {
		server.AddReceivingMiddleware(authMiddleware(cfg.AuthToken))
	}
	server.AddReceivingMiddleware(deviceMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Board, cfg.Scanner)

	return server
}
