package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/focusboard/internal/domain/focus"
	"github.com/rpggio/focusboard/internal/domain/project"
)

// registerTools wires every board operation onto the SDK server. Input
// schemas are inferred from the param struct types.
func registerTools(server *sdkmcp.Server, board BoardService, scanner ProjectScanner) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all tracked projects with their focus status",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in EmptyParams) (*sdkmcp.CallToolResult, ListProjectsResult, error) {
		return nil, ListProjectsResult{Projects: summarize(board, board.Projects())}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_focus_board",
		Description: "Get the focus board: active projects and the task columns",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in EmptyParams) (*sdkmcp.CallToolResult, FocusBoardResult, error) {
		b := board.TaskBoard()
		result := FocusBoardResult{
			ActiveProjects:     summarize(board, board.ActiveProjects()),
			Todo:               taskResponses(b.Todo),
			InProgress:         taskResponses(b.InProgress),
			Completed:          taskResponses(b.Completed),
			UnderActiveMinimum: board.IsUnderActiveMinimum(),
			PendingReplacement: board.PendingReplacement(),
		}
		for _, p := range board.ProjectsWithNoActiveTasks() {
			result.ProjectsOutOfTasks = append(result.ProjectsOutOfTasks, p.ID)
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "activate_project",
		Description: "Put a project in focus, occupying a board slot",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, ActivateResult, error) {
		if err := board.ActivateProject(ctx, in.ProjectID); err != nil {
			return nil, ActivateResult{}, MapError(err)
		}
		return nil, ActivateResult{ProjectID: in.ProjectID, ColorIndex: board.ColorIndex(in.ProjectID)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "deactivate_project",
		Description: "Take a project out of focus, freeing its board slot",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, OKResult, error) {
		if err := board.DeactivateProject(ctx, in.ProjectID); err != nil {
			return nil, OKResult{}, MapError(err)
		}
		return nil, OKResult{OK: true}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "mark_worked_on",
		Description: "Record that a project was worked on just now",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, OKResult, error) {
		if err := board.MarkWorkedOn(ctx, in.ProjectID); err != nil {
			return nil, OKResult{}, MapError(err)
		}
		return nil, OKResult{OK: true}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_task",
		Description: "Add a task to a project's checklist and the board",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in AddTaskParams) (*sdkmcp.CallToolResult, TaskResponse, error) {
		task, err := board.AddTask(ctx, in.ProjectID, in.Text)
		if err != nil {
			return nil, TaskResponse{}, MapError(err)
		}
		return nil, taskResponse(task), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_task_status",
		Description: "Move a task between todo, in_progress, and completed",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in UpdateTaskStatusParams) (*sdkmcp.CallToolResult, TaskResponse, error) {
		task, err := board.UpdateTaskStatus(ctx, in.TaskID, focus.TaskStatus(in.Status))
		if err != nil {
			return nil, TaskResponse{}, MapError(err)
		}
		return nil, taskResponse(task), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_task_text",
		Description: "Rewrite a task's text, updating the checklist line too",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in UpdateTaskTextParams) (*sdkmcp.CallToolResult, TaskResponse, error) {
		task, err := board.UpdateTaskText(ctx, in.TaskID, in.Text)
		if err != nil {
			return nil, TaskResponse{}, MapError(err)
		}
		return nil, taskResponse(task), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "replace_project",
		Description: "Swap a finished active project for an inactive candidate",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ReplaceProjectParams) (*sdkmcp.CallToolResult, ActivateResult, error) {
		if err := board.ReplaceProject(ctx, in.ProjectID, in.CandidateID); err != nil {
			return nil, ActivateResult{}, MapError(err)
		}
		return nil, ActivateResult{ProjectID: in.CandidateID, ColorIndex: board.ColorIndex(in.CandidateID)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "keep_project",
		Description: "Dismiss the pending replacement prompt for a project",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in ProjectIDParams) (*sdkmcp.CallToolResult, OKResult, error) {
		if err := board.KeepProject(in.ProjectID); err != nil {
			return nil, OKResult{}, MapError(err)
		}
		return nil, OKResult{OK: true}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "force_sync",
		Description: "Run a full sync pass against the shared record store now",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in EmptyParams) (*sdkmcp.CallToolResult, SyncStatusResult, error) {
		if err := board.ForceSync(ctx); err != nil {
			return nil, SyncStatusResult{}, MapError(err)
		}
		return nil, syncStatusResult(board.SyncState()), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_sync_status",
		Description: "Report sync health and the time of the last successful pass",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in EmptyParams) (*sdkmcp.CallToolResult, SyncStatusResult, error) {
		return nil, syncStatusResult(board.SyncState()), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "rescan",
		Description: "Rediscover projects from the projects folder and reconcile the board",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in EmptyParams) (*sdkmcp.CallToolResult, RescanResult, error) {
		if scanner == nil {
			return nil, RescanResult{}, fmt.Errorf("no projects folder is configured")
		}
		discovered, err := scanner.Scan()
		if err != nil {
			return nil, RescanResult{}, fmt.Errorf("scanning projects: %w", err)
		}
		if err := board.SyncWithProjects(ctx, discovered); err != nil {
			return nil, RescanResult{}, MapError(err)
		}
		return nil, RescanResult{ProjectCount: len(discovered)}, nil
	})
}

func summarize(board BoardService, projects []project.Project) []ProjectSummary {
	active := make(map[string]bool)
	for _, p := range board.ActiveProjects() {
		active[p.ID] = true
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		status := "inactive"
		if active[p.ID] {
			status = "active"
		}
		out = append(out, ProjectSummary{
			ID:         p.ID,
			Name:       p.Name,
			Path:       p.Path,
			Tags:       p.Tags,
			Status:     status,
			ColorIndex: board.ColorIndex(p.ID),
		})
	}
	return out
}

func syncStatusResult(s focus.Status) SyncStatusResult {
	result := SyncStatusResult{
		Status:  string(s.Sync),
		Syncing: s.Syncing,
	}
	if !s.LastSync.IsZero() {
		last := s.LastSync
		result.LastSync = &last
	}
	return result
}
