package mcp

import (
	"time"

	"github.com/rpggio/focusboard/internal/domain/focus"
)

type EmptyParams struct{}

type ProjectIDParams struct {
	ProjectID string `json:"project_id" jsonschema:"ID of the project"`
}

type AddTaskParams struct {
	ProjectID string `json:"project_id" jsonschema:"ID of the project the task belongs to"`
	Text      string `json:"text" jsonschema:"Task text, added to the project's checklist"`
}

type UpdateTaskStatusParams struct {
	TaskID string `json:"task_id" jsonschema:"ID of the task"`
	Status string `json:"status" jsonschema:"New status: todo, in_progress, or completed"`
}

type UpdateTaskTextParams struct {
	TaskID string `json:"task_id" jsonschema:"ID of the task"`
	Text   string `json:"text" jsonschema:"Replacement task text"`
}

type ReplaceProjectParams struct {
	ProjectID   string `json:"project_id" jsonschema:"Active project to swap out"`
	CandidateID string `json:"candidate_id" jsonschema:"Inactive project to swap in"`
}

// ProjectSummary is the list_projects row.
type ProjectSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Tags       []string `json:"tags,omitempty"`
	Status     string   `json:"status"`
	ColorIndex int      `json:"color_index"`
}

type ListProjectsResult struct {
	Projects []ProjectSummary `json:"projects"`
}

type TaskResponse struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	Text          string     `json:"text"`
	Status        string     `json:"status"`
	LastModified  time.Time  `json:"last_modified"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

type FocusBoardResult struct {
	ActiveProjects     []ProjectSummary         `json:"active_projects"`
	Todo               []TaskResponse           `json:"todo"`
	InProgress         []TaskResponse           `json:"in_progress"`
	Completed          []TaskResponse           `json:"completed"`
	ProjectsOutOfTasks []string                 `json:"projects_out_of_tasks,omitempty"`
	UnderActiveMinimum bool                     `json:"under_active_minimum"`
	PendingReplacement *focus.ReplacementPrompt `json:"pending_replacement,omitempty"`
}

type ActivateResult struct {
	ProjectID  string `json:"project_id"`
	ColorIndex int    `json:"color_index"`
}

type OKResult struct {
	OK bool `json:"ok"`
}

type SyncStatusResult struct {
	Status   string     `json:"status"`
	LastSync *time.Time `json:"last_sync,omitempty"`
	Syncing  bool       `json:"syncing"`
}

type RescanResult struct {
	ProjectCount int `json:"project_count"`
}

func taskResponse(t focus.FocusTask) TaskResponse {
	return TaskResponse{
		ID:            t.ID,
		ProjectID:     t.ProjectID,
		Text:          t.Text,
		Status:        string(t.Status),
		LastModified:  t.LastModified,
		DueDate:       t.DueDate,
		CompletedDate: t.CompletedDate,
	}
}

func taskResponses(tasks []focus.FocusTask) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse(t))
	}
	return out
}
