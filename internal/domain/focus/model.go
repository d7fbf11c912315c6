package focus

import (
	"time"

	"github.com/rpggio/focusboard/internal/domain/project"
)

// ProjectStatus represents the focus state of a project
type ProjectStatus string

const (
	StatusActive   ProjectStatus = "active"
	StatusInactive ProjectStatus = "inactive"
)

// FocusedProject tracks whether a project is on the focus board. The
// record's own ID is random; ProjectID is the natural key. A project has
// exactly one authoritative focus record no matter how many store records
// exist for it.
type FocusedProject struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	Status        ProjectStatus `json:"status"`
	LastWorkedOn  *time.Time    `json:"last_worked_on,omitempty"`
	ActivatedDate *time.Time    `json:"activated_date,omitempty"`
}

// LatestTouch returns the most recent of LastWorkedOn and ActivatedDate.
// ok is false when the record carries no dates at all, which the merge
// treats as "never meaningfully synced".
func (f FocusedProject) LatestTouch() (latest time.Time, ok bool) {
	if f.LastWorkedOn != nil {
		latest, ok = *f.LastWorkedOn, true
	}
	if f.ActivatedDate != nil && (!ok || f.ActivatedDate.After(latest)) {
		latest, ok = *f.ActivatedDate, true
	}
	return latest, ok
}

// TaskStatus represents a task's position on the board
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// FocusTask is a board task derived from a project's checklist. Tasks are
// disposable and can always be rebuilt from the source project, except
// for the status and completion date the user layered on top, which are
// preserved across rebuilds by matching on Text + ProjectID.
type FocusTask struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	Text          string     `json:"text"`
	Status        TaskStatus `json:"status"`
	LastModified  time.Time  `json:"last_modified"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
}

// ProjectSlot is a capacity unit on the focus board. RequiredTags empty
// means unrestricted; otherwise a project needs at least one matching tag
// (OR semantics, not AND).
type ProjectSlot struct {
	ID           string   `json:"id"`
	RequiredTags []string `json:"required_tags,omitempty"`
	OccupiedBy   *string  `json:"occupied_by,omitempty"`
}

// Empty reports whether the slot has no project assigned.
func (s ProjectSlot) Empty() bool {
	return s.OccupiedBy == nil
}

// Accepts reports whether the slot's tag requirements admit the project.
func (s ProjectSlot) Accepts(p project.Project) bool {
	return p.HasAnyTag(s.RequiredTags)
}

// ChecklistItem is one extracted checklist line from an overview.
type ChecklistItem struct {
	Text        string
	Completed   bool
	CompletedAt *time.Time
}

// ReplacementPrompt asks the user to swap an Active project that has run
// out of open tasks for an Inactive candidate. At most one prompt is
// pending at a time.
type ReplacementPrompt struct {
	ProjectID   string `json:"project_id"`
	CandidateID string `json:"candidate_id"`
}
