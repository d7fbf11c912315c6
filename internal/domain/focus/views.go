package focus

import (
	"sort"
	"time"

	"github.com/rpggio/focusboard/internal/domain/project"
)

// Board is the kanban view of the current task set.
type Board struct {
	Todo       []FocusTask `json:"todo"`
	InProgress []FocusTask `json:"in_progress"`
	Completed  []FocusTask `json:"completed"`
}

// Status is a point-in-time snapshot of sync health.
type Status struct {
	Sync     SyncStatus `json:"sync"`
	LastSync time.Time  `json:"last_sync"`
	Syncing  bool       `json:"syncing"`
}

// ActiveProjects lists the projects currently in focus, sorted by name.
func (m *Manager) ActiveProjects() []project.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.activeProjectsLocked()
	project.SortByName(out)
	return out
}

// InactiveProjects lists tracked projects that are not in focus, sorted
// by name.
func (m *Manager) InactiveProjects() []project.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.inactiveProjectsLocked()
	project.SortByName(out)
	return out
}

// Projects lists every discovered project, sorted by name.
func (m *Manager) Projects() []project.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]project.Project(nil), m.projects...)
}

// TaskBoard groups the current tasks into board columns. Each column is
// ordered by last modification, most recent first.
func (m *Manager) TaskBoard() Board {
	m.mu.Lock()
	defer m.mu.Unlock()

	var board Board
	for _, t := range m.tasks {
		switch t.Status {
		case TaskInProgress:
			board.InProgress = append(board.InProgress, t)
		case TaskCompleted:
			board.Completed = append(board.Completed, t)
		default:
			board.Todo = append(board.Todo, t)
		}
	}
	for _, column := range [][]FocusTask{board.Todo, board.InProgress, board.Completed} {
		sort.SliceStable(column, func(i, j int) bool {
			return column[i].LastModified.After(column[j].LastModified)
		})
	}
	return board
}

// ProjectsWithNoActiveTasks lists Active projects whose every task is
// completed, or that have no tasks at all.
func (m *Manager) ProjectsWithNoActiveTasks() []project.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projectsWithNoActiveTasksLocked()
}

// IsUnderActiveMinimum reports whether the Active set has fallen below
// the configured advisory minimum.
func (m *Manager) IsUnderActiveMinimum() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCountLocked() < m.cfg.MinActive
}

// PendingReplacement returns the current replacement prompt, if any.
func (m *Manager) PendingReplacement() *ReplacementPrompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil
	}
	p := *m.pending
	return &p
}

// Slots returns a copy of the slot assignments.
func (m *Manager) Slots() []ProjectSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ProjectSlot, len(m.slots))
	for i, s := range m.slots {
		out[i] = s
		if s.OccupiedBy != nil {
			id := *s.OccupiedBy
			out[i].OccupiedBy = &id
		}
	}
	return out
}

// ColorIndex returns the stable display index for an Active project,
// which is its slot position. Inactive projects return -1.
func (m *Manager) ColorIndex(projectID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		if m.slots[i].OccupiedBy != nil && *m.slots[i].OccupiedBy == projectID {
			return i
		}
	}
	return -1
}

// SyncState reports the current sync status, the time of the last
// successful pass, and whether a pass is in flight.
func (m *Manager) SyncState() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Sync:     m.syncStatus,
		LastSync: m.lastSync,
		Syncing:  m.syncInFlight.Load(),
	}
}

func (m *Manager) activeProjectsLocked() []project.Project {
	return m.projectsByStatusLocked(StatusActive)
}

func (m *Manager) inactiveProjectsLocked() []project.Project {
	return m.projectsByStatusLocked(StatusInactive)
}

func (m *Manager) projectsByStatusLocked(status ProjectStatus) []project.Project {
	byID := make(map[string]project.Project, len(m.projects))
	for _, p := range m.projects {
		byID[p.ID] = p
	}
	var out []project.Project
	for _, f := range m.focused {
		if f.Status != status {
			continue
		}
		if p, ok := byID[f.ProjectID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) projectsWithNoActiveTasksLocked() []project.Project {
	open := make(map[string]int)
	for _, t := range m.tasks {
		if t.Status != TaskCompleted {
			open[t.ProjectID]++
		}
	}
	var out []project.Project
	for _, p := range m.activeProjectsLocked() {
		if open[p.ID] == 0 {
			out = append(out, p)
		}
	}
	project.SortByName(out)
	return out
}
