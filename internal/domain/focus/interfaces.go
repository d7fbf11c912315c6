package focus

import (
	"context"
	"time"

	"github.com/rpggio/focusboard/internal/domain/project"
)

// Syncer runs reconciliation passes against the shared record store. Each
// call merges the given local collection with remote state and returns the
// authoritative set; the manager must treat the result as a full replace.
type Syncer interface {
	SyncProjects(ctx context.Context, local []project.Project) ([]project.Project, error)
	SyncFocusedProjects(ctx context.Context, local []FocusedProject) ([]FocusedProject, error)
	SyncTasks(ctx context.Context, local []FocusTask) ([]FocusTask, error)

	// ForceUpdateFocusedProjects overwrites remote focus records with the
	// given local state, returning how many records were verified remotely.
	ForceUpdateFocusedProjects(ctx context.Context, local []FocusedProject) (int, error)

	// CleanupDuplicateFocusRecords collapses remote focus records sharing a
	// project ID down to one, returning how many duplicates were removed.
	CleanupDuplicateFocusRecords(ctx context.Context) (int, error)
}

// Store persists the last-known-good decoded state of each collection.
type Store interface {
	Projects(ctx context.Context) ([]project.Project, error)
	SaveProjects(ctx context.Context, projects []project.Project) error
	FocusedProjects(ctx context.Context) ([]FocusedProject, error)
	SaveFocusedProjects(ctx context.Context, focused []FocusedProject) error
	Tasks(ctx context.Context) ([]FocusTask, error)
	SaveTasks(ctx context.Context, tasks []FocusTask) error
}

// Checklist extracts checklist items from a project's overview markdown.
type Checklist func(markdown string) []ChecklistItem

// OverviewEditor performs targeted edits on overview markdown so task
// mutations flow back into the owning project's checklist text.
type OverviewEditor interface {
	// AppendItem adds an unchecked checklist item and returns the updated text.
	AppendItem(text, itemText string) string
	// SetItemCompleted checks or unchecks the item matching itemText,
	// stamping or stripping the completion date.
	SetItemCompleted(text, itemText string, completed bool, when time.Time) (updated string, found bool)
	// RenameItem rewrites the item matching oldText to carry newText,
	// preserving its checkbox state.
	RenameItem(text, oldText, newText string) (updated string, found bool)
}

// OverviewWriter persists an updated overview for a project (normally to
// its folder on disk). The manager treats failures as best-effort: the
// cached copy still syncs.
type OverviewWriter func(p project.Project, text string) error
