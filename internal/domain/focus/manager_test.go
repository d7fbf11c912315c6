package focus

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/focusboard/internal/domain/project"
)

// stubSyncer echoes local state back as the merge result.
type stubSyncer struct {
	mu         sync.Mutex
	forceCalls [][]FocusedProject
}

func (s *stubSyncer) SyncProjects(ctx context.Context, local []project.Project) ([]project.Project, error) {
	return local, nil
}

func (s *stubSyncer) SyncFocusedProjects(ctx context.Context, local []FocusedProject) ([]FocusedProject, error) {
	return local, nil
}

func (s *stubSyncer) SyncTasks(ctx context.Context, local []FocusTask) ([]FocusTask, error) {
	return local, nil
}

func (s *stubSyncer) ForceUpdateFocusedProjects(ctx context.Context, local []FocusedProject) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceCalls = append(s.forceCalls, local)
	return len(local), nil
}

func (s *stubSyncer) CleanupDuplicateFocusRecords(ctx context.Context) (int, error) {
	return 0, nil
}

type stubStore struct {
	mu       sync.Mutex
	projects []project.Project
	focused  []FocusedProject
	tasks    []FocusTask
}

func (s *stubStore) Projects(ctx context.Context) ([]project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects, nil
}

func (s *stubStore) SaveProjects(ctx context.Context, projects []project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
	return nil
}

func (s *stubStore) FocusedProjects(ctx context.Context) ([]FocusedProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused, nil
}

func (s *stubStore) SaveFocusedProjects(ctx context.Context, focused []FocusedProject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = focused
	return nil
}

func (s *stubStore) Tasks(ctx context.Context) ([]FocusTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks, nil
}

func (s *stubStore) SaveTasks(ctx context.Context, tasks []FocusTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	return nil
}

func parseChecklist(text string) []ChecklistItem {
	var items []ChecklistItem
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "- [ ] "):
			items = append(items, ChecklistItem{Text: strings.TrimPrefix(line, "- [ ] ")})
		case strings.HasPrefix(line, "- [x] "):
			items = append(items, ChecklistItem{Text: strings.TrimPrefix(line, "- [x] "), Completed: true})
		}
	}
	return items
}

type stubEditor struct{}

func (stubEditor) AppendItem(text, itemText string) string {
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + "- [ ] " + itemText + "\n"
}

func (stubEditor) SetItemCompleted(text, itemText string, completed bool, when time.Time) (string, bool) {
	unchecked := "- [ ] " + itemText
	checked := "- [x] " + itemText
	if completed && strings.Contains(text, unchecked) {
		return strings.Replace(text, unchecked, checked, 1), true
	}
	if !completed && strings.Contains(text, checked) {
		return strings.Replace(text, checked, unchecked, 1), true
	}
	return text, false
}

func (stubEditor) RenameItem(text, oldText, newText string) (string, bool) {
	for _, prefix := range []string{"- [ ] ", "- [x] "} {
		if strings.Contains(text, prefix+oldText) {
			return strings.Replace(text, prefix+oldText, prefix+newText, 1), true
		}
	}
	return text, false
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *stubSyncer, *stubStore) {
	t.Helper()
	syncer := &stubSyncer{}
	store := &stubStore{}
	m := NewManager(cfg, store, syncer, parseChecklist, stubEditor{}, nil, nil)
	require.NoError(t, m.Load(context.Background()))
	return m, syncer, store
}

func testProjects() []project.Project {
	return []project.Project{
		{ID: "pa", Name: "alpha", Path: "/w/alpha", CachedOverview: "- [ ] design\n- [ ] build\n"},
		{ID: "pb", Name: "beta", Path: "/w/beta", CachedOverview: "- [ ] research\n"},
		{ID: "pc", Name: "gamma", Path: "/w/gamma", Tags: []string{"client"}, CachedOverview: "- [ ] invoice\n"},
	}
}

func TestSyncWithProjectsTracksNewAndVanished(t *testing.T) {
	m, _, store := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()

	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))
	require.Len(t, m.InactiveProjects(), 3)
	require.Empty(t, m.ActiveProjects())
	require.Len(t, store.focused, 3)

	// A vanished project loses its focus record.
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()[:2]))
	require.Len(t, m.InactiveProjects(), 2)
	require.Len(t, store.focused, 2)
}

func TestActivateCapacityLimit(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 2})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))

	require.NoError(t, m.ActivateProject(ctx, "pa"))
	require.NoError(t, m.ActivateProject(ctx, "pb"))
	require.ErrorIs(t, m.ActivateProject(ctx, "pc"), ErrCapacityReached)

	require.Len(t, m.ActiveProjects(), 2)
	require.ErrorIs(t, m.ActivateProject(ctx, "nope"), ErrProjectNotFound)

	// Activating an already-active project is a no-op.
	require.NoError(t, m.ActivateProject(ctx, "pa"))
	require.Len(t, m.ActiveProjects(), 2)
}

func TestActivateRespectsSlotTags(t *testing.T) {
	m, _, _ := newTestManager(t, Config{
		MaxActive: 1,
		SlotTags:  [][]string{{"client"}},
	})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))

	// alpha has no tags, so the client-only slot rejects it.
	require.ErrorIs(t, m.ActivateProject(ctx, "pa"), ErrNoSlotAccepts)
	// gamma carries #client and is accepted.
	require.NoError(t, m.ActivateProject(ctx, "pc"))
	require.Equal(t, 0, m.ColorIndex("pc"))
}

func TestActivateTriggersForceUpdate(t *testing.T) {
	m, syncer, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))

	require.NoError(t, m.ActivateProject(ctx, "pa"))

	require.Eventually(t, func() bool {
		syncer.mu.Lock()
		defer syncer.mu.Unlock()
		for _, call := range syncer.forceCalls {
			for _, f := range call {
				if f.ProjectID == "pa" && f.Status == StatusActive {
					return true
				}
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestDeactivateFreesSlot(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 1})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))

	require.NoError(t, m.ActivateProject(ctx, "pa"))
	require.ErrorIs(t, m.ActivateProject(ctx, "pb"), ErrCapacityReached)

	require.NoError(t, m.DeactivateProject(ctx, "pa"))
	require.Equal(t, -1, m.ColorIndex("pa"))
	require.NoError(t, m.ActivateProject(ctx, "pb"))
}

func TestTasksRebuildFromActiveChecklists(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))

	// Inactive projects contribute nothing.
	require.Empty(t, m.TaskBoard().Todo)

	require.NoError(t, m.ActivateProject(ctx, "pa"))
	board := m.TaskBoard()
	require.Len(t, board.Todo, 2)
}

func TestTaskStatusSurvivesRebuild(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))
	require.NoError(t, m.ActivateProject(ctx, "pa"))

	board := m.TaskBoard()
	require.NotEmpty(t, board.Todo)
	var target FocusTask
	for _, task := range board.Todo {
		if task.Text == "build" {
			target = task
		}
	}
	require.NotEmpty(t, target.ID)

	_, err := m.UpdateTaskStatus(ctx, target.ID, TaskInProgress)
	require.NoError(t, err)

	// Rescanning with the same checklist text must not reset the status
	// or mint a new task identity.
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))
	board = m.TaskBoard()
	require.Len(t, board.InProgress, 1)
	require.Equal(t, target.ID, board.InProgress[0].ID)
}

func TestCheckedLineCompletesSurvivingTask(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	projects := testProjects()
	require.NoError(t, m.SyncWithProjects(ctx, projects))
	require.NoError(t, m.ActivateProject(ctx, "pb"))

	projects[1].CachedOverview = "- [x] research\n"
	require.NoError(t, m.SyncWithProjects(ctx, projects))

	board := m.TaskBoard()
	require.Empty(t, board.Todo)
	require.Len(t, board.Completed, 1)
	require.NotNil(t, board.Completed[0].CompletedDate)
}

func TestAddTaskWritesChecklistAndBoard(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))
	require.NoError(t, m.ActivateProject(ctx, "pb"))

	task, err := m.AddTask(ctx, "pb", "write summary")
	require.NoError(t, err)
	require.Equal(t, TaskTodo, task.Status)

	found := false
	for _, p := range m.Projects() {
		if p.ID == "pb" {
			found = strings.Contains(p.CachedOverview, "- [ ] write summary")
		}
	}
	require.True(t, found, "checklist line should be appended to the overview")

	_, err = m.AddTask(ctx, "pb", "")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = m.AddTask(ctx, "missing", "x")
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestUpdateTaskStatusCompletionRoundTrip(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))
	require.NoError(t, m.ActivateProject(ctx, "pb"))

	task := m.TaskBoard().Todo[0]

	done, err := m.UpdateTaskStatus(ctx, task.ID, TaskCompleted)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedDate)
	require.True(t, done.LastModified.After(task.LastModified) || done.LastModified.Equal(task.LastModified))

	reopened, err := m.UpdateTaskStatus(ctx, task.ID, TaskTodo)
	require.NoError(t, err)
	require.Nil(t, reopened.CompletedDate)

	_, err = m.UpdateTaskStatus(ctx, task.ID, TaskStatus("bogus"))
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = m.UpdateTaskStatus(ctx, "missing", TaskTodo)
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateTaskTextRenames(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))
	require.NoError(t, m.ActivateProject(ctx, "pb"))

	task := m.TaskBoard().Todo[0]
	renamed, err := m.UpdateTaskText(ctx, task.ID, "dig deeper")
	require.NoError(t, err)
	require.Equal(t, "dig deeper", renamed.Text)
	require.Equal(t, task.ID, renamed.ID)

	for _, p := range m.Projects() {
		if p.ID == "pb" {
			require.Contains(t, p.CachedOverview, "- [ ] dig deeper")
		}
	}
}

func TestMarkWorkedOn(t *testing.T) {
	m, _, store := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))

	require.NoError(t, m.MarkWorkedOn(ctx, "pa"))
	require.ErrorIs(t, m.MarkWorkedOn(ctx, "missing"), ErrProjectNotFound)

	store.mu.Lock()
	defer store.mu.Unlock()
	for _, f := range store.focused {
		if f.ProjectID == "pa" {
			require.NotNil(t, f.LastWorkedOn)
		}
	}
}

func TestReplacementPromptLifecycle(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5, MinActive: 3})
	ctx := context.Background()
	projects := testProjects()
	require.NoError(t, m.SyncWithProjects(ctx, projects))

	require.NoError(t, m.ActivateProject(ctx, "pa"))
	require.NoError(t, m.ActivateProject(ctx, "pb"))
	require.True(t, m.IsUnderActiveMinimum(), "two active of a minimum of three")
	require.Nil(t, m.PendingReplacement())

	// Drain beta's only task: a prompt pairs it with the first inactive
	// candidate.
	task := findTask(t, m, "pb")
	_, err := m.UpdateTaskStatus(ctx, task.ID, TaskCompleted)
	require.NoError(t, err)

	prompt := m.PendingReplacement()
	require.NotNil(t, prompt)
	require.Equal(t, "pb", prompt.ProjectID)
	require.Equal(t, "pc", prompt.CandidateID)

	// Draining a second project must not raise a second prompt.
	for _, a := range m.TaskBoard().Todo {
		if a.ProjectID == "pa" {
			_, err := m.UpdateTaskStatus(ctx, a.ID, TaskCompleted)
			require.NoError(t, err)
		}
	}
	require.Equal(t, prompt, m.PendingReplacement())

	require.NoError(t, m.ReplaceProject(ctx, "pb", "pc"))
	active := m.ActiveProjects()
	require.Len(t, active, 2)
	require.Equal(t, -1, m.ColorIndex("pb"))
	require.NotEqual(t, -1, m.ColorIndex("pc"))

	// The answered prompt is gone; keep_project now has nothing to keep
	// for beta.
	require.ErrorIs(t, m.KeepProject("pb"), ErrNoPendingReplacement)
}

func TestRejectedReplaceLeavesStateUnchanged(t *testing.T) {
	m, _, store := newTestManager(t, Config{
		MaxActive: 1,
		SlotTags:  [][]string{{"client"}},
	})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))
	require.NoError(t, m.ActivateProject(ctx, "pc"))
	focusedBefore := append([]FocusedProject(nil), store.focused...)

	// alpha has no tags, so the client-only slot rejects the swap.
	require.ErrorIs(t, m.ReplaceProject(ctx, "pc", "pa"), ErrNoSlotAccepts)

	active := m.ActiveProjects()
	require.Len(t, active, 1)
	require.Equal(t, "pc", active[0].ID)
	require.Equal(t, 0, m.ColorIndex("pc"))
	require.Equal(t, -1, m.ColorIndex("pa"))
	require.Equal(t, focusedBefore, store.focused)

	// The board still works afterward.
	require.NoError(t, m.DeactivateProject(ctx, "pc"))
	require.ErrorIs(t, m.ActivateProject(ctx, "pa"), ErrNoSlotAccepts)
}

func TestKeepProjectDismissesPrompt(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))
	require.NoError(t, m.ActivateProject(ctx, "pb"))

	task := findTask(t, m, "pb")
	_, err := m.UpdateTaskStatus(ctx, task.ID, TaskCompleted)
	require.NoError(t, err)
	require.NotNil(t, m.PendingReplacement())

	require.NoError(t, m.KeepProject("pb"))
	require.Nil(t, m.PendingReplacement())
}

func TestDuplicateChecklistLinesGetDistinctTasks(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	projects := []project.Project{
		{ID: "pd", Name: "delta", Path: "/w/delta", CachedOverview: "- [ ] review\n- [ ] review\n"},
	}
	require.NoError(t, m.SyncWithProjects(ctx, projects))
	require.NoError(t, m.ActivateProject(ctx, "pd"))

	todo := m.TaskBoard().Todo
	require.Len(t, todo, 2)
	require.NotEqual(t, todo[0].ID, todo[1].ID)

	// Completing one of the twins leaves the other open.
	_, err := m.UpdateTaskStatus(ctx, todo[0].ID, TaskCompleted)
	require.NoError(t, err)
	board := m.TaskBoard()
	require.Len(t, board.Completed, 1)
	require.Len(t, board.Todo, 1)
	require.Equal(t, todo[1].ID, board.Todo[0].ID)
}

func TestForceSyncUpdatesStatus(t *testing.T) {
	m, _, _ := newTestManager(t, Config{MaxActive: 5})
	ctx := context.Background()
	require.NoError(t, m.SyncWithProjects(ctx, testProjects()))

	require.NoError(t, m.ForceSync(ctx))

	// ForceSync is a no-op while a background pass from the rescan is
	// still in flight, so the final status may land a beat later.
	require.Eventually(t, func() bool {
		state := m.SyncState()
		return state.Sync == SyncSynced && !state.LastSync.IsZero() && !state.Syncing
	}, time.Second, 5*time.Millisecond)
}

func findTask(t *testing.T, m *Manager, projectID string) FocusTask {
	t.Helper()
	for _, task := range m.TaskBoard().Todo {
		if task.ProjectID == projectID {
			return task
		}
	}
	t.Fatalf("no open task for project %s", projectID)
	return FocusTask{}
}
