package focus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/focusboard/internal/domain/project"
)

const defaultMaxActive = 5

// Config holds the focus board policy knobs.
type Config struct {
	// MaxActive bounds the number of concurrently Active projects; it is
	// also the slot count.
	MaxActive int
	// MinActive is the advisory lower bound surfaced as IsUnderActiveMinimum.
	MinActive int
	// SlotTags optionally reserves slots for project categories: entry i
	// becomes slot i's required-tag set. Missing entries are unrestricted.
	SlotTags [][]string
	// SyncTimeout bounds each background reconciliation pass.
	SyncTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxActive <= 0 {
		c.MaxActive = defaultMaxActive
	}
	if c.MinActive < 0 {
		c.MinActive = 0
	}
	if c.MinActive > c.MaxActive {
		c.MinActive = c.MaxActive
	}
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = time.Minute
	}
	return c
}

// Manager owns the in-memory working set of the focus board. It
// serializes all mutation under one mutex; remote sync runs as background
// work that never blocks a user-visible mutation, with a single boolean
// guard keeping at most one sync pass in flight.
type Manager struct {
	cfg       Config
	logger    *slog.Logger
	syncer    Syncer
	store     Store
	checklist Checklist
	editor    OverviewEditor
	writer    OverviewWriter
	now       func() time.Time

	mu         sync.Mutex
	gen        uint64
	projects   []project.Project
	focused    []FocusedProject
	tasks      []FocusTask
	slots      []ProjectSlot
	slotsReady bool
	pending    *ReplacementPrompt
	syncStatus SyncStatus
	lastSync   time.Time

	syncInFlight atomic.Bool
}

// NewManager creates a focus session manager. writer may be nil when the
// device has no direct folder access.
func NewManager(cfg Config, store Store, syncer Syncer, checklist Checklist, editor OverviewEditor, writer OverviewWriter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:        cfg.withDefaults(),
		logger:     logger,
		syncer:     syncer,
		store:      store,
		checklist:  checklist,
		editor:     editor,
		writer:     writer,
		now:        time.Now,
		syncStatus: SyncUnknown,
	}
}

// Load reads the snapshot store into the working set and initializes the
// slots exactly once, mapping already-Active projects onto them in index
// order.
func (m *Manager) Load(ctx context.Context) error {
	projects, err := m.store.Projects(ctx)
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}
	focused, err := m.store.FocusedProjects(ctx)
	if err != nil {
		return fmt.Errorf("loading focused projects: %w", err)
	}
	tasks, err := m.store.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	project.SortByName(projects)
	m.projects = projects
	m.focused = focused
	m.tasks = tasks
	m.initSlotsLocked()
	m.syncStatus = SyncReady
	return nil
}

func (m *Manager) initSlotsLocked() {
	if m.slotsReady {
		return
	}
	m.slots = make([]ProjectSlot, m.cfg.MaxActive)
	for i := range m.slots {
		m.slots[i] = ProjectSlot{ID: uuid.NewString()}
		if i < len(m.cfg.SlotTags) {
			m.slots[i].RequiredTags = m.cfg.SlotTags[i]
		}
	}
	for _, p := range m.activeProjectsLocked() {
		m.occupySlotLocked(p)
	}
	m.slotsReady = true
}

// SyncWithProjects reconciles the working set against a freshly
// discovered project list: new projects gain an Inactive focus record,
// focus records for vanished projects are dropped, the task board is
// rebuilt from Active projects' checklists, and the result is persisted
// before a background reconciliation pass is kicked off.
func (m *Manager) SyncWithProjects(ctx context.Context, discovered []project.Project) error {
	m.mu.Lock()

	project.SortByName(discovered)
	m.projects = discovered

	known := make(map[string]bool, len(discovered))
	for _, p := range discovered {
		known[p.ID] = true
	}

	kept := m.focused[:0]
	tracked := make(map[string]bool, len(m.focused))
	for _, f := range m.focused {
		if !known[f.ProjectID] {
			m.freeSlotLocked(f.ProjectID)
			continue
		}
		kept = append(kept, f)
		tracked[f.ProjectID] = true
	}
	m.focused = kept

	for _, p := range discovered {
		if !tracked[p.ID] {
			m.focused = append(m.focused, FocusedProject{
				ID:        uuid.NewString(),
				ProjectID: p.ID,
				Status:    StatusInactive,
			})
		}
	}

	m.rebuildTasksLocked()
	m.checkReplacementLocked()

	err := m.persistLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.triggerSync()
	return nil
}

// ActivateProject promotes a project to Active. The call is rejected
// synchronously, with no state change, when the Active set is at its
// maximum or no empty slot accepts the project's tags.
func (m *Manager) ActivateProject(ctx context.Context, projectID string) error {
	m.mu.Lock()

	p, ok := m.projectLocked(projectID)
	if !ok {
		m.mu.Unlock()
		return ErrProjectNotFound
	}
	f := m.ensureFocusedLocked(projectID)
	if f.Status == StatusActive {
		m.mu.Unlock()
		return nil
	}

	if m.activeCountLocked() >= m.cfg.MaxActive {
		m.mu.Unlock()
		return ErrCapacityReached
	}
	if !m.occupySlotLocked(p) {
		m.mu.Unlock()
		return ErrNoSlotAccepts
	}

	now := m.now()
	f.Status = StatusActive
	f.ActivatedDate = &now

	m.rebuildTasksLocked()
	m.checkReplacementLocked()

	forced := *f
	err := m.persistLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	// A normal merge might still surface stale remote data inside the
	// store's propagation window; push the activation through the
	// high-confidence path.
	m.triggerForceUpdate(forced)
	return nil
}

// DeactivateProject demotes a project to Inactive and frees its slot.
func (m *Manager) DeactivateProject(ctx context.Context, projectID string) error {
	m.mu.Lock()

	f, ok := m.focusedLocked(projectID)
	if !ok {
		m.mu.Unlock()
		return ErrProjectNotFound
	}
	if f.Status == StatusInactive {
		m.mu.Unlock()
		return nil
	}

	f.Status = StatusInactive
	m.freeSlotLocked(projectID)
	if m.pending != nil && m.pending.ProjectID == projectID {
		m.pending = nil
	}

	m.rebuildTasksLocked()

	forced := *f
	err := m.persistLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.triggerForceUpdate(forced)
	return nil
}

// MarkWorkedOn stamps the project's last-worked-on time.
func (m *Manager) MarkWorkedOn(ctx context.Context, projectID string) error {
	m.mu.Lock()

	f, ok := m.focusedLocked(projectID)
	if !ok {
		m.mu.Unlock()
		return ErrProjectNotFound
	}
	now := m.now()
	f.LastWorkedOn = &now

	err := m.persistLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.triggerSync()
	return nil
}

// AddTask appends a checklist item to the project's overview and puts the
// matching task on the board.
func (m *Manager) AddTask(ctx context.Context, projectID, text string) (FocusTask, error) {
	if text == "" {
		return FocusTask{}, ErrInvalidInput
	}

	m.mu.Lock()

	idx, ok := m.projectIndexLocked(projectID)
	if !ok {
		m.mu.Unlock()
		return FocusTask{}, ErrProjectNotFound
	}

	if m.editor != nil {
		m.projects[idx].CachedOverview = m.editor.AppendItem(m.projects[idx].CachedOverview, text)
		m.writeOverviewLocked(m.projects[idx])
	}

	task := FocusTask{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		Text:         text,
		Status:       TaskTodo,
		LastModified: m.now(),
	}
	m.tasks = append(m.tasks, task)

	err := m.persistLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return FocusTask{}, err
	}

	m.triggerSync()
	return task, nil
}

// UpdateTaskStatus moves a task between board columns. Completion sets
// the completion date and writes it back into the owning project's
// checklist; un-completion clears both. lastModified is bumped on every
// transition so the timestamp merge rule behaves.
func (m *Manager) UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus) (FocusTask, error) {
	switch status {
	case TaskTodo, TaskInProgress, TaskCompleted:
	default:
		return FocusTask{}, ErrInvalidInput
	}

	m.mu.Lock()

	idx, ok := m.taskIndexLocked(taskID)
	if !ok {
		m.mu.Unlock()
		return FocusTask{}, ErrTaskNotFound
	}

	now := m.now()
	task := &m.tasks[idx]
	wasCompleted := task.Status == TaskCompleted
	task.Status = status
	task.LastModified = now
	if status == TaskCompleted {
		task.CompletedDate = &now
	} else {
		task.CompletedDate = nil
	}

	if m.editor != nil && wasCompleted != (status == TaskCompleted) {
		if pidx, ok := m.projectIndexLocked(task.ProjectID); ok {
			updated, found := m.editor.SetItemCompleted(m.projects[pidx].CachedOverview, task.Text, status == TaskCompleted, now)
			if found {
				m.projects[pidx].CachedOverview = updated
				m.writeOverviewLocked(m.projects[pidx])
			}
		}
	}

	m.checkReplacementLocked()

	result := *task
	err := m.persistLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return FocusTask{}, err
	}

	m.triggerSync()
	return result, nil
}

// UpdateTaskText renames a task, rewriting the matching checklist line.
func (m *Manager) UpdateTaskText(ctx context.Context, taskID, text string) (FocusTask, error) {
	if text == "" {
		return FocusTask{}, ErrInvalidInput
	}

	m.mu.Lock()

	idx, ok := m.taskIndexLocked(taskID)
	if !ok {
		m.mu.Unlock()
		return FocusTask{}, ErrTaskNotFound
	}

	task := &m.tasks[idx]
	if m.editor != nil {
		if pidx, ok := m.projectIndexLocked(task.ProjectID); ok {
			updated, found := m.editor.RenameItem(m.projects[pidx].CachedOverview, task.Text, text)
			if found {
				m.projects[pidx].CachedOverview = updated
				m.writeOverviewLocked(m.projects[pidx])
			}
		}
	}
	task.Text = text
	task.LastModified = m.now()

	result := *task
	err := m.persistLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return FocusTask{}, err
	}

	m.triggerSync()
	return result, nil
}

// ReplaceProject swaps a drained Active project for an Inactive candidate
// and clears the pending replacement prompt.
func (m *Manager) ReplaceProject(ctx context.Context, oldID, newID string) error {
	m.mu.Lock()

	newProject, ok := m.projectLocked(newID)
	if !ok {
		m.mu.Unlock()
		return ErrProjectNotFound
	}
	oldIdx, ok := m.focusedIndexLocked(oldID)
	if !ok || m.focused[oldIdx].Status != StatusActive {
		m.mu.Unlock()
		return ErrProjectNotFound
	}

	// Settle the slot swap before touching any focus state, so a
	// rejected candidate leaves the board exactly as it was.
	freed := m.freeSlotLocked(oldID)
	if !m.occupySlotLocked(newProject) {
		if freed >= 0 {
			id := oldID
			m.slots[freed].OccupiedBy = &id
		}
		m.mu.Unlock()
		return ErrNoSlotAccepts
	}

	next := m.ensureFocusedLocked(newID)
	m.focused[oldIdx].Status = StatusInactive
	now := m.now()
	next.Status = StatusActive
	next.ActivatedDate = &now

	m.pending = nil
	m.rebuildTasksLocked()
	m.checkReplacementLocked()

	forcedOld, forcedNew := m.focused[oldIdx], *next
	err := m.persistLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.triggerForceUpdate(forcedOld, forcedNew)
	return nil
}

// KeepProject dismisses the pending replacement prompt for the project.
func (m *Manager) KeepProject(projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil || m.pending.ProjectID != projectID {
		return ErrNoPendingReplacement
	}
	m.pending = nil
	return nil
}

// ForceSync runs a full reconciliation pass synchronously. When a pass is
// already in flight the call is a no-op.
func (m *Manager) ForceSync(ctx context.Context) error {
	return m.runSyncPass(ctx)
}

func (m *Manager) triggerSync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SyncTimeout)
		defer cancel()
		if err := m.runSyncPass(ctx); err != nil {
			m.logger.Warn("background sync failed", "error", err)
		}
	}()
}

func (m *Manager) triggerForceUpdate(records ...FocusedProject) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SyncTimeout)
		defer cancel()
		if _, err := m.syncer.ForceUpdateFocusedProjects(ctx, records); err != nil {
			m.logger.Warn("force update failed", "error", err)
			m.setStatus(SyncStatusFromError(err))
			return
		}
		if err := m.runSyncPass(ctx); err != nil {
			m.logger.Warn("post-force sync failed", "error", err)
		}
	}()
}

// runSyncPass is the single-flight reconciliation pass: remote reads
// happen-before the merge, the merge happens-before remote writes, and
// the snapshot write comes last (inside the engine). The merged result
// replaces the working set wholesale.
func (m *Manager) runSyncPass(ctx context.Context) error {
	if !m.syncInFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer m.syncInFlight.Store(false)

	m.mu.Lock()
	m.syncStatus = SyncSyncing
	startGen := m.gen
	localProjects := append([]project.Project(nil), m.projects...)
	localFocused := append([]FocusedProject(nil), m.focused...)
	localTasks := append([]FocusTask(nil), m.tasks...)
	m.mu.Unlock()

	mergedProjects, err := m.syncer.SyncProjects(ctx, localProjects)
	if err != nil {
		m.setStatus(SyncStatusFromError(err))
		return err
	}
	mergedFocused, err := m.syncer.SyncFocusedProjects(ctx, localFocused)
	if err != nil {
		m.setStatus(SyncStatusFromError(err))
		return err
	}
	mergedTasks, err := m.syncer.SyncTasks(ctx, localTasks)
	if err != nil {
		m.setStatus(SyncStatusFromError(err))
		return err
	}

	m.mu.Lock()
	// A mutation that landed mid-pass would be clobbered by adopting the
	// merge result; leave the working set alone and let the next pass
	// carry the newer state.
	if m.gen == startGen {
		project.SortByName(mergedProjects)
		m.projects = mergedProjects
		m.focused = mergedFocused
		m.tasks = mergedTasks
		m.reconcileSlotsLocked()
		m.checkReplacementLocked()
	}
	m.syncStatus = SyncSynced
	m.lastSync = m.now()
	m.mu.Unlock()
	return nil
}

func (m *Manager) setStatus(status SyncStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncStatus = status
}

// rebuildTasksLocked re-derives the board from Active projects'
// checklists. Status and completion date the user layered onto a task
// survive the rebuild via the Text+ProjectID match; a line newly checked
// off in the file marks the surviving task completed.
func (m *Manager) rebuildTasksLocked() {
	type key struct{ projectID, text string }
	existing := make(map[key]FocusTask, len(m.tasks))
	for _, t := range m.tasks {
		existing[key{t.ProjectID, t.Text}] = t
	}

	var rebuilt []FocusTask
	for _, p := range m.activeProjectsLocked() {
		items := m.checklist(p.CachedOverview)
		for _, item := range items {
			// Consume the match so a second identical line becomes its
			// own task instead of a duplicate ID.
			k := key{p.ID, item.Text}
			prev, ok := existing[k]
			delete(existing, k)
			if !ok {
				task := FocusTask{
					ID:           uuid.NewString(),
					ProjectID:    p.ID,
					Text:         item.Text,
					Status:       TaskTodo,
					LastModified: m.now(),
				}
				if item.Completed {
					task.Status = TaskCompleted
					task.CompletedDate = item.CompletedAt
					if task.CompletedDate == nil {
						now := m.now()
						task.CompletedDate = &now
					}
				}
				rebuilt = append(rebuilt, task)
				continue
			}

			if item.Completed && prev.Status != TaskCompleted {
				prev.Status = TaskCompleted
				prev.CompletedDate = item.CompletedAt
				if prev.CompletedDate == nil {
					now := m.now()
					prev.CompletedDate = &now
				}
				prev.LastModified = m.now()
			}
			rebuilt = append(rebuilt, prev)
		}
	}
	m.tasks = rebuilt
}

// checkReplacementLocked surfaces at most one replacement candidate: the
// first Active project (in sorted order) with zero open tasks, paired
// with the first Inactive project. An existing prompt blocks new ones
// until it is replaced or dismissed.
func (m *Manager) checkReplacementLocked() {
	if m.pending != nil {
		return
	}

	drained := m.projectsWithNoActiveTasksLocked()
	if len(drained) == 0 {
		return
	}
	inactive := m.inactiveProjectsLocked()
	if len(inactive) == 0 {
		return
	}

	m.pending = &ReplacementPrompt{
		ProjectID:   drained[0].ID,
		CandidateID: inactive[0].ID,
	}
	m.logger.Info("replacement prompt raised", "project_id", m.pending.ProjectID, "candidate_id", m.pending.CandidateID)
}

func (m *Manager) persistLocked(ctx context.Context) error {
	m.gen++
	if err := m.store.SaveProjects(ctx, m.projects); err != nil {
		return fmt.Errorf("persisting projects: %w", err)
	}
	if err := m.store.SaveFocusedProjects(ctx, m.focused); err != nil {
		return fmt.Errorf("persisting focused projects: %w", err)
	}
	if err := m.store.SaveTasks(ctx, m.tasks); err != nil {
		return fmt.Errorf("persisting tasks: %w", err)
	}
	return nil
}

func (m *Manager) writeOverviewLocked(p project.Project) {
	if m.writer == nil {
		return
	}
	if err := m.writer(p, p.CachedOverview); err != nil {
		m.logger.Warn("overview write failed", "project", p.Name, "error", err)
	}
}

func (m *Manager) projectLocked(projectID string) (project.Project, bool) {
	idx, ok := m.projectIndexLocked(projectID)
	if !ok {
		return project.Project{}, false
	}
	return m.projects[idx], true
}

func (m *Manager) projectIndexLocked(projectID string) (int, bool) {
	for i := range m.projects {
		if m.projects[i].ID == projectID {
			return i, true
		}
	}
	return 0, false
}

func (m *Manager) focusedLocked(projectID string) (*FocusedProject, bool) {
	if i, ok := m.focusedIndexLocked(projectID); ok {
		return &m.focused[i], true
	}
	return nil, false
}

// focusedIndexLocked is the index form for callers that append to
// m.focused while holding a reference; an index survives reallocation
// where a pointer does not.
func (m *Manager) focusedIndexLocked(projectID string) (int, bool) {
	for i := range m.focused {
		if m.focused[i].ProjectID == projectID {
			return i, true
		}
	}
	return 0, false
}

func (m *Manager) ensureFocusedLocked(projectID string) *FocusedProject {
	if f, ok := m.focusedLocked(projectID); ok {
		return f
	}
	m.focused = append(m.focused, FocusedProject{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Status:    StatusInactive,
	})
	return &m.focused[len(m.focused)-1]
}

func (m *Manager) taskIndexLocked(taskID string) (int, bool) {
	for i := range m.tasks {
		if m.tasks[i].ID == taskID {
			return i, true
		}
	}
	return 0, false
}

func (m *Manager) activeCountLocked() int {
	count := 0
	for _, f := range m.focused {
		if f.Status == StatusActive {
			count++
		}
	}
	return count
}

func (m *Manager) occupySlotLocked(p project.Project) bool {
	for i := range m.slots {
		if m.slots[i].Empty() && m.slots[i].Accepts(p) {
			id := p.ID
			m.slots[i].OccupiedBy = &id
			return true
		}
	}
	return false
}

// freeSlotLocked vacates the project's slot and returns its index, or -1
// when the project held no slot.
func (m *Manager) freeSlotLocked(projectID string) int {
	for i := range m.slots {
		if m.slots[i].OccupiedBy != nil && *m.slots[i].OccupiedBy == projectID {
			m.slots[i].OccupiedBy = nil
			return i
		}
	}
	return -1
}

// reconcileSlotsLocked re-maps slots after a merge changed the Active set
// remotely: slots of no-longer-active projects are freed and newly active
// projects are seated best-effort.
func (m *Manager) reconcileSlotsLocked() {
	active := make(map[string]bool)
	for _, f := range m.focused {
		if f.Status == StatusActive {
			active[f.ProjectID] = true
		}
	}

	seated := make(map[string]bool)
	for i := range m.slots {
		if m.slots[i].OccupiedBy == nil {
			continue
		}
		id := *m.slots[i].OccupiedBy
		if !active[id] {
			m.slots[i].OccupiedBy = nil
			continue
		}
		seated[id] = true
	}

	for _, p := range m.activeProjectsLocked() {
		if !seated[p.ID] {
			m.occupySlotLocked(p)
		}
	}
}
