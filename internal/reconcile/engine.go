// Package reconcile merges locally-mutated project, focus and task state
// against the shared record store, which may be stale, partially written,
// duplicated, or missing fields. Each sync pass is fetch → merge → write
// back to both stores → return the authoritative set. Routine sync never
// deletes remote records; deletion happens only through the explicit
// duplicate-cleanup and force-update paths.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rpggio/focusboard/internal/domain/focus"
	"github.com/rpggio/focusboard/internal/domain/project"
	"github.com/rpggio/focusboard/internal/recordstore"
)

const defaultPropagationDelay = 2 * time.Second

// Engine reconciles local state with the record store. It implements
// focus.Syncer.
type Engine struct {
	store            recordstore.Client
	snapshots        focus.Store
	logger           *slog.Logger
	propagationDelay time.Duration
}

// Config holds Engine construction options.
type Config struct {
	Store     recordstore.Client
	Snapshots focus.Store
	Logger    *slog.Logger

	// PropagationDelay is how long a force update waits after deleting
	// remote records before recreating them. The store's consistency
	// window is not otherwise observable.
	PropagationDelay time.Duration
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.PropagationDelay
	if delay <= 0 {
		delay = defaultPropagationDelay
	}
	return &Engine{
		store:            cfg.Store,
		snapshots:        cfg.Snapshots,
		logger:           logger,
		propagationDelay: delay,
	}
}

// SyncProjects merges local projects with remote state. Local always wins
// on conflict: the local device is the source of truth for folder-derived
// metadata. Remote-only projects survive so a device without folder
// access still sees them (via the cached overview).
func (e *Engine) SyncProjects(ctx context.Context, local []project.Project) ([]project.Project, error) {
	records, err := e.store.FetchAll(ctx, recordstore.KindProject)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}

	merged := make(map[string]project.Project)
	for _, rec := range records {
		p, err := decodeProject(rec)
		if err != nil {
			e.logger.Warn("skipping malformed project record", "id", rec.ID, "error", err)
			continue
		}
		merged[p.ID] = p
	}
	for _, p := range local {
		merged[p.ID] = p
	}

	out := make([]project.Project, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	encoded := make([]recordstore.Record, 0, len(out))
	for _, p := range out {
		encoded = append(encoded, encodeProject(p))
	}
	if err := e.writeBack(ctx, encoded); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}
	if err := e.snapshots.SaveProjects(ctx, out); err != nil {
		return nil, fmt.Errorf("caching projects: %w", err)
	}
	return out, nil
}

// SyncFocusedProjects merges local focus records with remote state. The
// merge map is keyed by project ID, not record ID: a project has exactly
// one authoritative focus record regardless of how many store records
// exist for it. Remote duplicates collapse through the same conflict rule;
// their stale store records are left for CleanupDuplicateFocusRecords.
func (e *Engine) SyncFocusedProjects(ctx context.Context, local []focus.FocusedProject) ([]focus.FocusedProject, error) {
	remote, err := e.fetchFocusedProjects(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]focus.FocusedProject)
	for _, rf := range remote {
		if seen, ok := merged[rf.ProjectID]; ok {
			merged[rf.ProjectID] = mergeFocusedProjects(seen, rf)
			continue
		}
		merged[rf.ProjectID] = rf
	}
	for _, lf := range local {
		if rf, ok := merged[lf.ProjectID]; ok {
			merged[lf.ProjectID] = mergeFocusedProjects(lf, rf)
			continue
		}
		merged[lf.ProjectID] = lf
	}

	out := make([]focus.FocusedProject, 0, len(merged))
	for _, f := range merged {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })

	encoded := make([]recordstore.Record, 0, len(out))
	for _, f := range out {
		encoded = append(encoded, encodeFocusedProject(f))
	}
	if err := e.writeBack(ctx, encoded); err != nil {
		return nil, fmt.Errorf("saving focused projects: %w", err)
	}
	if err := e.snapshots.SaveFocusedProjects(ctx, out); err != nil {
		return nil, fmt.Errorf("caching focused projects: %w", err)
	}
	return out, nil
}

// SyncTasks merges local tasks with remote state; the side with the later
// lastModified timestamp wins.
func (e *Engine) SyncTasks(ctx context.Context, local []focus.FocusTask) ([]focus.FocusTask, error) {
	records, err := e.store.FetchAll(ctx, recordstore.KindFocusTask)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}

	merged := make(map[string]focus.FocusTask)
	for _, rec := range records {
		t, err := decodeTask(rec)
		if err != nil {
			e.logger.Warn("skipping malformed task record", "id", rec.ID, "error", err)
			continue
		}
		merged[t.ID] = t
	}
	for _, lt := range local {
		if rt, ok := merged[lt.ID]; ok {
			merged[lt.ID] = mergeTasks(lt, rt)
			continue
		}
		merged[lt.ID] = lt
	}

	out := make([]focus.FocusTask, 0, len(merged))
	for _, t := range merged {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	encoded := make([]recordstore.Record, 0, len(out))
	for _, t := range out {
		encoded = append(encoded, encodeTask(t))
	}
	if err := e.writeBack(ctx, encoded); err != nil {
		return nil, fmt.Errorf("saving tasks: %w", err)
	}
	if err := e.snapshots.SaveTasks(ctx, out); err != nil {
		return nil, fmt.Errorf("caching tasks: %w", err)
	}
	return out, nil
}

// CleanupDuplicateFocusRecords collapses remote focus records sharing a
// project ID down to exactly one: prefer Active status, then the most
// recent store modification time. Returns how many records were deleted.
func (e *Engine) CleanupDuplicateFocusRecords(ctx context.Context) (int, error) {
	records, err := e.store.FetchAll(ctx, recordstore.KindFocusedProject)
	if err != nil {
		return 0, fmt.Errorf("fetching focus records for cleanup: %w", err)
	}

	type candidate struct {
		rec     recordstore.Record
		decoded focus.FocusedProject
	}
	groups := make(map[string][]candidate)
	for _, rec := range records {
		f, err := decodeFocusedProject(rec)
		if err != nil {
			e.logger.Warn("skipping malformed focus record during cleanup", "id", rec.ID, "error", err)
			continue
		}
		groups[f.ProjectID] = append(groups[f.ProjectID], candidate{rec: rec, decoded: f})
	}

	var doomed []string
	for projectID, group := range groups {
		if len(group) < 2 {
			continue
		}
		keeper := 0
		for i := 1; i < len(group); i++ {
			k, c := group[keeper], group[i]
			switch {
			case c.decoded.Status == focus.StatusActive && k.decoded.Status != focus.StatusActive:
				keeper = i
			case c.decoded.Status == k.decoded.Status && c.rec.ModifiedAt.After(k.rec.ModifiedAt):
				keeper = i
			}
		}
		for i, c := range group {
			if i != keeper {
				doomed = append(doomed, c.rec.ID)
			}
		}
		e.logger.Info("collapsing duplicate focus records", "project_id", projectID, "duplicates", len(group)-1)
	}

	if len(doomed) == 0 {
		return 0, nil
	}

	result, err := e.store.Delete(ctx, recordstore.KindFocusedProject, doomed)
	if err != nil {
		return 0, fmt.Errorf("deleting duplicate focus records: %w", err)
	}
	if len(result.Failures) > 0 {
		e.logger.Warn("some duplicate focus records were not deleted", "failed", len(result.Failures))
	}
	return result.Succeeded, nil
}

// ForceUpdateFocusedProjects is the high-confidence overwrite path: the
// caller knows local state must win outright, typically right after a
// user activation when a normal merge could still surface stale remote
// data. Cleanup runs to completion first so the recreate step cannot race
// a stale duplicate and resurrect incorrect state.
func (e *Engine) ForceUpdateFocusedProjects(ctx context.Context, local []focus.FocusedProject) (int, error) {
	if len(local) == 0 {
		return 0, nil
	}

	if _, err := e.CleanupDuplicateFocusRecords(ctx); err != nil {
		return 0, fmt.Errorf("cleanup before force update: %w", err)
	}

	projectIDs := make([]string, 0, len(local))
	for _, f := range local {
		projectIDs = append(projectIDs, f.ProjectID)
	}

	stale, err := e.store.Query(ctx, recordstore.KindFocusedProject, projectIDField, projectIDs)
	if err != nil {
		return 0, fmt.Errorf("finding stale focus records: %w", err)
	}
	if len(stale) > 0 {
		staleIDs := make([]string, 0, len(stale))
		for _, rec := range stale {
			staleIDs = append(staleIDs, rec.ID)
		}
		result, err := e.store.Delete(ctx, recordstore.KindFocusedProject, staleIDs)
		if err != nil {
			return 0, fmt.Errorf("deleting stale focus records: %w", err)
		}
		if len(result.Failures) > 0 {
			// Recreating over a half-deleted set could resurrect stale state.
			return 0, fmt.Errorf("force update aborted: %d stale focus records not deleted", len(result.Failures))
		}
	}

	// The delete must be durable before the recreate; the store's
	// consistency window is not observable, so wait it out.
	select {
	case <-time.After(e.propagationDelay):
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	fresh := make([]recordstore.Record, 0, len(local))
	ids := make([]string, 0, len(local))
	expected := make(map[string]focus.ProjectStatus, len(local))
	for _, f := range local {
		fresh = append(fresh, encodeFocusedProject(f))
		ids = append(ids, f.ID)
		expected[f.ID] = f.Status
	}
	if err := e.writeBack(ctx, fresh); err != nil {
		return 0, fmt.Errorf("recreating focus records: %w", err)
	}

	verified := 0
	fetched, err := e.store.FetchByIDs(ctx, recordstore.KindFocusedProject, ids)
	if err != nil {
		e.logger.Warn("force update verification fetch failed", "error", err)
		return 0, nil
	}
	for _, rec := range fetched {
		f, err := decodeFocusedProject(rec)
		if err != nil {
			continue
		}
		if want, ok := expected[f.ID]; ok && f.Status == want {
			verified++
		}
	}
	e.logger.Info("force updated focus records", "requested", len(local), "verified", verified)
	return verified, nil
}

func (e *Engine) fetchFocusedProjects(ctx context.Context) ([]focus.FocusedProject, error) {
	records, err := e.store.FetchAll(ctx, recordstore.KindFocusedProject)
	if err != nil {
		return nil, fmt.Errorf("fetching focused projects: %w", err)
	}
	out := make([]focus.FocusedProject, 0, len(records))
	for _, rec := range records {
		f, err := decodeFocusedProject(rec)
		if err != nil {
			e.logger.Warn("skipping malformed focus record", "id", rec.ID, "error", err)
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// writeBack saves records, treating a total failure as a sync failure and
// a partial failure as acceptable: the next pass retries from scratch.
func (e *Engine) writeBack(ctx context.Context, records []recordstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	result, err := e.store.Save(ctx, records)
	if err != nil {
		return err
	}
	if len(result.Failures) > 0 {
		if result.Succeeded == 0 {
			return fmt.Errorf("all %d records failed to save: %w", len(result.Failures), result.Failures[0].Err)
		}
		e.logger.Warn("partial record save", "succeeded", result.Succeeded, "failed", len(result.Failures))
	}
	return nil
}
