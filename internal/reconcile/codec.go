package reconcile

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rpggio/focusboard/internal/domain/focus"
	"github.com/rpggio/focusboard/internal/domain/project"
	"github.com/rpggio/focusboard/internal/recordstore"
)

// projectIDField is the payload field force update queries on. Remote
// focus records are found by project ID, never by guessing record IDs.
const projectIDField = "project_id"

var errMissingField = errors.New("missing required field")

func encodeProject(p project.Project) recordstore.Record {
	data, _ := json.Marshal(p)
	return recordstore.Record{
		Kind:       recordstore.KindProject,
		ID:         p.ID,
		Data:       data,
		ModifiedAt: time.Now().UTC(),
	}
}

func decodeProject(rec recordstore.Record) (project.Project, error) {
	var p project.Project
	if err := json.Unmarshal(rec.Data, &p); err != nil {
		return project.Project{}, err
	}
	if p.ID == "" {
		p.ID = rec.ID
	}
	if p.ID == "" || p.Path == "" {
		return project.Project{}, errMissingField
	}
	return p, nil
}

func encodeFocusedProject(f focus.FocusedProject) recordstore.Record {
	data, _ := json.Marshal(f)
	modified := time.Now().UTC()
	if touch, ok := f.LatestTouch(); ok {
		modified = touch
	}
	return recordstore.Record{
		Kind:       recordstore.KindFocusedProject,
		ID:         f.ID,
		Data:       data,
		ModifiedAt: modified,
	}
}

func decodeFocusedProject(rec recordstore.Record) (focus.FocusedProject, error) {
	var f focus.FocusedProject
	if err := json.Unmarshal(rec.Data, &f); err != nil {
		return focus.FocusedProject{}, err
	}
	if f.ID == "" {
		f.ID = rec.ID
	}
	if f.ID == "" || f.ProjectID == "" {
		return focus.FocusedProject{}, errMissingField
	}
	// Anything that isn't an explicit activation counts as inactive; a
	// garbled status must never win the Active-beats-Inactive rule.
	if f.Status != focus.StatusActive {
		f.Status = focus.StatusInactive
	}
	return f, nil
}

func encodeTask(t focus.FocusTask) recordstore.Record {
	data, _ := json.Marshal(t)
	modified := t.LastModified
	if modified.IsZero() {
		modified = time.Now().UTC()
	}
	return recordstore.Record{
		Kind:       recordstore.KindFocusTask,
		ID:         t.ID,
		Data:       data,
		ModifiedAt: modified,
	}
}

func decodeTask(rec recordstore.Record) (focus.FocusTask, error) {
	var t focus.FocusTask
	if err := json.Unmarshal(rec.Data, &t); err != nil {
		return focus.FocusTask{}, err
	}
	if t.ID == "" {
		t.ID = rec.ID
	}
	if t.ID == "" || t.ProjectID == "" || t.Text == "" {
		return focus.FocusTask{}, errMissingField
	}
	switch t.Status {
	case focus.TaskTodo, focus.TaskInProgress, focus.TaskCompleted:
	default:
		t.Status = focus.TaskTodo
	}
	if t.LastModified.IsZero() {
		t.LastModified = rec.ModifiedAt
	}
	return t, nil
}
