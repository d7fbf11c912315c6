package reconcile

import (
	"github.com/rpggio/focusboard/internal/domain/focus"
)

// mergeFocusedProjects resolves two focus records for the same project ID.
// Active beats Inactive regardless of timestamps: an explicit user
// activation must never be silently reverted by a stale read. With equal
// status the more recently touched side wins, and a side with no dates at
// all ("never meaningfully synced") loses to one that has any.
// Ties keep local.
func mergeFocusedProjects(local, remote focus.FocusedProject) focus.FocusedProject {
	if local.Status != remote.Status {
		if local.Status == focus.StatusActive {
			return local
		}
		return remote
	}

	localTouch, localOK := local.LatestTouch()
	remoteTouch, remoteOK := remote.LatestTouch()
	switch {
	case localOK && !remoteOK:
		return local
	case remoteOK && !localOK:
		return remote
	case !localOK && !remoteOK:
		return local
	}
	if remoteTouch.After(localTouch) {
		return remote
	}
	return local
}

// mergeTasks resolves two copies of the same task: the side with the
// later lastModified timestamp wins; ties keep local.
func mergeTasks(local, remote focus.FocusTask) focus.FocusTask {
	if remote.LastModified.After(local.LastModified) {
		return remote
	}
	return local
}
