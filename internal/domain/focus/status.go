package focus

import (
	"errors"
	"fmt"

	"github.com/rpggio/focusboard/internal/recordstore"
)

// SyncStatus is the human-readable sync state surfaced to the UI layer.
type SyncStatus string

const (
	SyncUnknown                SyncStatus = "Unknown"
	SyncReady                  SyncStatus = "Ready"
	SyncNotSignedIn            SyncStatus = "Not Signed In"
	SyncRestricted             SyncStatus = "Restricted"
	SyncTemporarilyUnavailable SyncStatus = "Temporarily Unavailable"
	SyncSyncing                SyncStatus = "Syncing..."
	SyncSynced                 SyncStatus = "Synced"
)

// SyncStatusFromError maps a sync failure to its status string. Account
// errors get their dedicated values; anything else becomes "Error: <detail>".
func SyncStatusFromError(err error) SyncStatus {
	switch {
	case err == nil:
		return SyncSynced
	case errors.Is(err, recordstore.ErrNotSignedIn):
		return SyncNotSignedIn
	case errors.Is(err, recordstore.ErrRestricted):
		return SyncRestricted
	case errors.Is(err, recordstore.ErrTemporarilyUnavailable):
		return SyncTemporarilyUnavailable
	default:
		return SyncStatus(fmt.Sprintf("Error: %v", err))
	}
}
