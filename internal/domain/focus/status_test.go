package focus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/focusboard/internal/recordstore"
)

func TestSyncStatusFromError(t *testing.T) {
	require.Equal(t, SyncSynced, SyncStatusFromError(nil))
	require.Equal(t, SyncNotSignedIn, SyncStatusFromError(recordstore.ErrNotSignedIn))
	require.Equal(t, SyncRestricted, SyncStatusFromError(recordstore.ErrRestricted))
	require.Equal(t, SyncTemporarilyUnavailable, SyncStatusFromError(recordstore.ErrTemporarilyUnavailable))

	// Wrapped sentinels still map to their dedicated values.
	wrapped := fmt.Errorf("sync pass: %w", recordstore.ErrNotSignedIn)
	require.Equal(t, SyncNotSignedIn, SyncStatusFromError(wrapped))

	require.Equal(t, SyncStatus("Error: boom"), SyncStatusFromError(errors.New("boom")))
}
