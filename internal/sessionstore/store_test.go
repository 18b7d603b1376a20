package sessionstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/sessionstore"
)

func newSession(id string) domain.StoredRebaseSession {
	return domain.StoredRebaseSession{
		State: domain.RebaseState{
			Session: domain.RebaseSession{ID: id, Status: domain.SessionRunning},
		},
	}
}

func TestStore_CreateGetUpdate(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)

	require.False(t, store.Has("/repo/one"))

	require.NoError(t, store.Create("/repo/one", newSession("s1")))
	got, ok := store.Get("/repo/one")
	require.True(t, ok)
	require.EqualValues(t, 1, got.Version)

	updated, err := store.Update("/repo/one", 1, func(s domain.StoredRebaseSession) domain.StoredRebaseSession {
		s.State.Session.Status = domain.SessionCompleted
		return s
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, updated.Version)
	require.Equal(t, domain.SessionCompleted, updated.State.Session.Status)
}

func TestStore_KeyNormalizesTrailingSeparator(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)

	require.NoError(t, store.Create("/repo/one/", newSession("s1")))
	require.True(t, store.Has("/repo/one"), "trailing separator must normalize to the same key")
}

func TestStore_CreateTwiceConflicts(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)

	require.NoError(t, store.Create("/repo/one", newSession("s1")))
	err = store.Create("/repo/one", newSession("s2"))
	require.Error(t, err)
	var conflict *coreerrors.ConcurrencyConflict
	require.True(t, coreerrors.As(err, &conflict))
	require.Equal(t, "version_mismatch", conflict.Reason)
}

func TestStore_UpdateVersionMismatch(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Create("/repo/one", newSession("s1")))

	_, err = store.Update("/repo/one", 999, func(s domain.StoredRebaseSession) domain.StoredRebaseSession { return s })
	require.Error(t, err)
	var conflict *coreerrors.ConcurrencyConflict
	require.True(t, coreerrors.As(err, &conflict))
	require.Equal(t, "version_mismatch", conflict.Reason)
}

func TestStore_UpdateNotFound(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)

	_, err = store.Update("/repo/missing", 1, func(s domain.StoredRebaseSession) domain.StoredRebaseSession { return s })
	require.Error(t, err)
	var conflict *coreerrors.ConcurrencyConflict
	require.True(t, coreerrors.As(err, &conflict))
	require.Equal(t, "not_found", conflict.Reason)
}

func TestStore_ClearAndReopen(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Create("/repo/one", newSession("s1")))

	reopened, err := sessionstore.Open(path)
	require.NoError(t, err)
	require.True(t, reopened.Has("/repo/one"), "session should survive a reopen")

	require.NoError(t, store.Clear("/repo/one"))
	require.False(t, store.Has("/repo/one"))
}

func TestUpdateWithRetry_SucceedsAfterConcurrentWrite(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Create("/repo/one", newSession("s1")))

	// Simulate another writer racing ahead between the caller's read and
	// its update.
	_, err = store.Update("/repo/one", 1, func(s domain.StoredRebaseSession) domain.StoredRebaseSession { return s })
	require.NoError(t, err)

	updated, err := sessionstore.UpdateWithRetry(store, "/repo/one", 3, func(s domain.StoredRebaseSession) domain.StoredRebaseSession {
		s.State.Session.Status = domain.SessionAborted
		return s
	})
	require.NoError(t, err)
	require.Equal(t, domain.SessionAborted, updated.State.Session.Status)
}

func TestUpdateWithRetry_NotFound(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)

	_, err = sessionstore.UpdateWithRetry(store, "/repo/missing", 3, func(s domain.StoredRebaseSession) domain.StoredRebaseSession { return s })
	require.Error(t, err)
}

func TestOpen_RejectsIncompatibleMajorSchemaVersion(t *testing.T) {
	path := t.TempDir() + "/sessions.json"
	store, err := sessionstore.Open(path)
	require.NoError(t, err)

	session := newSession("s1")
	session.SchemaVersion = "v2.0.0"
	require.NoError(t, store.Create("/repo/one", session))

	_, err = sessionstore.Open(path)
	require.Error(t, err)
	var validation *coreerrors.Validation
	require.True(t, coreerrors.As(err, &validation))
	require.Equal(t, "incompatible-schema", validation.Reason)
}
