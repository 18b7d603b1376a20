// Package sessionstore implements a JSON-file-backed, versioned store for
// in-flight rebase sessions keyed by (normalized) repository path: a
// single whole-file document guarded by one mutex, with an
// optimistic-concurrency version token per entry.
package sessionstore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
)

// Store is a single JSON file holding every session keyed by repository
// path, guarded by one mutex for the whole file — appropriate here since
// sessions are rare and short-lived relative to ordinary reads.
type Store struct {
	path string

	mu    sync.Mutex
	state diskState
}

// Open opens (or creates) the session store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, coreerrors.WrapIff(err, "failed to create directory for session store %q", path)
	}
	st, err := readState(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, state: st}, nil
}

// normalizeKey strips trailing path separators so a repo path with or
// without a trailing slash maps to the same entry.
func normalizeKey(repoPath string) string {
	return strings.TrimRight(repoPath, "/\\")
}

// Get returns the session stored for repoPath, if any.
func (s *Store) Get(repoPath string) (domain.StoredRebaseSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.state.Sessions[normalizeKey(repoPath)]
	return sess, ok
}

// Has reports whether a session exists for repoPath.
func (s *Store) Has(repoPath string) bool {
	_, ok := s.Get(repoPath)
	return ok
}

// All returns every session currently in the store, keyed by repo path.
func (s *Store) All() map[string]domain.StoredRebaseSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.StoredRebaseSession, len(s.state.Sessions))
	for k, v := range s.state.Sessions {
		out[k] = v
	}
	return out
}

// Create inserts a brand-new session at repoPath. It fails with a
// ConcurrencyConflict if a session already exists at that key — a repo can
// only have one in-flight rebase session at a time.
func (s *Store) Create(repoPath string, session domain.StoredRebaseSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(repoPath)
	if _, exists := s.state.Sessions[key]; exists {
		return &coreerrors.ConcurrencyConflict{Reason: "version_mismatch"}
	}
	session.Version = 1
	if session.SchemaVersion == "" {
		session.SchemaVersion = domain.CurrentSchemaVersion
	}

	next := s.state.copy()
	next.Sessions[key] = session
	if err := writeState(s.path, next); err != nil {
		return err
	}
	s.state = next
	return nil
}

// Update applies mutate to the session at repoPath, bumping its version by
// exactly 1 on success. It fails with a ConcurrencyConflict if the
// session doesn't exist, or if expectedVersion doesn't match the version
// this Store currently holds — the caller lost a race and should reload and
// retry (see UpdateWithRetry). The file is read only by Open, so only
// writers sharing this Store are seen.
func (s *Store) Update(repoPath string, expectedVersion int64, mutate func(domain.StoredRebaseSession) domain.StoredRebaseSession) (domain.StoredRebaseSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(repoPath)
	current, ok := s.state.Sessions[key]
	if !ok {
		return domain.StoredRebaseSession{}, &coreerrors.ConcurrencyConflict{Reason: "not_found"}
	}
	if current.Version != expectedVersion {
		return domain.StoredRebaseSession{}, &coreerrors.ConcurrencyConflict{Reason: "version_mismatch"}
	}

	updated := mutate(current)
	updated.Version = current.Version + 1

	next := s.state.copy()
	next.Sessions[key] = updated
	if err := writeState(s.path, next); err != nil {
		return domain.StoredRebaseSession{}, err
	}
	s.state = next
	return updated, nil
}

// Clear removes the session at repoPath, if present. Idempotent.
func (s *Store) Clear(repoPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(repoPath)
	if _, ok := s.state.Sessions[key]; !ok {
		return nil
	}
	next := s.state.copy()
	delete(next.Sessions, key)
	if err := writeState(s.path, next); err != nil {
		return err
	}
	s.state = next
	return nil
}
