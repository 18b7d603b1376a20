package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/mod/semver"

	"github.com/aviator-co/stackcore/internal/coreerrors"
	"github.com/aviator-co/stackcore/internal/domain"
	"github.com/aviator-co/stackcore/internal/utils/maputils"
)

// diskState is the on-disk shape of the store: every in-flight
// StoredRebaseSession keyed by repository path, a single JSON document
// read whole and written whole rather than one file per session.
type diskState struct {
	Sessions map[string]domain.StoredRebaseSession `json:"sessions"`
}

func (s diskState) copy() diskState {
	return diskState{Sessions: maputils.Copy(s.Sessions)}
}

func readState(path string) (diskState, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return diskState{}, coreerrors.WrapIff(err, "failed to read session store %q", path)
	}
	if len(data) == 0 {
		return diskState{Sessions: map[string]domain.StoredRebaseSession{}}, nil
	}
	var st diskState
	if err := json.Unmarshal(data, &st); err != nil {
		return diskState{}, coreerrors.WrapIff(err, "failed to parse session store %q", path)
	}
	if st.Sessions == nil {
		st.Sessions = map[string]domain.StoredRebaseSession{}
	}
	for key, session := range st.Sessions {
		if !schemaCompatible(session.SchemaVersion) {
			return diskState{}, &coreerrors.Validation{
				Reason:  "incompatible-schema",
				Message: fmt.Sprintf("session %q has schema %s, incompatible with this build's %s", key, session.SchemaVersion, domain.CurrentSchemaVersion),
			}
		}
	}
	return st, nil
}

// schemaCompatible reports whether a stored session's schema version can be
// interpreted by this build: only the major component needs to match,
// since minor/patch bumps are additive.
func schemaCompatible(stored string) bool {
	if stored == "" {
		return false
	}
	return semver.Major(stored) == semver.Major(domain.CurrentSchemaVersion)
}

func writeState(path string, st diskState) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return coreerrors.WrapIff(err, "failed to open session store %q for writing", path)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		_ = f.Close()
		return coreerrors.WrapIff(err, "failed to write session store %q", path)
	}
	return f.Close()
}
