package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/pkg/errors"
)

const stateFileMode os.FileMode = 0o644

// stateFile is the on-disk JSON layout
type stateFile struct {
	Initialized bool     `json:"initialized"`
	Seen        []string `json:"seen"`
}

// FileStore keeps State in a single JSON file, replaced atomically on save
type FileStore struct {
	path string

	// rename moves the temp file over path; tests swap it to simulate a
	// crash between write and rename
	rename func(oldpath, newpath string) error
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, rename: os.Rename}
}

// Path returns the state file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the state file, returning a fresh State on any error
func (s *FileStore) Load(ctx context.Context) *State {
	log := logger.ForStore()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", s.path).Msg("No state file, starting fresh")
		} else {
			log.Warn().Err(err).Str("path", s.path).Msg("Failed to read state, starting fresh")
		}
		return NewState()
	}

	var raw stateFile
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Failed to parse state, starting fresh")
		return NewState()
	}

	state := NewState()
	state.Initialized = raw.Initialized
	for _, fp := range raw.Seen {
		state.Add(fp)
	}

	log.Debug().
		Bool("initialized", state.Initialized).
		Int("seen", state.Len()).
		Msg("Loaded state")
	return state
}

// Save writes state to a temp file in the same directory, syncs it and
// renames it over the state file. The temp file is removed on failure.
func (s *FileStore) Save(ctx context.Context, state *State) error {
	data, err := json.MarshalIndent(stateFile{
		Initialized: state.Initialized,
		Seen:        state.Fingerprints(),
	}, "", "  ")
	if err != nil {
		return errors.NewPersist(s.path, "encode state", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewPersist(s.path, "create state directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.NewPersist(s.path, "create temp file", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewPersist(s.path, "write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewPersist(s.path, "sync temp file", err)
	}
	// CreateTemp uses 0600; keep the mode a plain write would give
	if err := tmp.Chmod(stateFileMode); err != nil {
		tmp.Close()
		return errors.NewPersist(s.path, "chmod temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewPersist(s.path, "close temp file", err)
	}
	if err := s.rename(tmpName, s.path); err != nil {
		return errors.NewPersist(s.path, fmt.Sprintf("rename %s", filepath.Base(tmpName)), err)
	}
	committed = true

	logger.ForStore().Debug().
		Str("path", s.path).
		Int("seen", state.Len()).
		Msg("Saved state")
	return nil
}
