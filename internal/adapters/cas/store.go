// Package cas persists the fingerprints of the last successful build of each task.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// StateFile is the location of the store relative to the project root.
const StateFile = domain.StateDir + "/state.json"

var (
	_ ports.BuildInfoStore       = (*Store)(nil)
	_ ports.BuildInfoStoreOpener = Opener{}
)

// Store implements ports.BuildInfoStore using a flat JSON file.
type Store struct {
	path  string
	mu    sync.RWMutex
	cache map[string]domain.BuildInfo
}

// Opener opens the store at StateFile below a project root.
type Opener struct{}

// Open implements ports.BuildInfoStoreOpener.
func (Opener) Open(root string) (ports.BuildInfoStore, error) {
	return NewStore(filepath.Join(root, filepath.FromSlash(StateFile)))
}

// NewStore creates a new BuildInfoStore backed by the file at the given path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  filepath.Clean(path),
		cache: make(map[string]domain.BuildInfo),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Join(domain.ErrStoreReadFailed, zerr.With(err, "path", s.path))
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return errors.Join(domain.ErrStoreReadFailed, zerr.With(err, "path", s.path))
	}

	return nil
}

// save writes the cache through a temporary file so readers never see a partial state.
// The caller must hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal build info store")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Join(domain.ErrStoreWriteFailed, zerr.With(err, "path", dir))
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return errors.Join(domain.ErrStoreWriteFailed, zerr.With(err, "path", dir))
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Join(domain.ErrStoreWriteFailed, zerr.With(err, "path", tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(domain.ErrStoreWriteFailed, zerr.With(err, "path", tmp.Name()))
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Join(domain.ErrStoreWriteFailed, zerr.With(err, "path", s.path))
	}

	return nil
}

// Get retrieves the build info for a given task name.
func (s *Store) Get(taskName string) (*domain.BuildInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.cache[taskName]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// Put stores the build info.
func (s *Store) Put(info domain.BuildInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[info.TaskName] = info
	return s.save()
}
