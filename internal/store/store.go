// Package store persists registry claim state between lockable processes.
//
// The state lives in a single JSON file inside the configured state
// directory. Writers replace it atomically (write to a temp file, then
// rename), and every read-modify-write cycle runs under an exclusive
// flock(2) on a sibling lock file, so two CLI invocations never lose each
// other's updates.
//
//	st := store.New(dir)
//	err := st.Update(ctx, func(claims []registry.ClaimRecord) ([]registry.ClaimRecord, error) {
//	    reg.Restore(claims)
//	    // ... mutate reg ...
//	    return reg.Snapshot(), nil
//	})
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/lockable/internal/registry"
)

const (
	stateFileName = "claims.json"
	lockFileName  = "claims.lock"

	// stateVersion is bumped when the file format changes incompatibly.
	stateVersion = 1
)

// persistedState is the on-disk representation of the claim state.
type persistedState struct {
	Version int                    `json:"version"`
	SavedAt time.Time              `json:"saved_at"`
	Claims  []registry.ClaimRecord `json:"claims"`
}

// Store reads and writes the claim state file in one directory.
type Store struct {
	dir string
	now func() time.Time
}

// New returns a Store for dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, stateFileName)
}

// Load reads the claim state under the lock. A missing state file yields
// no records and no error.
func (s *Store) Load(ctx context.Context) ([]registry.ClaimRecord, error) {
	var claims []registry.ClaimRecord
	err := s.withLock(ctx, func() error {
		var err error
		claims, err = s.read()
		return err
	})
	return claims, err
}

// Save replaces the claim state under the lock.
func (s *Store) Save(ctx context.Context, claims []registry.ClaimRecord) error {
	return s.withLock(ctx, func() error {
		return s.write(claims)
	})
}

// Update runs fn on the current claim state and saves what it returns, all
// under one lock. If fn returns an error the state file is left untouched
// and the error is returned.
func (s *Store) Update(ctx context.Context, fn func([]registry.ClaimRecord) ([]registry.ClaimRecord, error)) error {
	return s.withLock(ctx, func() error {
		claims, err := s.read()
		if err != nil {
			return err
		}
		next, err := fn(claims)
		if err != nil {
			return err
		}
		return s.write(next)
	})
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	fl := &fileLock{path: filepath.Join(s.dir, lockFileName)}
	if err := fl.lock(ctx); err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	defer func() { _ = fl.unlock() }()
	return fn()
}

func (s *Store) read() ([]registry.ClaimRecord, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal claim state: %w", err)
	}
	if state.Version != stateVersion {
		return nil, fmt.Errorf("unsupported claim state version %d (want %d)", state.Version, stateVersion)
	}
	return state.Claims, nil
}

func (s *Store) write(claims []registry.ClaimRecord) error {
	if claims == nil {
		claims = []registry.ClaimRecord{}
	}
	data, err := json.MarshalIndent(persistedState{
		Version: stateVersion,
		SavedAt: s.now().UTC(),
		Claims:  claims,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal claim state: %w", err)
	}

	target := s.Path()
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
