package review_session

import (
	"bytes"
	"crypto/md5"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/reviewmentor/review_session/models"
)

// ErrSessionLocked is returned by Lock when another process holds the lock
// for the same project root.
var ErrSessionLocked = errors.New("review session is locked by another process")

const (
	stateFileSuffix = ".session"
	lockFileSuffix  = ".lock"
)

// SessionStore persists one SessionState per project root as a gob file.
type SessionStore struct {
	dir   string
	mutex sync.RWMutex
	stats *StoreStats
}

// DefaultStoreDir returns <user cache dir>/reviewmentor/sessions.
func DefaultStoreDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}
	return filepath.Join(base, "reviewmentor", "sessions"), nil
}

// NewSessionStore opens (and creates) a store in dir. An empty dir selects
// DefaultStoreDir.
func NewSessionStore(dir string) (*SessionStore, error) {
	if dir == "" {
		defaultDir, err := DefaultStoreDir()
		if err != nil {
			return nil, err
		}
		dir = defaultDir
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &SessionStore{
		dir:   dir,
		stats: &StoreStats{LastResetTime: time.Now()},
	}, nil
}

// Dir returns the store directory.
func (ss *SessionStore) Dir() string {
	return ss.dir
}

// generateKey derives the file name stem for a project root.
func (ss *SessionStore) generateKey(root string) string {
	hash := md5.Sum([]byte(filepath.Clean(root)))
	return fmt.Sprintf("%x", hash)
}

func (ss *SessionStore) statePath(root string) string {
	return filepath.Join(ss.dir, ss.generateKey(root)+stateFileSuffix)
}

func (ss *SessionStore) lockPath(root string) string {
	return filepath.Join(ss.dir, ss.generateKey(root)+lockFileSuffix)
}

// Save writes state, replacing any earlier state for the same root.
func (ss *SessionStore) Save(state *models.SessionState) error {
	if state == nil || state.Root == "" {
		return errors.New("session state has no root")
	}

	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(state); err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	path := ss.statePath(state.Root)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buffer.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write session state: %w", err)
	}

	ss.recordSave()
	return nil
}

// Load returns the stored state for root. A missing or undecodable file is a
// miss; undecodable files are removed.
func (ss *SessionStore) Load(root string) (*models.SessionState, bool) {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	path := ss.statePath(root)
	data, err := os.ReadFile(path)
	if err != nil {
		ss.recordMiss()
		return nil, false
	}

	var state models.SessionState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		os.Remove(path)
		ss.recordMiss()
		return nil, false
	}

	ss.recordHit()
	return &state, true
}

// Delete removes the stored state of root.
func (ss *SessionStore) Delete(root string) error {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	if err := os.Remove(ss.statePath(root)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

// Clear removes every stored state. Lock files are left alone.
func (ss *SessionStore) Clear() (int, error) {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	entries, err := os.ReadDir(ss.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read session directory: %w", err)
	}

	var deleted int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), stateFileSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(ss.dir, entry.Name())); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// Lock takes the cross-process lock for root. The lock is a file created
// exclusively; the returned function removes it.
func (ss *SessionStore) Lock(root string) (func(), error) {
	path := ss.lockPath(root)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w (remove %s if no other review is running)", ErrSessionLocked, path)
		}
		return nil, fmt.Errorf("failed to create session lock: %w", err)
	}
	fmt.Fprintf(file, "%d\n", os.Getpid())
	file.Close()

	var once sync.Once
	return func() {
		once.Do(func() { os.Remove(path) })
	}, nil
}

// ForceUnlock removes a stale lock for root.
func (ss *SessionStore) ForceUnlock(root string) error {
	if err := os.Remove(ss.lockPath(root)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session lock: %w", err)
	}
	return nil
}
