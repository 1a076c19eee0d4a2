package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/praxis-ai/praxis/internal/types"
)

// Store persists ExecutionState documents keyed by plan id.
type Store interface {
	// Load reads and integrity-checks the state document for a plan id.
	Load(planID types.ID) (*ExecutionState, error)

	// Save atomically persists the state document.
	Save(state *ExecutionState) error

	// AppendHistory loads the document, appends an entry, and saves it.
	AppendHistory(planID types.ID, entry HistoryEntry) error

	// Acquire claims exclusive ownership of a plan id via an advisory lock
	// file. The returned release function must be called when the run ends.
	Acquire(planID types.ID) (func(), error)

	// Exists reports whether a state document exists for the plan id.
	Exists(planID types.ID) bool
}

// FileStore implements Store with one JSON document per plan id under a
// base directory. Writes are write-temp-then-rename so a crash never
// leaves a partial document, and an advisory lock file alongside the
// document prevents two processes claiming the same plan id. Different
// plan ids never contend; writes to the same id are serialized.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[types.ID]*sync.Mutex
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.WrapError(types.STATE_WRITE_FAILED,
			fmt.Sprintf("failed to create state directory %q", dir), err)
	}
	return &FileStore{
		dir:   dir,
		locks: make(map[types.ID]*sync.Mutex),
	}, nil
}

// Load reads the state document for a plan id, verifying its integrity.
// A missing document yields STATE_NOT_FOUND; a malformed or tampered one
// yields STATE_CORRUPTED so the caller never resumes from a guessed state.
func (fs *FileStore) Load(planID types.ID) (*ExecutionState, error) {
	data, err := os.ReadFile(fs.docPath(planID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.STATE_NOT_FOUND,
				fmt.Sprintf("no state document for plan %s", planID))
		}
		return nil, types.WrapError(types.STATE_CORRUPTED,
			fmt.Sprintf("failed to read state document for plan %s", planID), err)
	}

	// Decode with UseNumber so numeric state variables keep their exact
	// source text. Without it a variable like 1.0 reloads as float64 and
	// re-marshals as 1, and the checksum over the re-marshaled document
	// would reject an untampered run.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var state ExecutionState
	if err := dec.Decode(&state); err != nil {
		return nil, types.WrapError(types.STATE_CORRUPTED,
			fmt.Sprintf("state document for plan %s is not valid JSON", planID), err)
	}

	if err := state.VerifyIntegrity(); err != nil {
		return nil, err
	}

	if state.PlanID != planID {
		return nil, types.NewError(types.STATE_CORRUPTED,
			fmt.Sprintf("state document plan id %s does not match %s", state.PlanID, planID))
	}

	return &state, nil
}

// Save seals and atomically persists the state document.
func (fs *FileStore) Save(state *ExecutionState) error {
	lock := fs.perIDLock(state.PlanID)
	lock.Lock()
	defer lock.Unlock()

	if err := state.Seal(); err != nil {
		return types.WrapError(types.STATE_WRITE_FAILED, "failed to seal state document", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return types.WrapError(types.STATE_WRITE_FAILED, "failed to encode state document", err)
	}

	path := fs.docPath(state.PlanID)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return types.WrapError(types.STATE_WRITE_FAILED,
			fmt.Sprintf("failed to write temp state file for plan %s", state.PlanID), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return types.WrapError(types.STATE_WRITE_FAILED,
			fmt.Sprintf("failed to commit state file for plan %s", state.PlanID), err)
	}

	return nil
}

// AppendHistory loads the persisted document, appends the entry, and saves.
// Intended for external collaborators; the engine appends through its
// in-memory copy instead.
func (fs *FileStore) AppendHistory(planID types.ID, entry HistoryEntry) error {
	state, err := fs.Load(planID)
	if err != nil {
		return err
	}
	state.History = append(state.History, entry)
	state.UpdatedAt = entry.Timestamp
	return fs.Save(state)
}

// Acquire claims exclusive ownership of a plan id. It creates a lock file
// with O_EXCL recording the holder's pid; if the file already exists and
// its holder is still alive another process owns the run. A lock left
// behind by a crashed process is reclaimed, since resuming after a crash
// is exactly when Acquire must succeed.
func (fs *FileStore) Acquire(planID types.ID) (func(), error) {
	lockPath := fs.lockPath(planID)

	for reclaimed := false; ; {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(file, "%d\n", os.Getpid())
			file.Close()
			return func() {
				os.Remove(lockPath)
			}, nil
		}
		if !os.IsExist(err) {
			return nil, types.WrapError(types.STATE_WRITE_FAILED,
				fmt.Sprintf("failed to create lock file for plan %s", planID), err)
		}

		if !reclaimed && lockHolderDead(lockPath) {
			os.Remove(lockPath)
			reclaimed = true
			continue
		}

		return nil, types.NewError(types.STATE_LOCKED,
			fmt.Sprintf("plan %s is already claimed by another process", planID))
	}
}

// lockHolderDead reports whether the pid recorded in a lock file no longer
// refers to a live process. A malformed lock file counts as dead: its
// writer crashed between creating and writing it. An unreadable file does
// not, to avoid racing a concurrent creator.
func lockHolderDead(lockPath string) bool {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return true
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return true
	}
	// Signal 0 probes liveness without delivering anything. EPERM means the
	// process exists but belongs to another user, so the lock is held.
	sigErr := proc.Signal(syscall.Signal(0))
	return sigErr != nil && !errors.Is(sigErr, syscall.EPERM)
}

// Exists reports whether a state document exists for the plan id.
func (fs *FileStore) Exists(planID types.ID) bool {
	_, err := os.Stat(fs.docPath(planID))
	return err == nil
}

func (fs *FileStore) docPath(planID types.ID) string {
	return filepath.Join(fs.dir, sanitize(planID.String())+".json")
}

func (fs *FileStore) lockPath(planID types.ID) string {
	return filepath.Join(fs.dir, sanitize(planID.String())+".lock")
}

func (fs *FileStore) perIDLock(planID types.ID) *sync.Mutex {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	lock, ok := fs.locks[planID]
	if !ok {
		lock = &sync.Mutex{}
		fs.locks[planID] = lock
	}
	return lock
}

// sanitize strips path separators so a plan id can never escape the state
// directory.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', ' ':
			return '_'
		default:
			return r
		}
	}, id)
}
