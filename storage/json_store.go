package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"
)

const (
	schemaVersion = "1.0"
	lockTimeout   = 5 * time.Second

	// maxLogEntries caps the action log; the oldest entries are trimmed.
	maxLogEntries = 5000
)

// JSONStore implements Store using a single JSON file. Every mutation is
// written back atomically before the call returns, so an interrupted
// process never loses an acknowledged state change.
type JSONStore struct {
	path string
	lock *FileLock
	data *storeData
	mu   sync.RWMutex
}

// storeData is the top-level JSON structure.
type storeData struct {
	Version    string              `json:"version"`
	UpdatedAt  time.Time           `json:"updated_at"`
	Credential *Credential         `json:"credential,omitempty"`
	Jobs       []Job               `json:"jobs"`
	Logs       []ActionLog         `json:"logs"`
	WatchLater *WatchLaterSnapshot `json:"watch_later,omitempty"`
	Settings   *Settings           `json:"settings,omitempty"`
}

// NewJSONStore creates a new JSON file store at the given path.
// If the file exists, it is loaded; otherwise an empty store is created.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path: path,
		lock: NewFileLock(path),
	}

	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		s.lock.Unlock()
		return nil, err
	}

	return s, nil
}

// load reads the JSON file into memory. Creates empty data if file doesn't exist.
func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.data = newStoreData()
			// Save immediately to catch permission errors early
			return s.save()
		}
		return &StorageError{Op: "read", Entity: "store", Err: err}
	}

	s.data = &storeData{}
	if err := json.Unmarshal(data, s.data); err != nil {
		return &StorageError{Op: "read", Entity: "store", Err: ErrStorageCorrupt}
	}

	if s.data.Jobs == nil {
		s.data.Jobs = []Job{}
	}
	if s.data.Logs == nil {
		s.data.Logs = []ActionLog{}
	}

	return nil
}

// save persists the data to disk atomically. Callers must hold s.mu.
func (s *JSONStore) save() error {
	s.data.UpdatedAt = time.Now()

	writer, err := NewAtomicWriter(s.path)
	if err != nil {
		return &StorageError{Op: "write", Entity: "store", Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		writer.Abort()
		return &StorageError{Op: "write", Entity: "store", Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &StorageError{Op: "write", Entity: "store", Err: err}
	}

	return nil
}

// Close releases resources held by the store.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Unlock()
}

func newStoreData() *storeData {
	return &storeData{
		Version: schemaVersion,
		Jobs:    []Job{},
		Logs:    []ActionLog{},
	}
}

// --- CredentialStore implementation ---

func (s *JSONStore) Credential(ctx context.Context) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.Credential == nil {
		return nil, &StorageError{Op: "read", Entity: "credential", Err: ErrNotFound}
	}
	cred := *s.data.Credential
	return &cred, nil
}

func (s *JSONStore) PutCredential(ctx context.Context, cred *Credential) error {
	if cred == nil {
		return &StorageError{Op: "write", Entity: "credential", Err: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *cred
	s.data.Credential = &c
	return s.save()
}

func (s *JSONStore) DeleteCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Credential = nil
	return s.save()
}

// --- JobStore implementation ---

func (s *JSONStore) Jobs(ctx context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, len(s.data.Jobs))
	copy(jobs, s.data.Jobs)
	return jobs, nil
}

func (s *JSONStore) SaveJobs(ctx context.Context, jobs []Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Jobs = append([]Job(nil), jobs...)
	return s.save()
}

// --- LogStore implementation ---

func (s *JSONStore) AppendLog(ctx context.Context, entry ActionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	s.data.Logs = append(s.data.Logs, entry)
	if n := len(s.data.Logs); n > maxLogEntries {
		s.data.Logs = append([]ActionLog(nil), s.data.Logs[n-maxLogEntries:]...)
	}
	return s.save()
}

func (s *JSONStore) Logs(ctx context.Context) ([]ActionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]ActionLog, len(s.data.Logs))
	copy(logs, s.data.Logs)
	return logs, nil
}

func (s *JSONStore) ClearLogs(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Logs = []ActionLog{}
	return s.save()
}

// --- SnapshotStore implementation ---

func (s *JSONStore) WatchLater(ctx context.Context) (*WatchLaterSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.WatchLater == nil {
		return nil, &StorageError{Op: "read", Entity: "watch_later", Err: ErrNotFound}
	}
	snap := WatchLaterSnapshot{
		Items:     append([]WatchLaterItem(nil), s.data.WatchLater.Items...),
		FetchedAt: s.data.WatchLater.FetchedAt,
	}
	return &snap, nil
}

func (s *JSONStore) SaveWatchLater(ctx context.Context, snap *WatchLaterSnapshot) error {
	if snap == nil {
		return &StorageError{Op: "write", Entity: "watch_later", Err: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := WatchLaterSnapshot{
		Items:     append([]WatchLaterItem(nil), snap.Items...),
		FetchedAt: snap.FetchedAt,
	}
	if copied.FetchedAt.IsZero() {
		copied.FetchedAt = time.Now()
	}
	s.data.WatchLater = &copied
	return s.save()
}

// --- SettingsStore implementation ---

func (s *JSONStore) Settings(ctx context.Context) (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.Settings == nil {
		return nil, &StorageError{Op: "read", Entity: "settings", Err: ErrNotFound}
	}
	cfg := *s.data.Settings
	return &cfg, nil
}

func (s *JSONStore) SaveSettings(ctx context.Context, cfg *Settings) error {
	if cfg == nil {
		return &StorageError{Op: "write", Entity: "settings", Err: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *cfg
	s.data.Settings = &copied
	return s.save()
}
