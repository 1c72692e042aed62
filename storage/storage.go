// Package storage provides the flat key-value persistence layer: the cached
// OAuth credential, the durable job queue, the capped action log, the last
// watch-later snapshot, and saved settings.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError wraps storage errors with operation and entity context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storErr.Op, storErr.Entity, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "lock").
	Op string
	// Entity is the entity type ("credential", "jobs", "logs", etc.).
	Entity string
	// ID is the entity ID if applicable.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Store is the full persistence surface. Implementations must be safe for
// concurrent use and must persist after every mutation.
type Store interface {
	CredentialStore
	JobStore
	LogStore
	SnapshotStore
	SettingsStore

	// Close releases any resources held by the store.
	Close() error
}

// CredentialStore holds the single cached OAuth credential.
type CredentialStore interface {
	// Credential returns the cached credential, or ErrNotFound.
	Credential(ctx context.Context) (*Credential, error)
	// PutCredential replaces the cached credential.
	PutCredential(ctx context.Context, cred *Credential) error
	// DeleteCredential drops the cached credential.
	DeleteCredential(ctx context.Context) error
}

// JobStore persists the durable job queue as one ordered sequence.
type JobStore interface {
	// Jobs returns the queue in insertion order.
	Jobs(ctx context.Context) ([]Job, error)
	// SaveJobs replaces the entire persisted queue.
	SaveJobs(ctx context.Context, jobs []Job) error
}

// LogStore is the append-only capped action log.
type LogStore interface {
	// AppendLog appends one entry, trimming the oldest entries past the cap.
	AppendLog(ctx context.Context, entry ActionLog) error
	// Logs returns all retained entries, oldest first.
	Logs(ctx context.Context) ([]ActionLog, error)
	// ClearLogs removes all entries.
	ClearLogs(ctx context.Context) error
}

// SnapshotStore keeps the last fetched watch-later listing.
type SnapshotStore interface {
	// WatchLater returns the last snapshot, or ErrNotFound.
	WatchLater(ctx context.Context) (*WatchLaterSnapshot, error)
	// SaveWatchLater replaces the snapshot.
	SaveWatchLater(ctx context.Context, snap *WatchLaterSnapshot) error
}

// SettingsStore keeps user configuration.
type SettingsStore interface {
	// Settings returns the saved settings, or ErrNotFound when never saved.
	Settings(ctx context.Context) (*Settings, error)
	// SaveSettings replaces the saved settings.
	SaveSettings(ctx context.Context, s *Settings) error
}
