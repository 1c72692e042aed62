package ytbackup

import (
	"github.com/kuil09/youtube-subscriptions-backup/auth"
	"github.com/kuil09/youtube-subscriptions-backup/retry"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
	"github.com/kuil09/youtube-subscriptions-backup/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytbackup.ErrNotFound) {
//		fmt.Println("No snapshot captured yet")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var apiErr *ytbackup.RemoteAPIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("API call failed (%d): %s\n", apiErr.Status, apiErr.Hint)
//	}

// Type aliases for convenient error handling.
type (
	// AuthError wraps OAuth consent and token refresh failures.
	AuthError = auth.AuthError
	// RemoteAPIError wraps YouTube Data API failures with a remediation hint.
	RemoteAPIError = youtube.RemoteAPIError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
	// ExhaustedError wraps errors that occurred after retries were exhausted.
	ExhaustedError = retry.ExhaustedError
	// PermanentError marks an error that must never be retried.
	PermanentError = retry.PermanentError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrNotFound indicates an entity was not found in storage.
	ErrNotFound = storage.ErrNotFound
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = storage.ErrInvalidInput
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// IsTransient reports whether an error is worth retrying. It returns
// false for context cancellation and errors marked Permanent.
func IsTransient(err error) bool {
	return retry.RetryTransient(err)
}
