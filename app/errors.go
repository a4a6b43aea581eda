package app

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a path resolves to no publicly visible content.
var ErrNotFound = errors.New("content not found")

// ErrSyncInProgress is returned when a catalog sync is requested while
// another one is running.
var ErrSyncInProgress = errors.New("catalog sync already in progress")

// ConfigError reports an authoring or configuration defect, such as a
// module record with no template assignment.
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error resolving %s: %s", e.Path, e.Reason)
}

// StorageError wraps a failure of the persistence collaborator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
