// Package task defines the task list contract and its storage backends.
package task

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GoCodeAlone/tasklist/config"
)

// ErrUnknownDriver is returned by Open for an unsupported store driver.
var ErrUnknownDriver = errors.New("unknown store driver")

// Store holds the ordered task list. A task is a plain string with no identity
// beyond its value; duplicates and empty strings are allowed.
type Store interface {
	// List returns the tasks in insertion order. The result is never nil.
	List() ([]string, error)

	// Append adds text to the end of the list.
	Append(text string) error

	// Remove deletes the first entry equal to text. It reports whether an
	// entry was removed; a missing task is not an error.
	Remove(text string) (bool, error)
}

// Open builds the store selected by cfg.Driver.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
